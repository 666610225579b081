/*
DESCRIPTION
  slice.go provides parsing functionality for slice raw byte sequence data.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
  Bruce McMoran <mcmoranbjr@gmail.com>
*/

package h264dec

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/luuvish/h264dec/codec/h264/h264dec/bits"
	"github.com/pkg/errors"
)

// Slice types as defined by table 7-6 in specifications.
const (
	sliceTypeP  = 0
	sliceTypeB  = 1
	sliceTypeI  = 2
	sliceTypeSP = 3
	sliceTypeSI = 4
)

// Chroma formats as defined in section 6.2, tab 6-1.
const (
	chromaMonochrome = iota
	chroma420
	chroma422
	chroma444
)

type picture struct {
	*SliceContext
	isIDR         bool
	isBottomField bool
	isTopField    bool
}

type VideoStream struct {
	*SPS
	*PPS
	Slices []*SliceContext

	ChromaArrayType                  int
	priorPic                         *picture
	currPic                          *picture
	maxPicOrderCntLsb                int
	picOrderCntMsb                   int
	idrPicFlag                       bool
	frameNumOffset                   int
	expectedDeltaPerPicOrderCntCycle int
	topFieldOrderCnt                 int
	bottomFieldOrderCnt              int
	prevPOC                          prevPOCState
}

type SliceContext struct {
	*SPS
	*PPS
	*NALUnit
	*Slice
	chromaArrayType int
	nalType         int

	// cabac is the arithmetic decoding engine (9.3) used for the
	// remainder of the slice once entropy_coding_mode_flag is 1; it is
	// constructed once per slice (9.3.1) and persists across every
	// macroblock so its context state keeps adapting.
	cabac *CABACEngine
	// neighbours is the per-picture neighbour-availability oracle (6.4),
	// consulted by CABAC's ctxIdxInc derivations as each macroblock
	// decodes.
	neighbours *Neighbours
	// curMbAddr is the macroblock address currently being parsed, kept
	// in step with NewSliceData's currMbAddr loop variable.
	curMbAddr int
	// curQPY is QPY for the macroblock currently being parsed, derived per
	// 7.4.5/8.6.1 from SliceQPY and each macroblock's mb_qp_delta.
	curQPY int
}

type Slice struct {
	*SliceHeader
	*SliceData
}

// RefPicListModification provides elements of a ref_pic_list_modification syntax
// (defined in 7.3.3.1 of specifications) and a ref_pic_list_mvc_modification
// (defined in H.7.3.3.1.1 of specifications).
type RefPicListModification struct {
	RefPicListModificationFlag [2]bool
	ModificationOfPicNums      [2][]int
	AbsDiffPicNumMinus1        [2][]int
	LongTermPicNum             [2][]int
}

// TODO: need to complete this.
// NewRefPicListMVCModification parses elements of a ref_pic_list_mvc_modification
// following the syntax structure defined in section H.7.3.3.1.1, and returns as
// a new RefPicListModification.
func NewRefPicListMVCModifiation(br *bits.BitReader) (*RefPicListModification, error) {
	return nil, nil
}

// NewRefPicListModification parses elements of a ref_pic_list_modification
// following the syntax structure defined in section 7.3.3.1, and returns as
// a new RefPicListModification.
func NewRefPicListModification(br *bits.BitReader, p *PPS, s *SliceHeader) (*RefPicListModification, error) {
	r := &RefPicListModification{}
	r.ModificationOfPicNums[0] = make([]int, p.NumRefIdxL0DefaultActiveMinus1+2)
	r.ModificationOfPicNums[1] = make([]int, p.NumRefIdxL1DefaultActiveMinus1+2)
	r.AbsDiffPicNumMinus1[0] = make([]int, p.NumRefIdxL0DefaultActiveMinus1+2)
	r.AbsDiffPicNumMinus1[1] = make([]int, p.NumRefIdxL1DefaultActiveMinus1+2)
	r.LongTermPicNum[0] = make([]int, p.NumRefIdxL0DefaultActiveMinus1+2)
	r.LongTermPicNum[1] = make([]int, p.NumRefIdxL1DefaultActiveMinus1+2)
	fr := newFieldReader(br)

	// 7.3.3.1
	if s.SliceType%5 != 2 && s.SliceType%5 != 4 {
		r.RefPicListModificationFlag[0] = fr.readBits(1) == 1

		if r.RefPicListModificationFlag[0] {
			for i := 0; ; i++ {
				r.ModificationOfPicNums[0][i] = int(fr.readUe())

				if r.ModificationOfPicNums[0][i] == 0 || r.ModificationOfPicNums[0][i] == 1 {
					r.AbsDiffPicNumMinus1[0][i] = int(fr.readUe())
				} else if r.ModificationOfPicNums[0][i] == 2 {
					r.LongTermPicNum[0][i] = int(fr.readUe())
				}

				if r.ModificationOfPicNums[0][i] == 3 {
					break
				}
			}
		}
	}

	if s.SliceType%5 == 1 {
		r.RefPicListModificationFlag[1] = fr.readBits(1) == 1

		if r.RefPicListModificationFlag[1] {
			for i := 0; ; i++ {
				r.ModificationOfPicNums[1][i] = int(fr.readUe())

				if r.ModificationOfPicNums[1][i] == 0 || r.ModificationOfPicNums[1][i] == 1 {
					r.AbsDiffPicNumMinus1[1][i] = int(fr.readUe())
				} else if r.ModificationOfPicNums[1][i] == 2 {
					r.LongTermPicNum[1][i] = int(fr.readUe())
				}

				if r.ModificationOfPicNums[1][i] == 3 {
					break
				}
			}
		}
	}
	return r, nil
}

// PredWeightTable provides elements of a pred_weight_table syntax structure
// as defined in section 7.3.3.2 of the specifications.
type PredWeightTable struct {
	LumaLog2WeightDenom   int
	ChromaLog2WeightDenom int
	LumaWeightL0Flag      bool
	LumaWeightL0          []int
	LumaOffsetL0          []int
	ChromaWeightL0Flag    bool
	ChromaWeightL0        [][]int
	ChromaOffsetL0        [][]int
	LumaWeightL1Flag      bool
	LumaWeightL1          []int
	LumaOffsetL1          []int
	ChromaWeightL1Flag    bool
	ChromaWeightL1        [][]int
	ChromaOffsetL1        [][]int
}

// NewPredWeightTable parses elements of a pred_weight_table following the
// syntax structure defined in section 7.3.3.2, and returns as a new
// PredWeightTable.
func NewPredWeightTable(br *bits.BitReader, h *SliceHeader, chromaArrayType int) (*PredWeightTable, error) {
	p := &PredWeightTable{}
	r := newFieldReader(br)

	p.LumaLog2WeightDenom = int(r.readUe())

	if chromaArrayType != 0 {
		p.ChromaLog2WeightDenom = int(r.readUe())
	}
	for i := 0; i <= h.NumRefIdxL0ActiveMinus1; i++ {
		p.LumaWeightL0Flag = r.readBits(1) == 1

		if p.LumaWeightL0Flag {
			se, err := readSe(br)
			if err != nil {
				return nil, errors.Wrap(err, "could not parse LumaWeightL0")
			}
			p.LumaWeightL0 = append(p.LumaWeightL0, se)

			se, err = readSe(br)
			if err != nil {
				return nil, errors.Wrap(err, "could not parse LumaOffsetL0")
			}
			p.LumaOffsetL0 = append(p.LumaOffsetL0, se)
		}
		if chromaArrayType != 0 {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, errors.Wrap(err, "could not read ChromaWeightL0Flag")
			}
			p.ChromaWeightL0Flag = b == 1

			if p.ChromaWeightL0Flag {
				p.ChromaWeightL0 = append(p.ChromaWeightL0, []int{})
				p.ChromaOffsetL0 = append(p.ChromaOffsetL0, []int{})
				for j := 0; j < 2; j++ {
					se, err := readSe(br)
					if err != nil {
						return nil, errors.Wrap(err, "could not parse ChromaWeightL0")
					}
					p.ChromaWeightL0[i] = append(p.ChromaWeightL0[i], se)

					se, err = readSe(br)
					if err != nil {
						return nil, errors.Wrap(err, "could not parse ChromaOffsetL0")
					}
					p.ChromaOffsetL0[i] = append(p.ChromaOffsetL0[i], se)
				}
			}
		}
	}
	if h.SliceType%5 == 1 {
		for i := 0; i <= h.NumRefIdxL1ActiveMinus1; i++ {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, errors.Wrap(err, "could not read LumaWeightL1Flag")
			}
			p.LumaWeightL1Flag = b == 1

			if p.LumaWeightL1Flag {
				se, err := readSe(br)
				if err != nil {
					return nil, errors.Wrap(err, "could not parse LumaWeightL1")
				}
				p.LumaWeightL1 = append(p.LumaWeightL1, se)

				se, err = readSe(br)
				if err != nil {
					return nil, errors.Wrap(err, "could not parse LumaOffsetL1")
				}
				p.LumaOffsetL1 = append(p.LumaOffsetL1, se)
			}
			if chromaArrayType != 0 {
				b, err := br.ReadBits(1)
				if err != nil {
					return nil, errors.Wrap(err, "could not read ChromaWeightL1Flag")
				}
				p.ChromaWeightL1Flag = b == 1

				if p.ChromaWeightL1Flag {
					p.ChromaWeightL1 = append(p.ChromaWeightL1, []int{})
					p.ChromaOffsetL1 = append(p.ChromaOffsetL1, []int{})
					for j := 0; j < 2; j++ {
						se, err := readSe(br)
						if err != nil {
							return nil, errors.Wrap(err, "could not parse ChromaWeightL1")
						}
						p.ChromaWeightL1[i] = append(p.ChromaWeightL1[i], se)

						se, err = readSe(br)
						if err != nil {
							return nil, errors.Wrap(err, "could not parse ChromaOffsetL1")
						}
						p.ChromaOffsetL1[i] = append(p.ChromaOffsetL1[i], se)
					}
				}
			}
		}
	}
	return p, nil
}

// DecRefPicMarking provides elements of a dec_ref_pic_marking syntax structure
// as defined in section 7.3.3.3 of the specifications.
type DecRefPicMarking struct {
	NoOutputOfPriorPicsFlag       bool
	LongTermReferenceFlag         bool
	AdaptiveRefPicMarkingModeFlag bool
	elements                      []drpmElement
}

type drpmElement struct {
	MemoryManagementControlOperation int
	DifferenceOfPicNumsMinus1        int
	LongTermPicNum                   int
	LongTermFrameIdx                 int
	MaxLongTermFrameIdxPlus1         int
}

// NewDecRefPicMarking parses elements of a dec_ref_pic_marking following the
// syntax structure defined in section 7.3.3.3, and returns as a new
// DecRefPicMarking.
func NewDecRefPicMarking(br *bits.BitReader, idrPic bool) (*DecRefPicMarking, error) {
	d := &DecRefPicMarking{}
	r := newFieldReader(br)
	if idrPic {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errors.Wrap(err, "could not read NoOutputOfPriorPicsFlag")
		}
		d.NoOutputOfPriorPicsFlag = b == 1

		b, err = br.ReadBits(1)
		if err != nil {
			return nil, errors.Wrap(err, "could not read LongTermReferenceFlag")
		}
		d.LongTermReferenceFlag = b == 1
	} else {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errors.Wrap(err, "could not read AdaptiveRefPicMarkingModeFlag")
		}
		d.AdaptiveRefPicMarkingModeFlag = b == 1

		if d.AdaptiveRefPicMarkingModeFlag {
			for i := 0; ; i++ {
				d.elements = append(d.elements, drpmElement{})

				d.elements[i].MemoryManagementControlOperation = int(r.readUe())

				if d.elements[i].MemoryManagementControlOperation == 1 || d.elements[i].MemoryManagementControlOperation == 3 {
					d.elements[i].DifferenceOfPicNumsMinus1 = int(r.readUe())
				}
				if d.elements[i].MemoryManagementControlOperation == 2 {
					d.elements[i].LongTermPicNum = int(r.readUe())
				}
				if d.elements[i].MemoryManagementControlOperation == 3 || d.elements[i].MemoryManagementControlOperation == 6 {
					d.elements[i].LongTermFrameIdx = int(r.readUe())
				}
				if d.elements[i].MemoryManagementControlOperation == 4 {
					d.elements[i].MaxLongTermFrameIdxPlus1 = int(r.readUe())
				}

				if d.elements[i].MemoryManagementControlOperation == 0 {
					break
				}
			}
		}
	}
	return d, nil
}

type SliceHeader struct {
	FirstMbInSlice          int
	SliceType               int
	PPSID                   int
	ColorPlaneID            int
	FrameNum                int
	FieldPic                bool
	BottomField             bool
	IDRPicID                int
	PicOrderCntLsb          int
	DeltaPicOrderCntBottom  int
	DeltaPicOrderCnt        []int
	RedundantPicCnt         int
	DirectSpatialMvPred     bool
	NumRefIdxActiveOverride bool
	NumRefIdxL0ActiveMinus1 int
	NumRefIdxL1ActiveMinus1 int
	*RefPicListModification
	*PredWeightTable
	*DecRefPicMarking
	CabacInit               int
	SliceQpDelta            int
	SpForSwitch             bool
	SliceQsDelta            int
	DisableDeblockingFilter int
	SliceAlphaC0OffsetDiv2  int
	SliceBetaOffsetDiv2     int
	SliceGroupChangeCycle   int
}

type SliceData struct {
	BitReader                *bits.BitReader
	CabacAlignmentOneBit     int
	MbSkipRun                int
	MbSkipFlag               bool
	MbFieldDecodingFlag      bool
	EndOfSliceFlag           bool
	MbType                   int
	MbTypeName               string
	SliceTypeName            string
	PcmAlignmentZeroBit      int
	PcmSampleLuma            []int
	PcmSampleChroma          []int
	TransformSize8x8Flag     bool
	CodedBlockPattern        int
	MbQpDelta                int
	PrevIntra4x4PredModeFlag []int
	RemIntra4x4PredMode      []int
	PrevIntra8x8PredModeFlag []int
	RemIntra8x8PredMode      []int
	IntraChromaPredMode      int
	RefIdxL0                 []int
	RefIdxL1                 []int
	MvdL0                    [][][]int
	MvdL1                    [][][]int

	// Residual coefficient levels (9.2/7.3.5.3), scan order, populated only
	// along the CAVLC path this decoder implements (see DESIGN.md).
	Intra16x16DCLevel [16]int
	ChromaDCLevel     [2][8]int
}

// Table 7-6
var sliceTypeMap = map[int]string{
	0: "P",
	1: "B",
	2: "I",
	3: "SP",
	4: "SI",
	5: "P",
	6: "B",
	7: "I",
	8: "SP",
	9: "SI",
}

func flagVal(b bool) int {
	if b {
		return 1
	}
	return 0
}

// context-adaptive arithmetic entropy-coded element (CABAC)
// 9.3
// When parsing the slice date of a slice (7.3.4) the initialization is 9.3.1
func (d SliceData) ae(v int) int {
	// 9.3.1.1 : CABAC context initialization ctxIdx
	return 0
}

// 8.2.2
func MbToSliceGroupMap(sps *SPS, pps *PPS, header *SliceHeader) []int {
	mbaffFrameFlag := 0
	if sps.MBAdaptiveFrameFieldFlag && !header.FieldPic {
		mbaffFrameFlag = 1
	}
	mapUnitToSliceGroupMap := MapUnitToSliceGroupMap(sps, pps, header)
	mbToSliceGroupMap := []int{}
	for i := 0; i <= PicSizeInMbs(sps, header)-1; i++ {
		if sps.FrameMBSOnlyFlag || header.FieldPic {
			mbToSliceGroupMap = append(mbToSliceGroupMap, mapUnitToSliceGroupMap[i])
			continue
		}
		if mbaffFrameFlag == 1 {
			mbToSliceGroupMap = append(mbToSliceGroupMap, mapUnitToSliceGroupMap[i/2])
			continue
		}
		if !sps.FrameMBSOnlyFlag && !sps.MBAdaptiveFrameFieldFlag && !header.FieldPic {
			mbToSliceGroupMap = append(
				mbToSliceGroupMap,
				mapUnitToSliceGroupMap[(i/(2*PicWidthInMbs(sps)))*PicWidthInMbs(sps)+(i%PicWidthInMbs(sps))])
		}
	}
	return mbToSliceGroupMap

}
func PicWidthInMbs(sps *SPS) int {
	return int(sps.PicWidthInMBSMinus1 + 1)
}
func PicHeightInMapUnits(sps *SPS) int {
	return int(sps.PicHeightInMapUnitsMinus1 + 1)
}
func PicSizeInMapUnits(sps *SPS) int {
	return int(PicWidthInMbs(sps) * PicHeightInMapUnits(sps))
}
func FrameHeightInMbs(sps *SPS) int {
	return int((2 - flagVal(sps.FrameMBSOnlyFlag)) * PicHeightInMapUnits(sps))
}
func PicHeightInMbs(sps *SPS, header *SliceHeader) int {
	return int(FrameHeightInMbs(sps) / (1 + flagVal(header.FieldPic)))
}
func PicSizeInMbs(sps *SPS, header *SliceHeader) int {
	return int(PicWidthInMbs(sps) * PicHeightInMbs(sps, header))
}

// table 6-1
func SubWidthC(sps *SPS) int {
	n := 17
	if sps.SeparateColorPlaneFlag {
		if sps.ChromaFormatIDC == chroma444 {
			return n
		}
	}

	switch sps.ChromaFormatIDC {
	case chromaMonochrome:
		return n
	case chroma420:
		n = 2
	case chroma422:
		n = 2
	case chroma444:
		n = 1

	}
	return n
}
func SubHeightC(sps *SPS) int {
	n := 17
	if sps.SeparateColorPlaneFlag {
		if sps.ChromaFormatIDC == chroma444 {
			return n
		}
	}
	switch sps.ChromaFormatIDC {
	case chromaMonochrome:
		return n
	case chroma420:
		n = 2
	case chroma422:
		n = 1
	case chroma444:
		n = 1

	}
	return n
}

// 7-36
func CodedBlockPatternLuma(data *SliceData) int {
	if luma, _, ok := intra16x16CodedBlockPattern(data.MbTypeName); ok {
		return luma
	}
	return data.CodedBlockPattern % 16
}
func CodedBlockPatternChroma(data *SliceData) int {
	if _, chroma, ok := intra16x16CodedBlockPattern(data.MbTypeName); ok {
		return chroma
	}
	return data.CodedBlockPattern / 16
}

// intra16x16CodedBlockPattern derives CodedBlockPatternLuma/Chroma from an
// "I_16x16_<pred>_<cbpChroma>_<cbpLuma>" mb_type name per table 7-11: these
// macroblocks never carry a separately-parsed coded_block_pattern syntax
// element, it is implied entirely by mb_type.
func intra16x16CodedBlockPattern(name string) (luma, chroma int, ok bool) {
	if len(name) <= 8 || name[:8] != "I_16x16_" {
		return 0, 0, false
	}
	parts := strings.Split(name[8:], "_")
	if len(parts) != 3 {
		return 0, 0, false
	}
	chroma, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	lumaFlag, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	if lumaFlag != 0 {
		luma = 15
	}
	return luma, chroma, true
}

// dependencyId see Annex G.8.8.1
// Also G7.3.1.1 nal_unit_header_svc_extension
func DQId(nalUnit *NALUnit) int {
	return int((nalUnit.SVCExtension.DependencyID << 4)) + int(nalUnit.SVCExtension.QualityID)
}

// NumMbPart returns NumMbPart(mb_type) as defined in Annex G, page 527: the
// number of sub-macroblock partitions for the current macroblock's mb_type.
// B_Skip/B_Direct_16x16 macroblocks partition into 4 sub-macroblocks unless
// they belong to a dependent-representation SVC/MVC NAL unit (nal_unit_type
// 20) with DQId > 0, in which case the whole macroblock is one partition.
// Any other mb_type has exactly one partition at this syntax level; finer
// partitioning (8x8/8x16/16x8) is read separately via sub_mb_type.
func NumMbPart(nalUnit *NALUnit, sps *SPS, header *SliceHeader, data *SliceData) int {
	sliceType := sliceTypeMap[header.SliceType]
	mbTypeName := MbTypeName(sliceType, data.MbType)
	if mbTypeName == "B_SKIP" || mbTypeName == "B_Direct_16x16" {
		if DQId(nalUnit) == 0 && nalUnit.Type != 20 {
			return 4
		}
		return 1
	}
	return 1
}

// growMvd ensures mvd has an allocated [mbPartIdx][0] = [2]int entry,
// growing it as needed; mvd's middle dimension is always indexed 0 by this
// decoder (no sub-macroblock partitioning), and the innermost dimension
// holds the two mvd components.
func growMvd(mvd [][][]int, mbPartIdx int) [][][]int {
	for len(mvd) <= mbPartIdx {
		mvd = append(mvd, [][]int{make([]int, 2)})
	}
	return mvd
}

func MbPred(chromaArrayType int, vid *VideoStream, sliceContext *SliceContext, br *bits.BitReader, rbsp []byte) error {
	r := newFieldReader(br)

	sliceType := sliceTypeMap[sliceContext.Slice.SliceHeader.SliceType]
	mbPartPredMode, err := MbPartPredMode(sliceContext.Slice.SliceData, sliceType, sliceContext.Slice.SliceData.MbType, 0)
	if err != nil {
		return errors.Wrap(err, "could not get mbPartPredMode")
	}
	if mbPartPredMode == intra4x4 || mbPartPredMode == intra8x8 || mbPartPredMode == intra16x16 {
		if mbPartPredMode == intra4x4 {
			for luma4x4BlkIdx := 0; luma4x4BlkIdx < 16; luma4x4BlkIdx++ {
				var v int
				if vid.PPS.EntropyCodingMode == 1 {
					binarization := NewBinarization(
						"PrevIntra4x4PredModeFlag",
						sliceContext.Slice.SliceData)
					decoded, err := decodeFixedLength(sliceContext.cabac, binarization, 0)
					if err != nil {
						return errors.Wrap(err, "could not decode PrevIntra4x4PredModeFlag")
					}
					v = decoded
				} else {
					b, err := br.ReadBits(1)
					if err != nil {
						return errors.Wrap(err, "could not read PrevIntra4x4PredModeFlag")
					}
					v = int(b)
				}
				sliceContext.Slice.SliceData.PrevIntra4x4PredModeFlag = append(
					sliceContext.Slice.SliceData.PrevIntra4x4PredModeFlag,
					v)
				if sliceContext.Slice.SliceData.PrevIntra4x4PredModeFlag[luma4x4BlkIdx] == 0 {
					if vid.PPS.EntropyCodingMode == 1 {
						binarization := NewBinarization(
							"RemIntra4x4PredMode",
							sliceContext.Slice.SliceData)
						decoded, err := decodeFixedLength(sliceContext.cabac, binarization, 0)
						if err != nil {
							return errors.Wrap(err, "could not decode RemIntra4x4PredMode")
						}
						v = decoded
					} else {
						b, err := br.ReadBits(3)
						if err != nil {
							return errors.Wrap(err, "could not read RemIntra4x4PredMode")
						}
						v = int(b)
					}
					if len(sliceContext.Slice.SliceData.RemIntra4x4PredMode) < luma4x4BlkIdx {
						sliceContext.Slice.SliceData.RemIntra4x4PredMode = append(
							sliceContext.Slice.SliceData.RemIntra4x4PredMode,
							make([]int, luma4x4BlkIdx-len(sliceContext.Slice.SliceData.RemIntra4x4PredMode)+1)...)
					}
					sliceContext.Slice.SliceData.RemIntra4x4PredMode[luma4x4BlkIdx] = v
				}
			}
		}
		if mbPartPredMode == intra8x8 {
			for luma8x8BlkIdx := 0; luma8x8BlkIdx < 4; luma8x8BlkIdx++ {
				sliceContext.Update(sliceContext.Slice.SliceHeader, sliceContext.Slice.SliceData)
				var v int
				if vid.PPS.EntropyCodingMode == 1 {
					binarization := NewBinarization("PrevIntra8x8PredModeFlag", sliceContext.Slice.SliceData)
					decoded, err := decodeFixedLength(sliceContext.cabac, binarization, 0)
					if err != nil {
						return errors.Wrap(err, "could not decode PrevIntra8x8PredModeFlag")
					}
					v = decoded
				} else {
					b, err := br.ReadBits(1)
					if err != nil {
						return errors.Wrap(err, "could not read PrevIntra8x8PredModeFlag")
					}
					v = int(b)
				}
				sliceContext.Slice.SliceData.PrevIntra8x8PredModeFlag = append(
					sliceContext.Slice.SliceData.PrevIntra8x8PredModeFlag, v)
				if sliceContext.Slice.SliceData.PrevIntra8x8PredModeFlag[luma8x8BlkIdx] == 0 {
					if vid.PPS.EntropyCodingMode == 1 {
						binarization := NewBinarization(
							"RemIntra8x8PredMode",
							sliceContext.Slice.SliceData)
						decoded, err := decodeFixedLength(sliceContext.cabac, binarization, 0)
						if err != nil {
							return errors.Wrap(err, "could not decode RemIntra8x8PredMode")
						}
						v = decoded
					} else {
						b, err := br.ReadBits(3)
						if err != nil {
							return errors.Wrap(err, "could not read RemIntra8x8PredMode")
						}
						v = int(b)
					}
					if len(sliceContext.Slice.SliceData.RemIntra8x8PredMode) < luma8x8BlkIdx {
						sliceContext.Slice.SliceData.RemIntra8x8PredMode = append(
							sliceContext.Slice.SliceData.RemIntra8x8PredMode,
							make([]int, luma8x8BlkIdx-len(sliceContext.Slice.SliceData.RemIntra8x8PredMode)+1)...)
					}
					sliceContext.Slice.SliceData.RemIntra8x8PredMode[luma8x8BlkIdx] = v
				}
			}

		}
		if chromaArrayType == 1 || chromaArrayType == 2 {
			if vid.PPS.EntropyCodingMode == 1 {
				binarization := NewBinarization(
					"IntraChromaPredMode",
					sliceContext.Slice.SliceData)
				inc := CtxIdxIncIntraChromaPredMode(sliceContext.neighbours, 0, sliceContext.curMbAddr,
					func(addr int) (*mbInfo, int, bool) {
						info, ok := sliceContext.neighbours.Info(addr)
						if !ok {
							return nil, 0, false
						}
						return info, info.chromaPredMode, true
					})
				v, err := decodeUnary(sliceContext.cabac, binarization, inc)
				if err != nil {
					return errors.Wrap(err, "could not decode IntraChromaPredMode")
				}
				sliceContext.Slice.SliceData.IntraChromaPredMode = v
			} else {
				sliceContext.Slice.SliceData.IntraChromaPredMode = int(r.readUe())
			}
		}

	} else if mbPartPredMode != direct {
		for mbPartIdx := 0; mbPartIdx < NumMbPart(sliceContext.NALUnit, vid.SPS, sliceContext.Slice.SliceHeader, sliceContext.Slice.SliceData); mbPartIdx++ {
			sliceContext.Update(sliceContext.Slice.SliceHeader, sliceContext.Slice.SliceData)
			m, err := MbPartPredMode(sliceContext.Slice.SliceData, sliceType, sliceContext.Slice.SliceData.MbType, mbPartIdx)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("could not get mbPartPredMode for loop 1 mbPartIdx: %d", mbPartIdx))
			}
			if (sliceContext.Slice.SliceHeader.NumRefIdxL0ActiveMinus1 > 0 || sliceContext.Slice.SliceData.MbFieldDecodingFlag != sliceContext.Slice.SliceHeader.FieldPic) && m != predL1 {
				if len(sliceContext.Slice.SliceData.RefIdxL0) < mbPartIdx {
					sliceContext.Slice.SliceData.RefIdxL0 = append(
						sliceContext.Slice.SliceData.RefIdxL0, make([]int, mbPartIdx-len(sliceContext.Slice.SliceData.RefIdxL0)+1)...)
				}
				if vid.PPS.EntropyCodingMode == 1 {
					binarization := NewBinarization(
						"RefIdxL0",
						sliceContext.Slice.SliceData)
					inc := CtxIdxIncRefIdx(sliceContext.neighbours, 0, sliceContext.curMbAddr, 0, sliceContext.neighbours.Info)
					v, err := decodeUnary(sliceContext.cabac, binarization, inc)
					if err != nil {
						return errors.Wrap(err, "could not decode RefIdxL0")
					}
					sliceContext.Slice.SliceData.RefIdxL0[mbPartIdx] = v
				} else {
					// TODO: Only one reference picture is used for inter-prediction,
					// then the value should be 0
					if MbaffFrameFlag(vid.SPS, sliceContext.Slice.SliceHeader) == 0 || !sliceContext.Slice.SliceData.MbFieldDecodingFlag {
						sliceContext.Slice.SliceData.RefIdxL0[mbPartIdx] = int(r.readTe(uint(sliceContext.Slice.SliceHeader.NumRefIdxL0ActiveMinus1)))
					} else {
						rangeMax := 2*sliceContext.Slice.SliceHeader.NumRefIdxL0ActiveMinus1 + 1
						sliceContext.Slice.SliceData.RefIdxL0[mbPartIdx] = int(r.readTe(uint(rangeMax)))
					}
				}
			}
		}
		for mbPartIdx := 0; mbPartIdx < NumMbPart(sliceContext.NALUnit, vid.SPS, sliceContext.Slice.SliceHeader, sliceContext.Slice.SliceData); mbPartIdx++ {
			m, err := MbPartPredMode(sliceContext.Slice.SliceData, sliceType, sliceContext.Slice.SliceData.MbType, mbPartIdx)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("could not get mbPartPredMode for loop 2 mbPartIdx: %d", mbPartIdx))
			}
			if m != predL1 {
				for compIdx := 0; compIdx < 2; compIdx++ {
					sliceContext.Slice.SliceData.MvdL0 = growMvd(sliceContext.Slice.SliceData.MvdL0, mbPartIdx)
					if vid.PPS.EntropyCodingMode == 1 {
						var binName string
						if compIdx == 0 {
							binName = "MvdLnEnd0"
						} else {
							binName = "MvdLnEnd1"
						}
						binarization := NewBinarization(binName, sliceContext.Slice.SliceData)
						inc := CtxIdxIncMvd(sliceContext.neighbours, 0, sliceContext.curMbAddr, 0, compIdx, sliceContext.neighbours.Info)
						v, err := decodeUEGk(sliceContext.cabac, binarization, inc)
						if err != nil {
							return errors.Wrap(err, "could not decode MvdL0")
						}
						sliceContext.Slice.SliceData.MvdL0[mbPartIdx][0][compIdx] = v
					} else {
						sliceContext.Slice.SliceData.MvdL0[mbPartIdx][0][compIdx], _ = readSe(br)
					}
				}
			}
		}
		for mbPartIdx := 0; mbPartIdx < NumMbPart(sliceContext.NALUnit, vid.SPS, sliceContext.Slice.SliceHeader, sliceContext.Slice.SliceData); mbPartIdx++ {
			sliceContext.Update(sliceContext.Slice.SliceHeader, sliceContext.Slice.SliceData)
			m, err := MbPartPredMode(sliceContext.Slice.SliceData, sliceType, sliceContext.Slice.SliceData.MbType, mbPartIdx)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("could not get mbPartPredMode for loop 3 mbPartIdx: %d", mbPartIdx))
			}
			if m != predL0 {
				for compIdx := 0; compIdx < 2; compIdx++ {
					sliceContext.Slice.SliceData.MvdL1 = growMvd(sliceContext.Slice.SliceData.MvdL1, mbPartIdx)
					if vid.PPS.EntropyCodingMode == 1 {
						var binName string
						if compIdx == 0 {
							binName = "MvdLnEnd0"
						} else {
							binName = "MvdLnEnd1"
						}
						binarization := NewBinarization(binName, sliceContext.Slice.SliceData)
						inc := CtxIdxIncMvd(sliceContext.neighbours, 0, sliceContext.curMbAddr, 1, compIdx, sliceContext.neighbours.Info)
						v, err := decodeUEGk(sliceContext.cabac, binarization, inc)
						if err != nil {
							return errors.Wrap(err, "could not decode MvdL1")
						}
						sliceContext.Slice.SliceData.MvdL1[mbPartIdx][0][compIdx] = v
					} else {
						sliceContext.Slice.SliceData.MvdL1[mbPartIdx][0][compIdx], _ = readSe(br)
					}
				}
			}
		}
	}
	return nil
}

// 8.2.2.1
func MapUnitToSliceGroupMap(sps *SPS, pps *PPS, header *SliceHeader) []int {
	mapUnitToSliceGroupMap := []int{}
	picSizeInMapUnits := PicSizeInMapUnits(sps)
	if pps.NumSliceGroupsMinus1 == 0 {
		// 0 to PicSizeInMapUnits -1 inclusive
		for i := 0; i <= picSizeInMapUnits-1; i++ {
			mapUnitToSliceGroupMap = append(mapUnitToSliceGroupMap, 0)
		}
	} else {
		switch pps.SliceGroupMapType {
		case 0:
			// 8.2.2.1
			i := 0
			for i < picSizeInMapUnits {
				// iGroup should be incremented in the pps.RunLengthMinus1 index operation. There may be a bug here
				for iGroup := 0; iGroup <= pps.NumSliceGroupsMinus1 && i < picSizeInMapUnits; i += pps.RunLengthMinus1[iGroup+1] + 1 {
					for j := 0; j < pps.RunLengthMinus1[iGroup] && i+j < picSizeInMapUnits; j++ {
						if len(mapUnitToSliceGroupMap) < i+j {
							mapUnitToSliceGroupMap = append(
								mapUnitToSliceGroupMap,
								make([]int, (i+j)-len(mapUnitToSliceGroupMap)+1)...)
						}
						mapUnitToSliceGroupMap[i+j] = iGroup
					}
				}
			}
		case 1:
			// 8.2.2.2
			for i := 0; i < picSizeInMapUnits; i++ {
				v := ((i % PicWidthInMbs(sps)) + (((i / PicWidthInMbs(sps)) * (pps.NumSliceGroupsMinus1 + 1)) / 2)) % (pps.NumSliceGroupsMinus1 + 1)
				mapUnitToSliceGroupMap = append(mapUnitToSliceGroupMap, v)
			}
		case 2:
			// 8.2.2.3
			for i := 0; i < picSizeInMapUnits; i++ {
				mapUnitToSliceGroupMap = append(mapUnitToSliceGroupMap, pps.NumSliceGroupsMinus1)
			}
			for iGroup := pps.NumSliceGroupsMinus1 - 1; iGroup >= 0; iGroup-- {
				yTopLeft := pps.TopLeft[iGroup] / PicWidthInMbs(sps)
				xTopLeft := pps.TopLeft[iGroup] % PicWidthInMbs(sps)
				yBottomRight := pps.BottomRight[iGroup] / PicWidthInMbs(sps)
				xBottomRight := pps.BottomRight[iGroup] % PicWidthInMbs(sps)
				for y := yTopLeft; y <= yBottomRight; y++ {
					for x := xTopLeft; x <= xBottomRight; x++ {
						idx := y*PicWidthInMbs(sps) + x
						if len(mapUnitToSliceGroupMap) < idx {
							mapUnitToSliceGroupMap = append(
								mapUnitToSliceGroupMap,
								make([]int, idx-len(mapUnitToSliceGroupMap)+1)...)
							mapUnitToSliceGroupMap[idx] = iGroup
						}
					}
				}
			}

		case 3:
			// 8.2.2.4
			// TODO
		case 4:
			// 8.2.2.5
			// TODO
		case 5:
			// 8.2.2.6
			// TODO
		case 6:
			// 8.2.2.7
			// TODO
		}
	}
	// 8.2.2.8
	// Convert mapUnitToSliceGroupMap to MbToSliceGroupMap
	return mapUnitToSliceGroupMap
}
func nextMbAddress(n int, sps *SPS, pps *PPS, header *SliceHeader) int {
	i := n + 1
	// picSizeInMbs is the number of macroblocks in picture 0
	// 7-13
	// PicWidthInMbs = sps.PicWidthInMBSMinus1 + 1
	// PicHeightInMapUnits = sps.PicHeightInMapUnitsMinus1 + 1
	// 7-29
	// picSizeInMbs = PicWidthInMbs * PicHeightInMbs
	// 7-26
	// PicHeightInMbs = FrameHeightInMbs / (1 + header.fieldPicFlag)
	// 7-18
	// FrameHeightInMbs = (2 - ps.FrameMBSOnlyFlag) * PicHeightInMapUnits
	picWidthInMbs := sps.PicWidthInMBSMinus1 + 1
	picHeightInMapUnits := sps.PicHeightInMapUnitsMinus1 + 1
	frameHeightInMbs := (2 - flagVal(sps.FrameMBSOnlyFlag)) * int(picHeightInMapUnits)
	picHeightInMbs := frameHeightInMbs / (1 + flagVal(header.FieldPic))
	picSizeInMbs := int(picWidthInMbs) * picHeightInMbs
	mbToSliceGroupMap := MbToSliceGroupMap(sps, pps, header)
	for i < picSizeInMbs && mbToSliceGroupMap[i] != mbToSliceGroupMap[n] {
		i++
	}
	return i
}

func CurrMbAddr(sps *SPS, header *SliceHeader) int {
	mbaffFrameFlag := 0
	if sps.MBAdaptiveFrameFieldFlag && !header.FieldPic {
		mbaffFrameFlag = 1
	}

	return header.FirstMbInSlice * (1 * mbaffFrameFlag)
}

func MbaffFrameFlag(sps *SPS, header *SliceHeader) int {
	if sps.MBAdaptiveFrameFieldFlag && !header.FieldPic {
		return 1
	}
	return 0
}

func NewSliceData(chromaArrayType int, vid *VideoStream, sliceContext *SliceContext, br *bits.BitReader) (*SliceData, error) {
	r := newFieldReader(br)
	sliceContext.Slice.SliceData = &SliceData{BitReader: br}
	sliceContext.chromaArrayType = chromaArrayType
	// 7.4.5/eq 7-25: SliceQPY is the starting QPY for the slice; each
	// macroblock's mb_qp_delta adjusts it from there.
	sliceContext.curQPY = 26 + vid.PPS.PicInitQpMinus26 + sliceContext.Slice.SliceHeader.SliceQpDelta
	if vid.PPS.EntropyCodingMode == 1 {
		for !br.ByteAligned() {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, errors.Wrap(err, "could not read CabacAlignmentOneBit")
			}
			sliceContext.Slice.SliceData.CabacAlignmentOneBit = int(b)
		}
		// 9.3.1: the engine and its context variables are initialized
		// once per slice, not per syntax element.
		cabac, err := NewCABACEngine(br)
		if err != nil {
			return nil, errors.Wrap(err, "could not initialize CABAC engine")
		}
		sliceContext.cabac = cabac
	}
	// The neighbour-availability oracle (6.4) is also consulted by CAVLC's
	// residual parsing (parseTotalCoeffAndTrailingOnes' nC derivation), so
	// it is built regardless of entropy_coding_mode_flag.
	sliceContext.neighbours = NewNeighbours(
		PicWidthInMbs(vid.SPS),
		PicHeightInMbs(vid.SPS, sliceContext.Slice.SliceHeader),
		vid.SPS.MBAdaptiveFrameFieldFlag && !sliceContext.Slice.SliceHeader.FieldPic,
		vid.PPS.ConstrainedIntraPred)
	mbaffFrameFlag := 0
	if vid.SPS.MBAdaptiveFrameFieldFlag && !sliceContext.Slice.SliceHeader.FieldPic {
		mbaffFrameFlag = 1
	}
	currMbAddr := sliceContext.Slice.SliceHeader.FirstMbInSlice * (1 * mbaffFrameFlag)

	moreDataFlag := true
	prevMbSkipped := 0
	sliceContext.Slice.SliceData.SliceTypeName = sliceTypeMap[sliceContext.Slice.SliceHeader.SliceType]
	sliceContext.Slice.SliceData.MbTypeName = MbTypeName(sliceContext.Slice.SliceData.SliceTypeName, sliceContext.Slice.SliceData.MbType)
	logger.Printf("debug: \tSliceData: Processing moreData: %v\n", moreDataFlag)
	for moreDataFlag {
		sliceContext.curMbAddr = currMbAddr
		logger.Printf("debug: \tLooking for more sliceContext.Slice.SliceData in slice type %s\n", sliceContext.Slice.SliceData.SliceTypeName)
		if sliceContext.Slice.SliceData.SliceTypeName != "I" && sliceContext.Slice.SliceData.SliceTypeName != "SI" {
			logger.Printf("debug: \tNonI/SI slice, processing moreData\n")
			if vid.PPS.EntropyCodingMode == 0 {
				sliceContext.Slice.SliceData.MbSkipRun = int(r.readUe())

				if sliceContext.Slice.SliceData.MbSkipRun > 0 {
					prevMbSkipped = 1
				}
				for i := 0; i < sliceContext.Slice.SliceData.MbSkipRun; i++ {
					// nextMbAddress(currMbAdd
					currMbAddr = nextMbAddress(currMbAddr, vid.SPS, vid.PPS, sliceContext.Slice.SliceHeader)
				}
				if sliceContext.Slice.SliceData.MbSkipRun > 0 {
					moreDataFlag = moreRBSPData(br)
				}
			} else {
				binarization := NewBinarization("MbSkipFlag", sliceContext.Slice.SliceData)
				inc := CtxIdxIncMbSkipFlag(sliceContext.neighbours, 0, currMbAddr, sliceContext.neighbours.Info)
				v, err := decodeFixedLength(sliceContext.cabac, binarization, inc)
				if err != nil {
					return nil, errors.Wrap(err, "could not decode MbSkipFlag")
				}
				sliceContext.Slice.SliceData.MbSkipFlag = v == 1
				if sliceContext.Slice.SliceData.MbSkipFlag {
					sliceContext.neighbours.MarkDecoded(currMbAddr, 0)
					sliceContext.neighbours.Record(currMbAddr, &mbInfo{addr: currMbAddr, skipped: true})
				}

				moreDataFlag = !sliceContext.Slice.SliceData.MbSkipFlag
			}
		}
		if moreDataFlag {
			if mbaffFrameFlag == 1 && (currMbAddr%2 == 0 || (currMbAddr%2 == 1 && prevMbSkipped == 1)) {
				if vid.PPS.EntropyCodingMode == 1 {
					binarization := NewBinarization("MbFieldDecodingFlag", sliceContext.Slice.SliceData)
					inc := CtxIdxIncMbFieldDecodingFlag(sliceContext.neighbours, 0, currMbAddr, sliceContext.neighbours.Info)
					v, err := decodeFixedLength(sliceContext.cabac, binarization, inc)
					if err != nil {
						return nil, errors.Wrap(err, "could not decode MbFieldDecodingFlag")
					}
					sliceContext.Slice.SliceData.MbFieldDecodingFlag = v == 1
				} else {
					b, err := br.ReadBits(1)
					if err != nil {
						return nil, errors.Wrap(err, "could not read MbFieldDecodingFlag")
					}
					sliceContext.Slice.SliceData.MbFieldDecodingFlag = b == 1
				}
			}

			// BEGIN: macroblockLayer()
			if vid.PPS.EntropyCodingMode == 1 {
				binarization := NewBinarization("MbType", sliceContext.Slice.SliceData)
				mbType, err := DecodeMbTypeValue(sliceContext.cabac, binarization, sliceContext.Slice.SliceData.SliceTypeName, 0)
				if err != nil {
					return nil, errors.Wrap(err, "could not decode MbType")
				}
				sliceContext.Slice.SliceData.MbType = mbType
			} else {
				sliceContext.Slice.SliceData.MbType = int(r.readUe())
			}
			sliceContext.Slice.SliceData.MbTypeName = MbTypeName(sliceContext.Slice.SliceData.SliceTypeName, sliceContext.Slice.SliceData.MbType)
			if sliceContext.Slice.SliceData.MbTypeName == "I_PCM" {
				for !br.ByteAligned() {
					_, err := br.ReadBits(1)
					if err != nil {
						return nil, errors.Wrap(err, "could not read PCMAlignmentZeroBit")
					}
				}
				// 7-3 p95
				bitDepthY := 8 + vid.SPS.BitDepthLumaMinus8
				for i := 0; i < 256; i++ {
					s, err := br.ReadBits(int(bitDepthY))
					if err != nil {
						return nil, errors.Wrap(err, fmt.Sprintf("could not read PcmSampleLuma[%d]", i))
					}
					sliceContext.Slice.SliceData.PcmSampleLuma = append(
						sliceContext.Slice.SliceData.PcmSampleLuma,
						int(s))
				}
				// 6-1 p 47
				mbWidthC := 16 / SubWidthC(vid.SPS)
				mbHeightC := 16 / SubHeightC(vid.SPS)
				// if monochrome
				if vid.SPS.ChromaFormatIDC == chromaMonochrome || vid.SPS.SeparateColorPlaneFlag {
					mbWidthC = 0
					mbHeightC = 0
				}

				bitDepthC := 8 + vid.SPS.BitDepthChromaMinus8
				for i := 0; i < 2*mbWidthC*mbHeightC; i++ {
					s, err := br.ReadBits(int(bitDepthC))
					if err != nil {
						return nil, errors.Wrap(err, fmt.Sprintf("could not read PcmSampleChroma[%d]", i))
					}
					sliceContext.Slice.SliceData.PcmSampleChroma = append(
						sliceContext.Slice.SliceData.PcmSampleChroma,
						int(s))
				}
			} else {
				noSubMbPartSizeLessThan8x8Flag := 1
				m, err := MbPartPredMode(sliceContext.Slice.SliceData, sliceContext.Slice.SliceData.SliceTypeName, sliceContext.Slice.SliceData.MbType, 0)
				if err != nil {
					return nil, errors.Wrap(err, "could not get mbPartPredMode")
				}
				if sliceContext.Slice.SliceData.MbTypeName == "I_NxN" && m != intra16x16 && NumMbPart(sliceContext.NALUnit, vid.SPS, sliceContext.Slice.SliceHeader, sliceContext.Slice.SliceData) == 4 {
					logger.Printf("\tTODO: subMbPred\n")
					/*
						subMbType := SubMbPred(sliceContext.Slice.SliceData.MbType)
						for mbPartIdx := 0; mbPartIdx < 4; mbPartIdx++ {
							if subMbType[mbPartIdx] != "B_Direct_8x8" {
								if NumbSubMbPart(subMbType[mbPartIdx]) > 1 {
									noSubMbPartSizeLessThan8x8Flag = 0
								}
							} else if !vid.SPS.Direct8x8InferenceFlag {
								noSubMbPartSizeLessThan8x8Flag = 0
							}
						}
					*/
				} else {
					if vid.PPS.Transform8x8Mode == 1 && sliceContext.Slice.SliceData.MbTypeName == "I_NxN" {
						if vid.PPS.EntropyCodingMode == 1 {
							binarization := NewBinarization("TransformSize8x8Flag", sliceContext.Slice.SliceData)
							inc := CtxIdxIncTransformSize8x8Flag(sliceContext.neighbours, 0, sliceContext.curMbAddr, sliceContext.neighbours.Info)
							v, err := decodeFixedLength(sliceContext.cabac, binarization, inc)
							if err != nil {
								return nil, errors.Wrap(err, "could not decode TransformSize8x8Flag")
							}
							sliceContext.Slice.SliceData.TransformSize8x8Flag = v == 1
						} else {
							b, err := br.ReadBits(1)
							if err != nil {
								return nil, errors.Wrap(err, "could not read TransformSize8x8Flag")
							}
							sliceContext.Slice.SliceData.TransformSize8x8Flag = b == 1
						}
					}
					if err := MbPred(chromaArrayType, vid, sliceContext, br, nil); err != nil {
						return nil, errors.Wrap(err, "could not decode MbPred")
					}
				}
				m, err = MbPartPredMode(sliceContext.Slice.SliceData, sliceContext.Slice.SliceData.SliceTypeName, sliceContext.Slice.SliceData.MbType, 0)
				if err != nil {
					return nil, errors.Wrap(err, "could not get mbPartPredMode")
				}
				if m != intra16x16 {
					if vid.PPS.EntropyCodingMode == 1 {
						binarization := NewBinarization("CodedBlockPattern", sliceContext.Slice.SliceData)
						cbp, err := DecodeCodedBlockPattern(sliceContext.cabac, binarization, sliceContext.neighbours,
							sliceContext.curMbAddr, chromaArrayType, sliceContext.neighbours.Info)
						if err != nil {
							return nil, errors.Wrap(err, "could not decode CodedBlockPattern")
						}
						sliceContext.Slice.SliceData.CodedBlockPattern = cbp
					} else {
						me, _ := readMe(
							br,
							uint(chromaArrayType),
							// TODO: fix this
							//MbPartPredMode(sliceContext.Slice.SliceData, sliceContext.Slice.SliceData.SliceTypeName, sliceContext.Slice.SliceData.MbType, 0)))
							0)
						sliceContext.Slice.SliceData.CodedBlockPattern = int(me)
					}

					// sliceContext.Slice.SliceData.CodedBlockPattern = me(v) | ae(v)
					if CodedBlockPatternLuma(sliceContext.Slice.SliceData) > 0 && vid.PPS.Transform8x8Mode == 1 && sliceContext.Slice.SliceData.MbTypeName != "I_NxN" && noSubMbPartSizeLessThan8x8Flag == 1 && (sliceContext.Slice.SliceData.MbTypeName != "B_Direct_16x16" || vid.SPS.Direct8x8InferenceFlag) {
						if vid.PPS.EntropyCodingMode == 1 {
							binarization := NewBinarization("TransformSize8x8Flag", sliceContext.Slice.SliceData)
							inc := CtxIdxIncTransformSize8x8Flag(sliceContext.neighbours, 0, sliceContext.curMbAddr, sliceContext.neighbours.Info)
							v, err := decodeFixedLength(sliceContext.cabac, binarization, inc)
							if err != nil {
								return nil, errors.Wrap(err, "could not decode TransformSize8x8Flag")
							}
							sliceContext.Slice.SliceData.TransformSize8x8Flag = v == 1
						} else {
							b, err := br.ReadBits(1)
							if err != nil {
								return nil, errors.Wrap(err, "coult not read TransformSize8x8Flag")
							}
							sliceContext.Slice.SliceData.TransformSize8x8Flag = b == 1
						}
					}
				}
				m, err = MbPartPredMode(sliceContext.Slice.SliceData, sliceContext.Slice.SliceData.SliceTypeName, sliceContext.Slice.SliceData.MbType, 0)
				if err != nil {
					return nil, errors.Wrap(err, "could not get mbPartPredMode")
				}
				if CodedBlockPatternLuma(sliceContext.Slice.SliceData) > 0 || CodedBlockPatternChroma(sliceContext.Slice.SliceData) > 0 || m == intra16x16 {
					if vid.PPS.EntropyCodingMode == 1 {
						binarization := NewBinarization("MbQpDelta", sliceContext.Slice.SliceData)
						v, err := sliceContext.cabac.DecodeMbQpDelta(binarization)
						if err != nil {
							return nil, errors.Wrap(err, "could not decode MbQpDelta")
						}
						sliceContext.Slice.SliceData.MbQpDelta = v
					} else {
						sliceContext.Slice.SliceData.MbQpDelta, _ = readSe(br)
					}

				}
				// eq 7-25/8-263: QPY derived from the previous macroblock's
				// (or the slice's) QPY plus this macroblock's mb_qp_delta.
				qpBdOffsetY := 6 * int(vid.SPS.BitDepthLumaMinus8)
				sliceContext.curQPY = ((sliceContext.curQPY+sliceContext.Slice.SliceData.MbQpDelta+52+2*qpBdOffsetY)%(52+qpBdOffsetY) - qpBdOffsetY)
				if vid.PPS.EntropyCodingMode == 0 {
					if err := decodeResidualCAVLC(vid, sliceContext, br, m); err != nil {
						return nil, errors.Wrap(err, "could not decode residual")
					}
				}
			}
		} // END MacroblockLayer
		if !sliceContext.Slice.SliceData.MbSkipFlag {
			name := sliceContext.Slice.SliceData.MbTypeName
			isIntra := name == "I_NxN" || name == "I_PCM" || (len(name) > 8 && name[:8] == "I_16x16_")
			info := &mbInfo{
				addr:           currMbAddr,
				isIntra:        isIntra,
				isIPCM:         name == "I_PCM",
				fieldDecoding:  sliceContext.Slice.SliceData.MbFieldDecodingFlag,
				cbpLuma:        CodedBlockPatternLuma(sliceContext.Slice.SliceData),
				cbpChroma:      CodedBlockPatternChroma(sliceContext.Slice.SliceData),
				chromaPredMode: sliceContext.Slice.SliceData.IntraChromaPredMode,
				transform8x8:   sliceContext.Slice.SliceData.TransformSize8x8Flag,
			}
			if len(sliceContext.Slice.SliceData.RefIdxL0) > 0 {
				info.refIdx[0][0] = sliceContext.Slice.SliceData.RefIdxL0[0]
			}
			if len(sliceContext.Slice.SliceData.RefIdxL1) > 0 {
				info.refIdx[1][0] = sliceContext.Slice.SliceData.RefIdxL1[0]
			}
			if len(sliceContext.Slice.SliceData.MvdL0) > 0 && len(sliceContext.Slice.SliceData.MvdL0[0]) > 0 {
				copy(info.mvd[0][0][:], sliceContext.Slice.SliceData.MvdL0[0][0])
			}
			if len(sliceContext.Slice.SliceData.MvdL1) > 0 && len(sliceContext.Slice.SliceData.MvdL1[0]) > 0 {
				copy(info.mvd[1][0][:], sliceContext.Slice.SliceData.MvdL1[0][0])
			}
			sliceContext.neighbours.MarkDecoded(currMbAddr, 0)
			sliceContext.neighbours.Record(currMbAddr, info)
		}
		if vid.PPS.EntropyCodingMode == 0 {
			moreDataFlag = moreRBSPData(br)
		} else {
			if sliceContext.Slice.SliceData.SliceTypeName != "I" && sliceContext.Slice.SliceData.SliceTypeName != "SI" {
				if sliceContext.Slice.SliceData.MbSkipFlag {
					prevMbSkipped = 1
				} else {
					prevMbSkipped = 0
				}
			}
			if mbaffFrameFlag == 1 && currMbAddr%2 == 0 {
				moreDataFlag = true
			} else {
				v, err := sliceContext.cabac.DecodeTerminateBin()
				if err != nil {
					return nil, errors.Wrap(err, "could not decode EndOfSliceFlag")
				}
				sliceContext.Slice.SliceData.EndOfSliceFlag = v == 1
				moreDataFlag = !sliceContext.Slice.SliceData.EndOfSliceFlag
			}
		}
		currMbAddr = nextMbAddress(currMbAddr, vid.SPS, vid.PPS, sliceContext.Slice.SliceHeader)
	} // END while moreDataFlag
	return sliceContext.Slice.SliceData, nil
}

func (c *SliceContext) Update(header *SliceHeader, data *SliceData) {
	c.Slice = &Slice{SliceHeader: header, SliceData: data}
}
func NewSliceContext(vid *VideoStream, nalUnit *NALUnit, rbsp []byte, showPacket bool) (*SliceContext, error) {
	var err error
	sps := vid.SPS
	pps := vid.PPS
	logger.Printf("debug: %s RBSP %d bytes %d bits == \n", NALUnitType[int(nalUnit.Type)], len(rbsp), len(rbsp)*8)
	logger.Printf("debug: \t%#v\n", rbsp[0:8])
	var idrPic bool
	if nalUnit.Type == 5 {
		idrPic = true
	}
	header := SliceHeader{}
	if sps.SeparateColorPlaneFlag {
		vid.ChromaArrayType = 0
	} else {
		vid.ChromaArrayType = int(sps.ChromaFormatIDC)
	}
	br := bits.NewBitReader(bytes.NewReader(rbsp))
	r := newFieldReader(br)

	header.FirstMbInSlice = int(r.readUe())
	header.SliceType = int(r.readUe())

	sliceType := sliceTypeMap[header.SliceType]
	logger.Printf("debug: %s (%s) slice of %d bytes\n", NALUnitType[int(nalUnit.Type)], sliceType, len(rbsp))
	header.PPSID = int(r.readUe())
	if sps.SeparateColorPlaneFlag {
		b, err := br.ReadBits(2)
		if err != nil {
			return nil, errors.Wrap(err, "could not read ColorPlaneID")
		}
		header.ColorPlaneID = int(b)
	}
	frameNum, err := br.ReadBits(int(sps.Log2MaxFrameNumMinus4 + 4))
	if err != nil {
		return nil, errors.Wrap(err, "could not read FrameNum")
	}
	header.FrameNum = int(frameNum)
	if !sps.FrameMBSOnlyFlag {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errors.Wrap(err, "could not read FieldPic")
		}
		header.FieldPic = b == 1
		if header.FieldPic {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, errors.Wrap(err, "could not read BottomField")
			}
			header.BottomField = b == 1
		}
	}
	if idrPic {
		header.IDRPicID = int(r.readUe())
	}
	if sps.PicOrderCountType == 0 {
		b, err := br.ReadBits(int(sps.Log2MaxPicOrderCntLSBMin4 + 4))
		if err != nil {
			return nil, errors.Wrap(err, "could not read PicOrderCntLsb")
		}
		header.PicOrderCntLsb = int(b)

		if pps.BottomFieldPicOrderInFramePresent && !header.FieldPic {
			header.DeltaPicOrderCntBottom, err = readSe(br)
			if err != nil {
				return nil, errors.Wrap(err, "could not parse DeltaPicOrderCntBottom")
			}
		}
	}
	if sps.PicOrderCountType == 1 && !sps.DeltaPicOrderAlwaysZeroFlag {
		header.DeltaPicOrderCnt[0], err = readSe(br)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse DeltaPicOrderCnt")
		}

		if pps.BottomFieldPicOrderInFramePresent && !header.FieldPic {
			header.DeltaPicOrderCnt[1], err = readSe(br)
			if err != nil {
				return nil, errors.Wrap(err, "could not parse DeltaPicOrderCnt")
			}
		}
	}
	if pps.RedundantPicCntPresent {
		header.RedundantPicCnt = int(r.readUe())
	}
	if sliceType == "B" {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errors.Wrap(err, "could not read DirectSpatialMvPred")
		}
		header.DirectSpatialMvPred = b == 1
	}
	if sliceType == "B" || sliceType == "SP" {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errors.Wrap(err, "could not read NumRefIdxActiveOverride")
		}
		header.NumRefIdxActiveOverride = b == 1

		if header.NumRefIdxActiveOverride {
			header.NumRefIdxL0ActiveMinus1 = int(r.readUe())
			if sliceType == "B" {
				header.NumRefIdxL1ActiveMinus1 = int(r.readUe())
			}
		}
	}

	if nalUnit.Type == 20 || nalUnit.Type == 21 {
		// Annex H
		// H.7.3.3.1.1
		// refPicListMvcModifications()
	} else {
		header.RefPicListModification, err = NewRefPicListModification(br, pps, &header)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse RefPicListModification")
		}
	}

	if (pps.WeightedPred && (sliceType == "P" || sliceType == "SP")) || (pps.WeightedBipred == 1 && sliceType == "B") {
		header.PredWeightTable, err = NewPredWeightTable(br, &header, vid.ChromaArrayType)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse PredWeightTable")
		}
	}
	if nalUnit.RefIdc != 0 {
		// devRefPicMarking()
		header.DecRefPicMarking, err = NewDecRefPicMarking(br, idrPic)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse DecRefPicMarking")
		}
	}
	if pps.EntropyCodingMode == 1 && sliceType != "I" && sliceType != "SI" {
		header.CabacInit = int(r.readUe())
	}
	header.SliceQpDelta = int(r.readSe())

	if sliceType == "SP" || sliceType == "SI" {
		if sliceType == "SP" {
			header.SpForSwitch = r.readBits(1) == 1
		}
		header.SliceQsDelta = int(r.readSe())
	}
	if pps.DeblockingFilterControlPresent {
		header.DisableDeblockingFilter = int(r.readUe())
		if header.DisableDeblockingFilter != 1 {
			header.SliceAlphaC0OffsetDiv2, err = readSe(br)
			if err != nil {
				return nil, errors.Wrap(err, "could not parse SliceAlphaC0OffsetDiv2")
			}

			header.SliceBetaOffsetDiv2, err = readSe(br)
			if err != nil {
				return nil, errors.Wrap(err, "could not parse SliceBetaOffsetDiv2")
			}
		}
	}
	if pps.NumSliceGroupsMinus1 > 0 && pps.SliceGroupMapType >= 3 && pps.SliceGroupMapType <= 5 {
		b, err := br.ReadBits(int(math.Ceil(math.Log2(float64(pps.PicSizeInMapUnitsMinus1/pps.SliceGroupChangeRateMinus1 + 1)))))
		if err != nil {
			return nil, errors.Wrap(err, "could not read SliceGruopChangeCycle")
		}
		header.SliceGroupChangeCycle = int(b)
	}

	sliceContext := &SliceContext{
		NALUnit: nalUnit,
		Slice: &Slice{
			SliceHeader: &header,
		},
	}
	sliceContext.Slice.SliceData, err = NewSliceData(vid.ChromaArrayType, vid, sliceContext, br)
	if err != nil {
		return nil, errors.Wrap(err, "could not create slice data")
	}

	return sliceContext, nil
}
