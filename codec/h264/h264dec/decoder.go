/*
DESCRIPTION
  decoder.go exposes the package's external entry point: a Decoder that
  consumes one de-emulated NAL unit at a time and returns any pictures the
  decoded picture buffer has bumped as a result, per section 6 of the
  specifications.

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
	"bytes"

	"github.com/luuvish/h264dec/codec/h264/h264dec/bits"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config carries the decoder's construction-time options.
type Config struct {
	// Logger receives debug output; a nil Logger disables logging.
	Logger *zap.Logger

	// Concealment is the policy the Decoder holds; a nil Concealment
	// defaults to NopConcealment. Decode does not call it: a slice that
	// cannot be reconstructed is returned as an error.
	Concealment ConcealmentPolicy

	// MaxNumRefFramesOverride, when non-zero, overrides the DPB size
	// implied by the active SPS's max_num_ref_frames; intended for
	// conformance testing against streams with unusual timing.
	MaxNumRefFramesOverride int
}

// Decoder holds the parameter-set and DPB state threaded across NAL units
// of one coded video sequence. It is not safe for concurrent use; see
// SPEC_FULL.md's concurrency model for why (parameter-set updates and POC
// derivation are both sequential, cross-picture state machines).
type Decoder struct {
	cfg Config

	spsByID map[uint64]*SPS
	ppsByID map[int]*PPS

	vid *VideoStream
	dpb *DPB

	concealment ConcealmentPolicy

	lastSliceNALType int
}

// NewDecoder constructs a Decoder ready to accept NAL units.
func NewDecoder(cfg Config) *Decoder {
	SetLogger(cfg.Logger)

	concealment := cfg.Concealment
	if concealment == nil {
		concealment = NopConcealment{}
	}

	return &Decoder{
		cfg:              cfg,
		spsByID:          make(map[uint64]*SPS),
		ppsByID:          make(map[int]*PPS),
		vid:              &VideoStream{},
		concealment:      concealment,
		lastSliceNALType: -1,
	}
}

// Decode consumes one NAL unit's RBSP (already de-emulated; see
// codec/h264.Trim) and returns any pictures the DPB's bumping process
// released as a result. Most calls return no pictures: a typical access
// unit only triggers output once enough later pictures have arrived to
// resolve display order.
func (d *Decoder) Decode(nal []byte) ([]*StorablePicture, error) {
	if len(nal) == 0 {
		return nil, WrapDecodeError(ErrBitstreamUnderflow, ComponentBitReader, -1, -1, errors.New("empty NAL unit"))
	}

	br := bits.NewBitReader(bytes.NewReader(nal))
	nalUnit, err := NewNALUnit(br)
	if err != nil {
		return nil, WrapDecodeError(ErrBitstreamUnderflow, ComponentBitReader, -1, 0, err)
	}

	switch int(nalUnit.Type) {
	case NALTypeSPS:
		sps, err := NewSPS(nalUnit.RBSP, false)
		if err != nil {
			return nil, WrapDecodeError(ErrInvalidParameterSet, ComponentParamSet, int(nalUnit.Type), 0, err)
		}
		d.spsByID[sps.SPSID] = sps
		d.vid.SPS = sps
		return nil, nil

	case NALTypePPS:
		// The PPS syntax needs chroma_format_idc from its referenced SPS to
		// size scaling-list arrays (7.3.2.2); without having parsed any SPS
		// yet, default to 4:2:0 and accept the imprecision, per DESIGN.md's
		// open-question 4.
		chromaFormat := 1
		for _, sps := range d.spsByID {
			chromaFormat = int(sps.ChromaFormatIDC)
			break
		}
		ppsBr := bits.NewBitReader(bytes.NewReader(nalUnit.RBSP))
		pps, err := NewPPS(ppsBr, chromaFormat)
		if err != nil {
			return nil, WrapDecodeError(ErrInvalidParameterSet, ComponentParamSet, int(nalUnit.Type), 0, err)
		}
		d.ppsByID[pps.ID] = pps
		d.vid.PPS = pps
		return nil, nil

	case NALTypeIDR, NALTypeNonIDR:
		return d.decodeSlice(nalUnit, nalUnit.RBSP)

	case NALTypeSEI, NALTypeAccessUnitDelimiter:
		return nil, nil

	default:
		return nil, nil
	}
}

func (d *Decoder) decodeSlice(nalUnit *NALUnit, rbsp []byte) ([]*StorablePicture, error) {
	if len(d.ppsByID) == 0 || len(d.spsByID) == 0 {
		return nil, WrapDecodeError(ErrInvalidParameterSet, ComponentSliceHeader, int(nalUnit.Type), 0,
			errors.New("slice arrived before any SPS/PPS"))
	}

	// A full PPS-ID lookup requires peeking first_mb_in_slice/slice_type/
	// pic_parameter_set_id from the slice header itself; NewSliceContext
	// does this internally against vid.SPS/vid.PPS, so d.vid.SPS/d.vid.PPS
	// (kept up to date as each parameter set is parsed, see Decode) stand
	// in as the most-recently-parsed pair, consistent with this decoder's
	// single-sequence scope (SPEC_FULL.md §1 Non-goals).
	if d.vid.SPS == nil || d.vid.PPS == nil {
		return nil, WrapDecodeError(ErrInvalidParameterSet, ComponentSliceHeader, int(nalUnit.Type), 0,
			errors.New("no active SPS/PPS pair"))
	}

	if d.dpb == nil {
		maxRef := int(d.vid.SPS.MaxNumRefFrames)
		if d.cfg.MaxNumRefFramesOverride > 0 {
			maxRef = d.cfg.MaxNumRefFramesOverride
		}
		d.dpb = NewDPB(maxRef)
	}

	ctx, err := NewSliceContext(d.vid, nalUnit, rbsp, false)
	if err != nil {
		return nil, WrapDecodeError(ErrSliceLoss, ComponentSliceHeader, int(nalUnit.Type), 0, err)
	}

	if err := decode(d.vid, ctx); err != nil {
		return nil, WrapDecodeError(ErrSyntaxViolation, ComponentSliceHeader, int(nalUnit.Type), 0, err)
	}

	pic := d.buildStorablePicture(nalUnit, ctx)
	if err := d.reconstructPicture(pic, ctx); err != nil {
		return nil, WrapDecodeError(ErrSyntaxViolation, ComponentResidual, int(nalUnit.Type), 0, err)
	}
	d.dpb.StoreCurrent(pic)

	if ctx.DecRefPicMarking != nil {
		ops := convertMMCO(ctx.DecRefPicMarking)
		if len(ops) > 0 {
			if err := d.dpb.ApplyMMCO(ops, ctx.FrameNum, d.vid.maxFrameNum()); err != nil {
				return nil, multierr.Append(nil, WrapDecodeError(ErrSyntaxViolation, ComponentDPB, int(nalUnit.Type), 0, err))
			}
		}
	}

	var out []*StorablePicture
	for d.dpbOverCapacity() {
		p := d.dpb.Bump()
		if p == nil {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *Decoder) dpbOverCapacity() bool {
	return len(d.dpb.frames) > d.dpb.maxSize
}

func (d *Decoder) buildStorablePicture(nalUnit *NALUnit, ctx *SliceContext) *StorablePicture {
	ref := unusedForReference
	if nalUnit.RefIdc != 0 {
		ref = shortTermReference
	}
	return &StorablePicture{
		FrameNum:    ctx.FrameNum,
		TopPOC:      d.vid.topFieldOrderCnt,
		BottomPOC:   d.vid.bottomFieldOrderCnt,
		IsReference: ref,
		IsIDR:       nalUnit.Type == NALTypeIDR,
		Width:       int(d.vid.SPS.PicWidthInMBSMinus1+1) * 16,
		Height:      int(d.vid.SPS.PicHeightInMapUnitsMinus1+1) * 16,
	}
}

// convertMMCO translates a parsed dec_ref_pic_marking syntax structure into
// the DPB's MMCO operand list.
func convertMMCO(m *DecRefPicMarking) []MMCO {
	var ops []MMCO
	for _, e := range m.elements {
		op := MMCO{Op: e.MemoryManagementControlOperation}
		switch op.Op {
		case 1:
			op.DifferenceOfPicNums = e.DifferenceOfPicNumsMinus1
		case 2:
			op.LongTermPicNum = e.LongTermPicNum
		case 3:
			op.DifferenceOfPicNums = e.DifferenceOfPicNumsMinus1
			op.LongTermFrameIdx = e.LongTermFrameIdx
		case 4:
			op.MaxLongTermFrameIdx = e.MaxLongTermFrameIdxPlus1 - 1
		case 6:
			op.LongTermFrameIdx = e.LongTermFrameIdx
		}
		ops = append(ops, op)
	}
	return ops
}
