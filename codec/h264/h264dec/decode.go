/*
DESCRIPTION
  decode.go provides picture-order-count derivation for slice decoding, per
  section 8.2.1 of the specifications.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package h264dec provides a decoder for h264 frames.
package h264dec

import (
	"errors"
	"fmt"
)

// prevPOCState carries the (prevPicOrderCntMsb, prevPicOrderCntLsb,
// prevFrameNum, prevFrameNumOffset) state that section 8.2.1 threads from
// one picture to the next across a coded video sequence.
type prevPOCState struct {
	picOrderCntMsb int
	picOrderCntLsb int
	frameNum       int
	frameNumOffset int
	set            bool
}

// decode derives topFieldOrderCnt/bottomFieldOrderCnt for the picture
// described by ctx and folds the MMCO-5 adjustment from 8.2.1's final step.
func decode(vid *VideoStream, ctx *SliceContext) error {
	var err error
	vid.topFieldOrderCnt, vid.bottomFieldOrderCnt, err = decodePicOrderCnt(vid, ctx)
	if err != nil {
		return fmt.Errorf("could not derive topFieldOrderCnt and bottomFieldOrderCnt, failed with error: %w", err)
	}

	// According to 8.2.1 after decoding picture.
	if ctx.DecRefPicMarking != nil && len(ctx.elements) > 0 && ctx.elements[0].MemoryManagementControlOperation == 5 {
		tempPicOrderCnt := picOrderCnt(vid, ctx)
		vid.topFieldOrderCnt = vid.topFieldOrderCnt - tempPicOrderCnt
		vid.bottomFieldOrderCnt = vid.bottomFieldOrderCnt - tempPicOrderCnt
	}
	return nil
}

// picOrderCnt implements the picOrderCnt(picX) helper used by 8.2.1's final
// MMCO-5 step: for a frame it is the smaller of the two field order counts,
// for a field it is that field's order count.
func picOrderCnt(vid *VideoStream, ctx *SliceContext) int {
	if !ctx.FieldPic {
		if vid.topFieldOrderCnt < vid.bottomFieldOrderCnt {
			return vid.topFieldOrderCnt
		}
		return vid.bottomFieldOrderCnt
	}
	if ctx.BottomField {
		return vid.bottomFieldOrderCnt
	}
	return vid.topFieldOrderCnt
}

// decodePicOrderCnt derives topFieldOrderCnt and bottomFieldOrderCnt based
// on the PicOrderCntType using the process defined in section 8.2.1 of the
// specifications.
func decodePicOrderCnt(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int, err error) {
	switch ctx.PicOrderCountType {
	case 0:
		topFieldOrderCnt, bottomFieldOrderCnt = decodePicOrderCntType0(vid, ctx)
	case 1:
		topFieldOrderCnt, bottomFieldOrderCnt = decodePicOrderCntType1(vid, ctx)
	case 2:
		topFieldOrderCnt, bottomFieldOrderCnt = decodePicOrderCntType2(vid, ctx)
	default:
		err = errors.New("invalid PicOrderCountType")
	}
	return
}

// decodePicOrderCntType0 is used to return topFieldOrderCnt and
// bottomFieldOrderCnt when pic_order_cnt_type == 0, using the process
// defined in section 8.2.1.1. If topFieldOrderCnt or bottomFieldOrderCnt are
// -1 they are unset.
//
// NB: the field-picture / MMCO-5 interaction the standard allows for
// prevPicOrderCntMsb/prevPicOrderCntLsb (8.2.1.1, paragraph 2) is not fully
// modelled here for the case of a reference field pair straddling an
// MMCO-5 picture; only the frame and simple-reference-picture cases are
// covered. See DESIGN.md open-question 2.
func decodePicOrderCntType0(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int) {
	prevPicOrderCntMsb, prevPicOrderCntLsb := 0, 0
	topFieldOrderCnt, bottomFieldOrderCnt = -1, -1

	if !vid.idrPicFlag && vid.prevPOC.set {
		prevPicOrderCntMsb = vid.prevPOC.picOrderCntMsb
		prevPicOrderCntLsb = vid.prevPOC.picOrderCntLsb
	}

	vid.picOrderCntMsb = prevPicOrderCntMsb
	if ctx.PicOrderCntLsb < prevPicOrderCntLsb && (prevPicOrderCntLsb-ctx.PicOrderCntLsb) >= (vid.maxPicOrderCntLsb/2) {
		vid.picOrderCntMsb = prevPicOrderCntMsb + vid.maxPicOrderCntLsb
	} else if ctx.PicOrderCntLsb > prevPicOrderCntLsb && (ctx.PicOrderCntLsb-prevPicOrderCntLsb) > (vid.maxPicOrderCntLsb/2) {
		vid.picOrderCntMsb = prevPicOrderCntMsb - vid.maxPicOrderCntLsb
	}

	if !ctx.BottomField {
		topFieldOrderCnt = vid.picOrderCntMsb + ctx.PicOrderCntLsb
	}
	if !ctx.FieldPic {
		bottomFieldOrderCnt = topFieldOrderCnt + ctx.DeltaPicOrderCntBottom
	} else if ctx.BottomField {
		bottomFieldOrderCnt = vid.picOrderCntMsb + ctx.PicOrderCntLsb
	}

	// This picture becomes the "previous" reference picture for the next
	// call, per 8.2.1.1's closing paragraph (only reference pictures update
	// the prev state; non-reference pictures leave it unchanged).
	if ctx.RefIdc != 0 {
		vid.prevPOC = prevPOCState{
			picOrderCntMsb: vid.picOrderCntMsb,
			picOrderCntLsb: ctx.PicOrderCntLsb,
			set:            true,
		}
	}
	return
}

// decodePicOrderCntType1 is used to return topFieldOrderCnt and
// bottomFieldOrderCnt when pic_order_cnt_type == 1, per section 8.2.1.2. If
// topFieldOrderCnt or bottomFieldOrderCnt are -1, they are unset.
func decodePicOrderCntType1(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int) {
	topFieldOrderCnt, bottomFieldOrderCnt = -1, -1

	prevFrameNum, prevFrameNumOffset := 0, 0
	if vid.prevPOC.set {
		prevFrameNum = vid.prevPOC.frameNum
		prevFrameNumOffset = vid.prevPOC.frameNumOffset
	}

	if vid.idrPicFlag {
		vid.frameNumOffset = 0
	} else if prevFrameNum > ctx.FrameNum {
		vid.frameNumOffset = prevFrameNumOffset + vid.maxFrameNum()
	} else {
		vid.frameNumOffset = prevFrameNumOffset
	}

	absFrameNum := 0
	if ctx.NumRefFramesInPicOrderCntCycle != 0 {
		absFrameNum = vid.frameNumOffset + ctx.FrameNum
	}

	if ctx.RefIdc == 0 && absFrameNum > 0 {
		absFrameNum = absFrameNum - 1
	}

	var expectedPicOrderCnt int
	if absFrameNum > 0 {
		picOrderCntCycleCnt := (absFrameNum - 1) / int(ctx.NumRefFramesInPicOrderCntCycle)
		frameNumInPicOrderCntCycle := (absFrameNum - 1) % int(ctx.NumRefFramesInPicOrderCntCycle)
		expectedPicOrderCnt = picOrderCntCycleCnt * vid.expectedDeltaPerPicOrderCntCycle
		for i := 0; i <= frameNumInPicOrderCntCycle; i++ {
			expectedPicOrderCnt = expectedPicOrderCnt + ctx.OffsetForRefFrameList[i]
		}
	}

	if ctx.RefIdc == 0 {
		expectedPicOrderCnt = expectedPicOrderCnt + int(ctx.OffsetForNonRefPic)
	}

	if !ctx.FieldPic {
		topFieldOrderCnt = expectedPicOrderCnt + ctx.DeltaPicOrderCnt[0]
		bottomFieldOrderCnt = topFieldOrderCnt + int(ctx.OffsetForTopToBottomField) + ctx.DeltaPicOrderCnt[1]
	} else if ctx.BottomField {
		bottomFieldOrderCnt = expectedPicOrderCnt + int(ctx.OffsetForTopToBottomField) + ctx.DeltaPicOrderCnt[0]
	} else {
		topFieldOrderCnt = expectedPicOrderCnt + ctx.DeltaPicOrderCnt[0]
	}

	vid.prevPOC = prevPOCState{
		frameNum:       ctx.FrameNum,
		frameNumOffset: vid.frameNumOffset,
		set:            true,
	}
	return
}

// decodePicOrderCntType2 is used to return topFieldOrderCnt and
// bottomFieldOrderCnt when pic_order_cnt_type == 2, per section 8.2.1.3. If
// topFieldOrderCnt or bottomFieldOrderCnt are -1, they are unset.
func decodePicOrderCntType2(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int) {
	topFieldOrderCnt, bottomFieldOrderCnt = -1, -1

	prevFrameNum, prevFrameNumOffset := 0, 0
	if vid.prevPOC.set {
		prevFrameNum = vid.prevPOC.frameNum
		prevFrameNumOffset = vid.prevPOC.frameNumOffset
	}

	if vid.idrPicFlag {
		vid.frameNumOffset = 0
	} else if prevFrameNum > ctx.FrameNum {
		vid.frameNumOffset = prevFrameNumOffset + vid.maxFrameNum()
	} else {
		vid.frameNumOffset = prevFrameNumOffset
	}

	var tempPicOrderCnt int
	switch {
	case vid.idrPicFlag:
		tempPicOrderCnt = 0
	case ctx.RefIdc == 0:
		tempPicOrderCnt = 2*(vid.frameNumOffset+ctx.FrameNum) - 1
	default:
		tempPicOrderCnt = 2 * (vid.frameNumOffset + ctx.FrameNum)
	}

	if !ctx.FieldPic {
		topFieldOrderCnt = tempPicOrderCnt
		bottomFieldOrderCnt = tempPicOrderCnt
	} else if ctx.BottomField {
		bottomFieldOrderCnt = tempPicOrderCnt
	} else {
		topFieldOrderCnt = tempPicOrderCnt
	}

	vid.prevPOC = prevPOCState{
		frameNum:       ctx.FrameNum,
		frameNumOffset: vid.frameNumOffset,
		set:            true,
	}
	return
}

// maxFrameNum returns MaxFrameNum = 2^(log2_max_frame_num_minus4+4), per
// equation 7-10.
func (vid *VideoStream) maxFrameNum() int {
	if vid.SPS == nil {
		return 1 << 4
	}
	return 1 << (vid.Log2MaxFrameNumMinus4 + 4)
}
