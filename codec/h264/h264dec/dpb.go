/*
DESCRIPTION
  dpb.go implements the decoded picture buffer: frame storage, sliding
  window and adaptive (MMCO) reference picture marking, gap-in-frame-num
  handling and POC-driven output bumping, per sections 8.2.4, 8.2.5 and
  C.4 of the specifications.

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
	"sort"

	"github.com/pkg/errors"
)

// referenceKind distinguishes the marking state a FrameStore's component
// pictures can be in, per 8.2.4.1.
type referenceKind int

const (
	unusedForReference referenceKind = iota
	shortTermReference
	longTermReference
)

// StorablePicture is a fully reconstructed, deblocked picture ready for
// output or use as a reference, plus the bookkeeping the DPB needs.
type StorablePicture struct {
	FrameNum    int
	TopPOC      int
	BottomPOC   int
	IsReference referenceKind
	LongTermIdx int
	IsIDR       bool
	// ViewID distinguishes base-view (0) from MVC non-base-view pictures
	// sharing the same access unit, C.4's inter-view reference extension.
	ViewID int

	// Luma and Chroma hold the reconstructed sample planes; left opaque to
	// the DPB, which only moves pointers around.
	Luma   []byte
	Chroma [2][]byte

	Width, Height int

	outputted bool
}

// POC returns the picture's order count used for output ordering and the
// MMCO "PicOrderCnt(picX)" helper: the lesser of top/bottom for a frame.
func (p *StorablePicture) POC() int {
	if p.TopPOC < p.BottomPOC {
		return p.TopPOC
	}
	return p.BottomPOC
}

// FrameStore is one slot in the DPB, holding a single frame (this decoder
// does not model complementary field pairs as distinct half-slots; a field
// picture is stored as a frame with only one of Top/BottomPOC meaningful).
type FrameStore struct {
	Pic *StorablePicture
}

// DPB is the decoded picture buffer for one coded video sequence. It holds
// up to maxSize frame stores, plus the MVC inter-view reference pictures of
// the current access unit.
type DPB struct {
	maxSize int
	frames  []*FrameStore

	// interView holds pictures from other views of the same access unit,
	// appended to list construction per Annex H/C.4; cleared every AU.
	interView []*StorablePicture

	maxLongTermFrameIdx int // -1 means "no long-term indices in use"
}

// NewDPB constructs an empty DPB sized from the SPS's max_num_ref_frames
// (clamped to at least 1 to always allow forward progress).
func NewDPB(maxNumRefFrames int) *DPB {
	if maxNumRefFrames < 1 {
		maxNumRefFrames = 1
	}
	return &DPB{maxSize: maxNumRefFrames, maxLongTermFrameIdx: -1}
}

// StoreCurrent inserts pic into the DPB, per the decoding process of 8.2.5.1.
// If the buffer is full of reference pictures once pic is added, sliding
// window marking (8.2.5.3) removes the oldest short-term picture, unless
// adaptive (MMCO) marking already made room.
func (d *DPB) StoreCurrent(pic *StorablePicture) {
	d.frames = append(d.frames, &FrameStore{Pic: pic})
	if pic.IsReference != unusedForReference {
		d.enforceSlidingWindow()
	}
}

func (d *DPB) refCount() int {
	n := 0
	for _, fs := range d.frames {
		if fs.Pic.IsReference != unusedForReference {
			n++
		}
	}
	return n
}

// enforceSlidingWindow implements 8.2.5.3: when the number of reference
// frames (short+long term) exceeds max(MaxNumRefFrames,1), the short-term
// reference picture with the smallest FrameNumWrap is marked unused.
func (d *DPB) enforceSlidingWindow() {
	// FrameNumWrap order relative to the most recently stored picture: a
	// FrameNum above it has wrapped past MaxFrameNum and is the older one.
	curFrameNum := d.frames[len(d.frames)-1].Pic.FrameNum
	older := func(a, b int) bool {
		if aw, bw := a > curFrameNum, b > curFrameNum; aw != bw {
			return aw
		}
		return a < b
	}
	for d.refCount() > d.maxSize {
		var oldest *FrameStore
		for _, fs := range d.frames {
			if fs.Pic.IsReference != shortTermReference {
				continue
			}
			if oldest == nil || older(fs.Pic.FrameNum, oldest.Pic.FrameNum) {
				oldest = fs
			}
		}
		if oldest == nil {
			break
		}
		oldest.Pic.IsReference = unusedForReference
	}
}

// MMCO is one memory_management_control_operation entry from a
// dec_ref_pic_marking syntax structure, carrying only the operands the DPB
// adaptive-marking process (8.2.5.4) needs.
type MMCO struct {
	Op                    int
	DifferenceOfPicNums   int // for op 1 and 3 (difference_of_pic_nums_minus1, not yet +1'd)
	LongTermPicNum        int // for op 2
	LongTermFrameIdx      int // for op 3 and 6
	MaxLongTermFrameIdx   int // for op 4 (minus1 already applied)
}

// ApplyMMCO runs the adaptive memory control marking process of 8.2.5.4
// against the current picture's CurrFrameNum, in order.
func (d *DPB) ApplyMMCO(ops []MMCO, currFrameNum, maxFrameNum int) error {
	for _, op := range ops {
		switch op.Op {
		case 1:
			picNumX := currFrameNum - (op.DifferenceOfPicNums + 1)
			d.markShortTermUnused(picNumX, maxFrameNum)
		case 2:
			d.markLongTermUnused(op.LongTermPicNum)
		case 3:
			picNumX := currFrameNum - (op.DifferenceOfPicNums + 1)
			d.convertShortToLongTerm(picNumX, maxFrameNum, op.LongTermFrameIdx)
		case 4:
			d.maxLongTermFrameIdx = op.MaxLongTermFrameIdx
			d.capLongTermIndices()
		case 5:
			d.markAllUnused()
		case 6:
			d.markCurrentAsLongTerm(op.LongTermFrameIdx)
		default:
			return errors.Errorf("unsupported memory_management_control_operation %d", op.Op)
		}
	}
	return nil
}

func frameNumWrap(frameNum, currFrameNum, maxFrameNum int) int {
	if frameNum > currFrameNum {
		return frameNum - maxFrameNum
	}
	return frameNum
}

func (d *DPB) markShortTermUnused(picNumX, maxFrameNum int) {
	for _, fs := range d.frames {
		if fs.Pic.IsReference != shortTermReference {
			continue
		}
		if fs.Pic.FrameNum == picNumX {
			fs.Pic.IsReference = unusedForReference
		}
	}
}

func (d *DPB) markLongTermUnused(longTermPicNum int) {
	for _, fs := range d.frames {
		if fs.Pic.IsReference == longTermReference && fs.Pic.LongTermIdx == longTermPicNum {
			fs.Pic.IsReference = unusedForReference
		}
	}
}

func (d *DPB) convertShortToLongTerm(picNumX, maxFrameNum, longTermFrameIdx int) {
	for _, fs := range d.frames {
		if fs.Pic.IsReference == longTermReference && fs.Pic.LongTermIdx == longTermFrameIdx {
			fs.Pic.IsReference = unusedForReference
		}
	}
	for _, fs := range d.frames {
		if fs.Pic.IsReference == shortTermReference && fs.Pic.FrameNum == picNumX {
			fs.Pic.IsReference = longTermReference
			fs.Pic.LongTermIdx = longTermFrameIdx
		}
	}
}

func (d *DPB) capLongTermIndices() {
	for _, fs := range d.frames {
		if fs.Pic.IsReference == longTermReference && fs.Pic.LongTermIdx > d.maxLongTermFrameIdx {
			fs.Pic.IsReference = unusedForReference
		}
	}
}

func (d *DPB) markAllUnused() {
	for _, fs := range d.frames {
		fs.Pic.IsReference = unusedForReference
	}
	d.maxLongTermFrameIdx = -1
}

func (d *DPB) markCurrentAsLongTerm(longTermFrameIdx int) {
	if len(d.frames) == 0 {
		return
	}
	cur := d.frames[len(d.frames)-1]
	for _, fs := range d.frames {
		if fs != cur && fs.Pic.IsReference == longTermReference && fs.Pic.LongTermIdx == longTermFrameIdx {
			fs.Pic.IsReference = unusedForReference
		}
	}
	cur.Pic.IsReference = longTermReference
	cur.Pic.LongTermIdx = longTermFrameIdx
}

// HandleGapsInFrameNum synthesizes the non-existing short-term reference
// frames implied by a jump in frame_num, per 8.2.5.2. Each synthesized
// frame is a copy of the fill picture's samples (typically grey or the
// previous frame, supplied by the caller) tagged with the skipped
// FrameNum, and is immediately subject to sliding window removal.
func (d *DPB) HandleGapsInFrameNum(skippedFrameNums []int, fill func(frameNum int) *StorablePicture) {
	for _, fn := range skippedFrameNums {
		pic := fill(fn)
		pic.FrameNum = fn
		pic.IsReference = shortTermReference
		d.frames = append(d.frames, &FrameStore{Pic: pic})
		d.enforceSlidingWindow()
	}
}

// RefPicList0 builds the initial P/B reference picture list 0, per
// 8.2.4.2.1/8.2.4.2.3: short-term pictures ordered by descending PicNum,
// followed by long-term pictures ordered by ascending LongTermPicNum.
func (d *DPB) RefPicList0(currPicNum, maxFrameNum int) []*StorablePicture {
	var short, long []*StorablePicture
	for _, fs := range d.frames {
		switch fs.Pic.IsReference {
		case shortTermReference:
			short = append(short, fs.Pic)
		case longTermReference:
			long = append(long, fs.Pic)
		}
	}
	sort.Slice(short, func(i, j int) bool {
		wi := frameNumWrap(short[i].FrameNum, currPicNum, maxFrameNum)
		wj := frameNumWrap(short[j].FrameNum, currPicNum, maxFrameNum)
		return wi > wj
	})
	sort.Slice(long, func(i, j int) bool { return long[i].LongTermIdx < long[j].LongTermIdx })
	return append(short, long...)
}

// RefPicList1 builds the initial B-slice reference picture list 1, per
// 8.2.4.2.4: short-term pictures with POC greater than the current
// picture's POC in ascending order, then those with POC less in
// descending order, then long-term as in list 0. When list 1 is identical
// to list 0 and has more than one entry, the first two entries are
// swapped (8.2.4.2.3's closing special case).
func (d *DPB) RefPicList1(currPOC, currPicNum, maxFrameNum int) []*StorablePicture {
	var after, before, long []*StorablePicture
	for _, fs := range d.frames {
		switch fs.Pic.IsReference {
		case shortTermReference:
			if fs.Pic.POC() > currPOC {
				after = append(after, fs.Pic)
			} else {
				before = append(before, fs.Pic)
			}
		case longTermReference:
			long = append(long, fs.Pic)
		}
	}
	sort.Slice(after, func(i, j int) bool { return after[i].POC() < after[j].POC() })
	sort.Slice(before, func(i, j int) bool { return before[i].POC() > before[j].POC() })
	sort.Slice(long, func(i, j int) bool { return long[i].LongTermIdx < long[j].LongTermIdx })

	list := append(append(after, before...), long...)

	l0 := d.RefPicList0(currPicNum, maxFrameNum)
	if len(list) > 1 && sameOrder(list, l0) {
		list[0], list[1] = list[1], list[0]
	}
	return list
}

func sameOrder(a, b []*StorablePicture) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// InterViewRefs returns the pictures contributed by other views of the
// current access unit, appended to a reference list per Annex H's MVC
// inter-view prediction extension (H.8.2.1).
func (d *DPB) InterViewRefs() []*StorablePicture { return d.interView }

// SetInterViewRefs replaces the current access unit's inter-view reference
// set; called once per access unit before building per-view ref lists.
func (d *DPB) SetInterViewRefs(pics []*StorablePicture) { d.interView = pics }

// Bump implements the "bumping" process of C.4.5.3: it outputs the picture
// with the smallest POC among pictures not yet output, then removes it from
// the DPB if it is no longer used for reference. Bump does not check whether
// the DPB is full; callers decide when to bump (the Decoder does so while
// the frame count exceeds maxSize).
func (d *DPB) Bump() *StorablePicture {
	var pick *FrameStore
	for _, fs := range d.frames {
		if fs.Pic.outputted {
			continue
		}
		if pick == nil || fs.Pic.POC() < pick.Pic.POC() {
			pick = fs
		}
	}
	if pick == nil {
		return nil
	}
	pick.Pic.outputted = true
	d.removeIfUnused()
	return pick.Pic
}

func (d *DPB) removeIfUnused() {
	kept := d.frames[:0]
	for _, fs := range d.frames {
		if fs.Pic.outputted && fs.Pic.IsReference == unusedForReference {
			continue
		}
		kept = append(kept, fs)
	}
	d.frames = kept
}

// Flush outputs all remaining un-output pictures in POC order, per C.4.5.3's
// end-of-stream/end-of-sequence flush.
func (d *DPB) Flush() []*StorablePicture {
	var out []*StorablePicture
	for {
		pic := d.Bump()
		if pic == nil {
			break
		}
		out = append(out, pic)
	}
	return out
}
