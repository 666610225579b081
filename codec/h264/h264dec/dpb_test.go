/*
DESCRIPTION
  dpb_test.go provides testing for the decoded picture buffer functionality
  found in dpb.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import "testing"

func newRefPic(frameNum, poc int) *StorablePicture {
	return &StorablePicture{FrameNum: frameNum, TopPOC: poc, BottomPOC: poc, IsReference: shortTermReference}
}

func TestSlidingWindowEvictsOldest(t *testing.T) {
	d := NewDPB(2)
	d.StoreCurrent(newRefPic(0, 0))
	d.StoreCurrent(newRefPic(1, 2))
	d.StoreCurrent(newRefPic(2, 4))

	if got := d.refCount(); got != 2 {
		t.Fatalf("refCount = %d, want 2 after sliding window eviction", got)
	}
	if d.frames[0].Pic.IsReference != unusedForReference {
		t.Error("oldest frame (FrameNum 0) should have been marked unused")
	}
}

func TestApplyMMCOShortTermUnused(t *testing.T) {
	d := NewDPB(4)
	d.StoreCurrent(newRefPic(0, 0))
	d.StoreCurrent(newRefPic(1, 2))

	err := d.ApplyMMCO([]MMCO{{Op: 1, DifferenceOfPicNums: 0}}, 1, 16)
	if err != nil {
		t.Fatalf("ApplyMMCO returned error: %v", err)
	}
	if d.frames[0].Pic.IsReference != unusedForReference {
		t.Error("MMCO op 1 should mark picNumX (FrameNum 0) unused")
	}
}

func TestApplyMMCOMarkAllUnused(t *testing.T) {
	d := NewDPB(4)
	d.StoreCurrent(newRefPic(0, 0))
	d.StoreCurrent(newRefPic(1, 2))

	if err := d.ApplyMMCO([]MMCO{{Op: 5}}, 1, 16); err != nil {
		t.Fatalf("ApplyMMCO returned error: %v", err)
	}
	for _, fs := range d.frames {
		if fs.Pic.IsReference != unusedForReference {
			t.Errorf("frame %d should be unused after MMCO op 5", fs.Pic.FrameNum)
		}
	}
}

func TestApplyMMCOUnsupportedOp(t *testing.T) {
	d := NewDPB(4)
	if err := d.ApplyMMCO([]MMCO{{Op: 99}}, 0, 16); err == nil {
		t.Error("expected an error for an unsupported memory_management_control_operation")
	}
}

func TestRefPicList0OrderedByDescendingPicNum(t *testing.T) {
	d := NewDPB(4)
	d.StoreCurrent(newRefPic(0, 0))
	d.StoreCurrent(newRefPic(1, 2))
	d.StoreCurrent(newRefPic(2, 4))

	list := d.RefPicList0(3, 16)
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	for i := 0; i < len(list)-1; i++ {
		if list[i].FrameNum < list[i+1].FrameNum {
			t.Errorf("list not in descending FrameNum order: %v", list)
		}
	}
}

func TestBumpOutputsSmallestPOCFirst(t *testing.T) {
	d := NewDPB(4)
	d.StoreCurrent(newRefPic(0, 10))
	d.StoreCurrent(newRefPic(1, 2))
	d.StoreCurrent(newRefPic(2, 6))

	first := d.Bump()
	if first == nil || first.POC() != 2 {
		t.Fatalf("first bumped POC = %v, want 2", first)
	}
	second := d.Bump()
	if second == nil || second.POC() != 6 {
		t.Fatalf("second bumped POC = %v, want 6", second)
	}
}

func TestFlushOutputsAllInPOCOrder(t *testing.T) {
	d := NewDPB(4)
	d.StoreCurrent(newRefPic(0, 10))
	d.StoreCurrent(newRefPic(1, 2))
	d.StoreCurrent(newRefPic(2, 6))

	out := d.Flush()
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	for i := 0; i < len(out)-1; i++ {
		if out[i].POC() > out[i+1].POC() {
			t.Errorf("Flush not in ascending POC order: %v", out)
		}
	}
}

func TestHandleGapsInFrameNum(t *testing.T) {
	d := NewDPB(8)
	d.HandleGapsInFrameNum([]int{1, 2}, func(frameNum int) *StorablePicture {
		return &StorablePicture{}
	})
	if len(d.frames) != 2 {
		t.Fatalf("len(d.frames) = %d, want 2 synthesized frames", len(d.frames))
	}
	if d.frames[0].Pic.FrameNum != 1 || d.frames[1].Pic.FrameNum != 2 {
		t.Errorf("synthesized frame numbers = %d, %d, want 1, 2", d.frames[0].Pic.FrameNum, d.frames[1].Pic.FrameNum)
	}
}
