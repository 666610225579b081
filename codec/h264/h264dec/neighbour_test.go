/*
DESCRIPTION
  neighbour_test.go provides testing for the neighbour-availability oracle
  found in neighbour.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import "testing"

func TestMbAddrNeighbours(t *testing.T) {
	// 4x3 picture in macroblocks:
	//  0  1  2  3
	//  4  5  6  7
	//  8  9 10 11
	n := NewNeighbours(4, 3, false, false)

	tests := []struct {
		mbAddr            int
		wantA, wantB, wantC, wantD int
	}{
		{mbAddr: 0, wantA: -1, wantB: -1, wantC: -1, wantD: -1},
		{mbAddr: 1, wantA: 0, wantB: -1, wantC: -1, wantD: -1},
		{mbAddr: 3, wantA: 2, wantB: -1, wantC: -1, wantD: -1},
		{mbAddr: 4, wantA: -1, wantB: 0, wantC: 1, wantD: -1},
		{mbAddr: 5, wantA: 4, wantB: 1, wantC: 2, wantD: 0},
		{mbAddr: 7, wantA: 6, wantB: 3, wantC: -1, wantD: 2},
		{mbAddr: 8, wantA: -1, wantB: 4, wantC: 5, wantD: -1},
	}
	for _, tt := range tests {
		if got := n.MbAddrA(tt.mbAddr); got != tt.wantA {
			t.Errorf("MbAddrA(%d) = %d, want %d", tt.mbAddr, got, tt.wantA)
		}
		if got := n.MbAddrB(tt.mbAddr); got != tt.wantB {
			t.Errorf("MbAddrB(%d) = %d, want %d", tt.mbAddr, got, tt.wantB)
		}
		if got := n.MbAddrC(tt.mbAddr); got != tt.wantC {
			t.Errorf("MbAddrC(%d) = %d, want %d", tt.mbAddr, got, tt.wantC)
		}
		if got := n.MbAddrD(tt.mbAddr); got != tt.wantD {
			t.Errorf("MbAddrD(%d) = %d, want %d", tt.mbAddr, got, tt.wantD)
		}
	}
}

func TestAvailableRespectsSliceBoundary(t *testing.T) {
	n := NewNeighbours(4, 3, false, false)
	n.MarkDecoded(0, 0)
	n.MarkDecoded(1, 1) // different slice

	if !n.available(0, 0) {
		t.Error("mb 0 should be available to slice 0")
	}
	if n.available(1, 0) {
		t.Error("mb 1 belongs to slice 1, should not be available to slice 0")
	}
	if n.available(2, 0) {
		t.Error("mb 2 was never decoded, should not be available")
	}
}

func TestCtxIdxIncMbSkipFlag(t *testing.T) {
	n := NewNeighbours(4, 3, false, false)
	n.MarkDecoded(0, 0)
	n.MarkDecoded(4, 0)

	infos := map[int]*mbInfo{
		0: {addr: 0, skipped: false},
		4: {addr: 4, skipped: true},
	}
	get := func(addr int) (*mbInfo, bool) {
		info, ok := infos[addr]
		return info, ok
	}

	// mbAddr 5 has A=4 (skipped, contributes 0) and B=1 (unavailable,
	// contributes 0): expect ctxIdxInc = 0.
	if got := CtxIdxIncMbSkipFlag(n, 0, 5, get); got != 0 {
		t.Errorf("ctxIdxInc = %d, want 0", got)
	}

	n.MarkDecoded(1, 0)
	infos[1] = &mbInfo{addr: 1, skipped: false}
	// mbAddr 5 now has A=4 (skipped) and B=1 (not skipped): expect 1.
	if got := CtxIdxIncMbSkipFlag(n, 0, 5, get); got != 1 {
		t.Errorf("ctxIdxInc = %d, want 1", got)
	}
}

func TestCtxIdxIncCodedBlockPatternLuma(t *testing.T) {
	tests := []struct {
		leftAvail, leftSet, topAvail, topSet bool
		want                                 int
	}{
		{false, false, false, false, 3}, // both unavailable: treated as set
		{true, false, true, false, 0},
		{true, true, true, false, 1},
		{true, false, true, true, 2},
		{true, true, true, true, 3},
	}
	for _, tt := range tests {
		got := CtxIdxIncCodedBlockPatternLuma(tt.leftAvail, tt.leftSet, tt.topAvail, tt.topSet)
		if got != tt.want {
			t.Errorf("CtxIdxIncCodedBlockPatternLuma(%v,%v,%v,%v) = %d, want %d",
				tt.leftAvail, tt.leftSet, tt.topAvail, tt.topSet, got, tt.want)
		}
	}
}
