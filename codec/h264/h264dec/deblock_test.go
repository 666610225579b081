/*
DESCRIPTION
  deblock_test.go provides testing for the deblocking filter functionality
  found in deblock.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import "testing"

func TestBoundaryStrengthIntraMbEdge(t *testing.T) {
	p := edgeMbInfo{intra: true}
	q := edgeMbInfo{}
	if got := BoundaryStrength(p, q, true); got != 4 {
		t.Errorf("bS = %d, want 4 for a macroblock edge touching an intra MB", got)
	}
}

func TestBoundaryStrengthIntraInternalEdge(t *testing.T) {
	p := edgeMbInfo{intra: true}
	q := edgeMbInfo{intra: true}
	if got := BoundaryStrength(p, q, false); got != 3 {
		t.Errorf("bS = %d, want 3 for an internal edge between intra blocks", got)
	}
}

func TestBoundaryStrengthNonZeroResidual(t *testing.T) {
	p := edgeMbInfo{cbfNonZero: true, numMvUsed: 1}
	q := edgeMbInfo{numMvUsed: 1}
	if got := BoundaryStrength(p, q, false); got != 2 {
		t.Errorf("bS = %d, want 2 when either side has a non-zero residual", got)
	}
}

func TestBoundaryStrengthSameMotion(t *testing.T) {
	p := edgeMbInfo{numMvUsed: 1, refIdx: [2]int{0, 0}, mv: [2]MV{{4, 4}, {}}}
	q := edgeMbInfo{numMvUsed: 1, refIdx: [2]int{0, 0}, mv: [2]MV{{4, 4}, {}}}
	if got := BoundaryStrength(p, q, false); got != 0 {
		t.Errorf("bS = %d, want 0 for identical uni-pred motion", got)
	}
}

func TestBoundaryStrengthDifferentRefIdx(t *testing.T) {
	p := edgeMbInfo{numMvUsed: 1, refIdx: [2]int{0, 0}, mv: [2]MV{{4, 4}, {}}}
	q := edgeMbInfo{numMvUsed: 1, refIdx: [2]int{1, 0}, mv: [2]MV{{4, 4}, {}}}
	if got := BoundaryStrength(p, q, false); got != 1 {
		t.Errorf("bS = %d, want 1 for differing reference index", got)
	}
}

func TestBoundaryStrengthLargeMvDelta(t *testing.T) {
	p := edgeMbInfo{numMvUsed: 1, refIdx: [2]int{0, 0}, mv: [2]MV{{0, 0}, {}}}
	q := edgeMbInfo{numMvUsed: 1, refIdx: [2]int{0, 0}, mv: [2]MV{{4, 0}, {}}}
	if got := BoundaryStrength(p, q, false); got != 1 {
		t.Errorf("bS = %d, want 1 when mv delta >= 4 in a component", got)
	}
}

func TestFilterSamplesNormalNoOp(t *testing.T) {
	// A flat, already-smooth edge (all samples equal) should not trigger
	// any change regardless of bS.
	p := [3]int{100, 100, 100}
	q := [3]int{100, 100, 100}
	pOut, qOut := FilterSamplesNormal(p, q, 1, 30, 30, false, 8)
	if pOut != p || qOut != q {
		t.Errorf("got p=%v q=%v, want unchanged for a flat edge", pOut, qOut)
	}
}

func TestFilterSamplesNormalZeroAlphaDisables(t *testing.T) {
	p := [3]int{10, 50, 90}
	q := [3]int{200, 150, 100}
	pOut, qOut := FilterSamplesNormal(p, q, 1, 0, 0, false, 8)
	if pOut != p || qOut != q {
		t.Errorf("got p=%v q=%v, want unchanged when indexA/indexB map to alpha=0", pOut, qOut)
	}
}

func TestFilterOffset(t *testing.T) {
	if got := FilterOffset(3); got != 6 {
		t.Errorf("FilterOffset(3) = %d, want 6", got)
	}
	if got := FilterOffset(-2); got != -4 {
		t.Errorf("FilterOffset(-2) = %d, want -4", got)
	}
}
