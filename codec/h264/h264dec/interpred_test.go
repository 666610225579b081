/*
DESCRIPTION
  interpred_test.go provides testing for the inter-prediction functionality
  found in interpred.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import "testing"

func TestMedianMvPredictorSingleMatch(t *testing.T) {
	a := mvPredCandidate{available: true, refIdx: 0, mv: MV{1, 1}}
	b := mvPredCandidate{available: true, refIdx: 2, mv: MV{9, 9}}
	c := mvPredCandidate{available: true, refIdx: 3, mv: MV{5, 5}}

	got := MedianMvPredictor(a, b, c, 0)
	if got != a.mv {
		t.Errorf("MedianMvPredictor = %v, want %v (sole refIdx match)", got, a.mv)
	}
}

func TestMedianMvPredictorMedian(t *testing.T) {
	a := mvPredCandidate{available: true, refIdx: 0, mv: MV{1, 10}}
	b := mvPredCandidate{available: true, refIdx: 0, mv: MV{5, 2}}
	c := mvPredCandidate{available: true, refIdx: 0, mv: MV{3, 7}}

	got := MedianMvPredictor(a, b, c, 0)
	want := MV{X: median3(1, 5, 3), Y: median3(10, 2, 7)}
	if got != want {
		t.Errorf("MedianMvPredictor = %v, want %v", got, want)
	}
}

func TestMedianMvPredictorBCUnavailable(t *testing.T) {
	a := mvPredCandidate{available: true, refIdx: 1, mv: MV{4, 6}}
	var b, c mvPredCandidate // both unavailable

	got := MedianMvPredictor(a, b, c, 0)
	if got != a.mv {
		t.Errorf("MedianMvPredictor = %v, want %v (A substituted for B and C)", got, a.mv)
	}
}

func TestMedian3(t *testing.T) {
	tests := []struct{ a, b, c, want int }{
		{1, 2, 3, 2},
		{3, 2, 1, 2},
		{2, 2, 2, 2},
		{-5, 10, 0, 0},
	}
	for _, tt := range tests {
		if got := median3(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("median3(%d,%d,%d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestDirectSpatialMvZeroPrediction(t *testing.T) {
	mv0, mv1, r0, r1 := DirectSpatialMv(2, 3, MV{4, 4}, MV{5, 5}, false, true)
	if mv0 != (MV{}) || mv1 != (MV{}) || r0 != 0 || r1 != 0 {
		t.Errorf("got mv0=%v mv1=%v r0=%d r1=%d, want all zero", mv0, mv1, r0, r1)
	}
}

func TestDirectSpatialMvColZero(t *testing.T) {
	mv0, mv1, r0, r1 := DirectSpatialMv(0, 0, MV{4, 4}, MV{5, 5}, true, false)
	if mv0 != (MV{}) || mv1 != (MV{}) {
		t.Errorf("got mv0=%v mv1=%v, want zeroed by colZeroFlag", mv0, mv1)
	}
	if r0 != 0 || r1 != 0 {
		t.Errorf("got r0=%d r1=%d, want unchanged 0", r0, r1)
	}
}

func TestDirectTemporalMvEqualDistance(t *testing.T) {
	mvCol := MV{8, 4}
	mvL0, mvL1 := DirectTemporalMv(mvCol, 10, 20)
	if mvL0 != (MV{4, 2}) {
		t.Errorf("mvL0 = %v, want {4 2} for half-distance scaling", mvL0)
	}
	wantL1 := MV{X: mvL0.X - mvCol.X, Y: mvL0.Y - mvCol.Y}
	if mvL1 != wantL1 {
		t.Errorf("mvL1 = %v, want %v", mvL1, wantL1)
	}
}

func TestInterpolateChromaBilinearIntegerPosition(t *testing.T) {
	at := func(x, y int) int { return x + y }
	got := InterpolateChromaBilinear(at, 2, 3, 0, 0)
	if want := at(2, 3); got != want {
		t.Errorf("InterpolateChromaBilinear at integer pos = %d, want %d", got, want)
	}
}

func TestWeightedSamplePredBiDefault(t *testing.T) {
	got := WeightedSamplePredBiDefault(100, 150)
	if want := 125; got != want {
		t.Errorf("WeightedSamplePredBiDefault(100,150) = %d, want %d", got, want)
	}
}

func TestWeightedSamplePredExplicitClips(t *testing.T) {
	got := WeightedSamplePredExplicit(255, 5, 64, 0, 255)
	if got != 255 {
		t.Errorf("WeightedSamplePredExplicit overflow case = %d, want clipped to 255", got)
	}
}
