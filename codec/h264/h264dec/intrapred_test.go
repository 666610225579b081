/*
DESCRIPTION
  intrapred_test.go provides testing for the intra-prediction functionality
  found in intrapred.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import "testing"

func TestPredict4x4Vertical(t *testing.T) {
	n := neighbourSamples4x4{
		top:      [8]int{10, 20, 30, 40, 0, 0, 0, 0},
		topAvail: true,
		bitDepth: 8,
	}
	out := Predict4x4(Intra4x4Vertical, n)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := n.top[x]
			if got := out[y*4+x]; got != want {
				t.Errorf("out[%d][%d] = %d, want %d", y, x, got, want)
			}
		}
	}
}

func TestPredict4x4Horizontal(t *testing.T) {
	n := neighbourSamples4x4{
		left:      [4]int{5, 15, 25, 35},
		leftAvail: true,
		bitDepth:  8,
	}
	out := Predict4x4(Intra4x4Horizontal, n)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := n.left[y]
			if got := out[y*4+x]; got != want {
				t.Errorf("out[%d][%d] = %d, want %d", y, x, got, want)
			}
		}
	}
}

func TestPredict4x4DCNoNeighbours(t *testing.T) {
	n := neighbourSamples4x4{bitDepth: 8}
	out := Predict4x4(Intra4x4DC, n)
	want := dcDefault(8)
	for i, v := range out {
		if v != want {
			t.Errorf("out[%d] = %d, want %d (1<<(bitDepth-1))", i, v, want)
		}
	}
}

func TestPredict4x4DCBothNeighbours(t *testing.T) {
	n := neighbourSamples4x4{
		top:       [8]int{8, 8, 8, 8, 0, 0, 0, 0},
		topAvail:  true,
		left:      [4]int{8, 8, 8, 8},
		leftAvail: true,
		bitDepth:  8,
	}
	out := Predict4x4(Intra4x4DC, n)
	for i, v := range out {
		if v != 8 {
			t.Errorf("out[%d] = %d, want 8", i, v)
		}
	}
}

func TestPredict16x16DCNoNeighbours(t *testing.T) {
	var top, left [16]int
	out := Predict16x16(Intra16x16DC, top, left, false, false, 0, 8)
	want := dcDefault(8)
	for i, v := range out {
		if v != want {
			t.Errorf("out[%d] = %d, want %d", i, v, want)
		}
	}
}

func TestPredict16x16Vertical(t *testing.T) {
	var top, left [16]int
	for i := range top {
		top[i] = i + 1
	}
	out := Predict16x16(Intra16x16Vertical, top, left, true, false, 0, 8)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := out[y*16+x]; got != top[x] {
				t.Errorf("out[%d][%d] = %d, want %d", y, x, got, top[x])
			}
		}
	}
}

func TestPredictChromaDCUniform(t *testing.T) {
	top := make([]int, 8)
	left := make([]int, 8)
	for i := range top {
		top[i] = 4
		left[i] = 4
	}
	out := PredictChroma(ChromaDC, top, left, true, true, 0, 8, 8, 8)
	for i, v := range out {
		if v != 4 {
			t.Errorf("out[%d] = %d, want 4", i, v)
		}
	}
}

func TestClip3(t *testing.T) {
	tests := []struct{ lo, hi, v, want int }{
		{0, 255, -5, 0},
		{0, 255, 300, 255},
		{0, 255, 128, 128},
	}
	for _, tt := range tests {
		if got := clip3(tt.lo, tt.hi, tt.v); got != tt.want {
			t.Errorf("clip3(%d,%d,%d) = %d, want %d", tt.lo, tt.hi, tt.v, got, tt.want)
		}
	}
}
