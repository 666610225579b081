/*
DESCRIPTION
  transform_test.go provides testing for the scan, dequantisation and
  inverse transform functionality found in transform.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import "testing"

func TestInverseScan4x4Identity(t *testing.T) {
	var levels [16]int
	for i := range levels {
		levels[i] = i
	}
	out := InverseScan4x4(levels, false)
	for scanPos, val := range levels {
		raster := zigzag4x4[scanPos]
		if out[raster] != val {
			t.Errorf("out[%d] = %d, want %d", raster, out[raster], val)
		}
	}
}

func TestInverseScan8x8Identity(t *testing.T) {
	var levels [64]int
	for i := range levels {
		levels[i] = i
	}
	out := InverseScan8x8(levels)
	for scanPos, val := range levels {
		raster := zigzag8x8[scanPos]
		if out[raster] != val {
			t.Errorf("out[%d] = %d, want %d", raster, out[raster], val)
		}
	}
}

func TestInverseTransform4x4DCOnly(t *testing.T) {
	// A block with only a DC coefficient should produce a flat output
	// (every sample equal), since all AC basis functions contribute zero.
	var d [16]int
	d[0] = 64
	out := InverseTransform4x4(d)
	want := out[0]
	for i, v := range out {
		if v != want {
			t.Errorf("out[%d] = %d, want uniform %d for DC-only input", i, v, want)
		}
	}
}

func TestInverseTransform4x4Zero(t *testing.T) {
	var d [16]int
	out := InverseTransform4x4(d)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %d, want 0 for all-zero input", i, v)
		}
	}
}

func TestHadamardDC4x4Zero(t *testing.T) {
	var c [16]int
	out := HadamardDC4x4(c)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %d, want 0", i, v)
		}
	}
}

func TestHadamardDC4x4DCSum(t *testing.T) {
	// The first row and column of the 4x4 Hadamard matrix are all ones, so
	// after one pass the DC output position holds the sum of all 16 inputs.
	c := [16]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	out := HadamardDC4x4(c)
	sum := 0
	for _, v := range c {
		sum += v
	}
	if out[0] != sum {
		t.Errorf("out[0] = %d, want sum of inputs %d", out[0], sum)
	}
}

func TestHadamardDC2x2(t *testing.T) {
	c := [4]int{1, 1, 1, 1}
	out := HadamardDC2x2(c)
	if out[0] != 4 {
		t.Errorf("out[0] = %d, want 4", out[0])
	}
	if out[1] != 0 || out[2] != 0 || out[3] != 0 {
		t.Errorf("out = %v, want AC terms zero for uniform input", out)
	}
}

func TestTransformBypass(t *testing.T) {
	tests := []struct {
		flag bool
		qpY  int
		want bool
	}{
		{true, 0, true},
		{true, 1, false},
		{false, 0, false},
		{false, 5, false},
	}
	for _, tt := range tests {
		if got := TransformBypass(tt.flag, tt.qpY); got != tt.want {
			t.Errorf("TransformBypass(%v, %d) = %v, want %v", tt.flag, tt.qpY, got, tt.want)
		}
	}
}

func TestDequant4x4Bypass(t *testing.T) {
	var coeff [16]int
	for i := range coeff {
		coeff[i] = i
	}
	var scaling [16]int
	for i := range scaling {
		scaling[i] = 16
	}
	out := Dequant4x4(coeff, 10, scaling, true)
	if out != coeff {
		t.Errorf("Dequant4x4 with bypass = %v, want unchanged input %v", out, coeff)
	}
}
