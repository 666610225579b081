/*
DESCRIPTION
  decoder_test.go provides testing for the top-level Decoder found in
  decoder.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import (
	"errors"
	"testing"
)

func TestDecodeEmptyNALReturnsBitstreamUnderflow(t *testing.T) {
	d := NewDecoder(Config{})
	_, err := d.Decode(nil)
	if err == nil || !errors.Is(err, ErrBitstreamUnderflow) {
		t.Fatalf("err = %v, want ErrBitstreamUnderflow", err)
	}
}

func TestDecodeSliceBeforeParameterSetsErrors(t *testing.T) {
	d := NewDecoder(Config{})
	// A minimal (invalid as a real slice, but non-empty) NAL header byte
	// for an IDR slice; decodeSlice should reject it before even touching
	// the bitstream, since no SPS/PPS has been parsed yet.
	nal := []byte{0x65, 0x88}
	_, err := d.Decode(nal)
	if err == nil || !errors.Is(err, ErrInvalidParameterSet) {
		t.Fatalf("err = %v, want ErrInvalidParameterSet", err)
	}
}

func TestDecodeSEIAndAUDAreNoOps(t *testing.T) {
	d := NewDecoder(Config{})
	for _, nalType := range []byte{NALTypeSEI, NALTypeAccessUnitDelimiter} {
		pics, err := d.Decode([]byte{nalType, 0x00})
		if err != nil {
			t.Errorf("nal_unit_type %d: unexpected error %v", nalType, err)
		}
		if pics != nil {
			t.Errorf("nal_unit_type %d: got pictures %v, want nil", nalType, pics)
		}
	}
}

func TestDpbOverCapacity(t *testing.T) {
	d := &Decoder{dpb: NewDPB(2)}
	d.dpb.StoreCurrent(newRefPic(0, 0))
	d.dpb.StoreCurrent(newRefPic(1, 2))
	if d.dpbOverCapacity() {
		t.Error("dpbOverCapacity should be false at exactly maxSize frames")
	}
	d.dpb.StoreCurrent(newRefPic(2, 4))
	if !d.dpbOverCapacity() {
		t.Error("dpbOverCapacity should be true once frames exceed maxSize")
	}
}

func TestConvertMMCOTranslatesDifferenceOfPicNums(t *testing.T) {
	m := &DecRefPicMarking{
		elements: []drpmElement{
			{MemoryManagementControlOperation: 1, DifferenceOfPicNumsMinus1: 2},
			{MemoryManagementControlOperation: 4, MaxLongTermFrameIdxPlus1: 3},
			{MemoryManagementControlOperation: 5},
		},
	}
	ops := convertMMCO(m)
	if len(ops) != 3 {
		t.Fatalf("len(ops) = %d, want 3", len(ops))
	}
	if ops[0].Op != 1 || ops[0].DifferenceOfPicNums != 2 {
		t.Errorf("op[0] = %+v, want Op=1 DifferenceOfPicNums=2 (minus1 value, not yet +1'd)", ops[0])
	}
	if ops[1].Op != 4 || ops[1].MaxLongTermFrameIdx != 2 {
		t.Errorf("op[1] = %+v, want Op=4 MaxLongTermFrameIdx=2 (plus1 value resolved)", ops[1])
	}
	if ops[2].Op != 5 {
		t.Errorf("op[2] = %+v, want Op=5", ops[2])
	}
}
