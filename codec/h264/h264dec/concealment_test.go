/*
DESCRIPTION
  concealment_test.go provides testing for the concealment policies found
  in concealment.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import "testing"

func TestNopConcealmentReturnsNil(t *testing.T) {
	var c NopConcealment
	luma, chroma := c.ConcealMacroblock(LossMacroblock, 0, 0, 16, 16, nil)
	if luma != nil || chroma != ([2][]byte{}) {
		t.Errorf("got luma=%v chroma=%v, want zero values", luma, chroma)
	}
	if c.ConcealSlice(LossSlice, 0, 1, nil) {
		t.Error("ConcealSlice should always report false for NopConcealment")
	}
}

func TestFreezeFrameConcealmentNilPrior(t *testing.T) {
	var c FreezeFrameConcealment
	luma, chroma := c.ConcealMacroblock(LossReference, 0, 0, 16, 16, nil)
	if luma != nil || chroma != ([2][]byte{}) {
		t.Errorf("got luma=%v chroma=%v, want zero values with no prior picture", luma, chroma)
	}
}

func TestFreezeFrameConcealmentCopiesColocatedSamples(t *testing.T) {
	width, height := 32, 32
	prior := &StorablePicture{Width: width, Height: height}
	prior.Luma = make([]byte, width*height)
	for i := range prior.Luma {
		prior.Luma[i] = byte(i % 256)
	}
	prior.Chroma[0] = make([]byte, (width/2)*(height/2))
	prior.Chroma[1] = make([]byte, (width/2)*(height/2))

	var c FreezeFrameConcealment
	luma, chroma := c.ConcealMacroblock(LossMacroblock, 1, 0, width, height, prior)
	if len(luma) != 16*16 {
		t.Fatalf("len(luma) = %d, want 256", len(luma))
	}
	for y := 0; y < 16; y++ {
		wantRow := prior.Luma[y*width+16 : y*width+32]
		gotRow := luma[y*16 : y*16+16]
		for x := range wantRow {
			if gotRow[x] != wantRow[x] {
				t.Fatalf("luma[%d][%d] = %d, want %d", y, x, gotRow[x], wantRow[x])
			}
		}
	}
	if len(chroma[0]) != 8*8 || len(chroma[1]) != 8*8 {
		t.Errorf("chroma plane sizes = %d, %d, want 64, 64", len(chroma[0]), len(chroma[1]))
	}
}

func TestCopyBlockOutOfBoundsReturnsZeroedRows(t *testing.T) {
	plane := make([]byte, 16)
	for i := range plane {
		plane[i] = byte(i + 1)
	}
	out := copyBlock(plane, 4, 0, 0, 4, 8)
	if len(out) != 32 {
		t.Fatalf("len(out) = %d, want 32", len(out))
	}
	for i := 0; i < 4; i++ {
		if out[i] != plane[i] {
			t.Errorf("out[%d] = %d, want %d (first row copied)", i, out[i], plane[i])
		}
	}
	for i := 16; i < 32; i++ {
		if out[i] != 0 {
			t.Errorf("out[%d] = %d, want 0 (row outside plane bounds)", i, out[i])
		}
	}
}

func TestCopyBlockNilPlane(t *testing.T) {
	if out := copyBlock(nil, 4, 0, 0, 4, 4); out != nil {
		t.Errorf("copyBlock(nil, ...) = %v, want nil", out)
	}
}
