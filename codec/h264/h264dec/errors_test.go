/*
DESCRIPTION
  errors_test.go provides testing for the error taxonomy found in
  errors.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapDecodeErrorUnwrapsToSentinel(t *testing.T) {
	cause := errors.New("short read")
	de := WrapDecodeError(ErrBitstreamUnderflow, ComponentBitReader, 5, 10, cause)

	if !errors.Is(de, ErrBitstreamUnderflow) {
		t.Error("errors.Is should match the wrapped sentinel")
	}
	if de.NALType != 5 || de.Offset != 10 || de.Component != ComponentBitReader {
		t.Errorf("got NALType=%d Offset=%d Component=%s, want 5/10/bitreader", de.NALType, de.Offset, de.Component)
	}
}

func TestDecodeErrorMessageIncludesComponentAndOffset(t *testing.T) {
	de := WrapDecodeError(ErrSyntaxViolation, ComponentMacroblock, 1, 42, errors.New("bad mb_type"))
	msg := de.Error()
	if msg == "" {
		t.Fatal("Error() returned empty string")
	}
	wantSub := []string{"macroblock", "42", "bad mb_type"}
	for _, s := range wantSub {
		if !strings.Contains(msg, s) {
			t.Errorf("Error() = %q, want it to contain %q", msg, s)
		}
	}
}

func TestDecodeErrorDistinctSentinels(t *testing.T) {
	sentinels := []error{
		ErrBitstreamUnderflow, ErrInvalidParameterSet, ErrUnsupportedProfile,
		ErrSyntaxViolation, ErrSliceLoss, ErrDpbOverflow,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			if errors.Is(a, b) {
				t.Errorf("sentinel %d unexpectedly matches sentinel %d", i, j)
			}
		}
	}
}
