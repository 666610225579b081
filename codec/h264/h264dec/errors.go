/*
DESCRIPTION
  errors.go defines the decoder's error taxonomy: sentinel errors for the
  broad failure categories a conforming decoder must be able to report,
  and a DecodeError wrapper that attaches the NAL unit, bitstream offset
  and component responsible.

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
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors identifying the broad failure category of a decode
// error; callers can test against these with errors.Is even though every
// occurrence is wrapped in a DecodeError carrying more context.
var (
	ErrBitstreamUnderflow  = errors.New("h264dec: bitstream underflow")
	ErrInvalidParameterSet = errors.New("h264dec: invalid or missing parameter set")
	ErrUnsupportedProfile  = errors.New("h264dec: unsupported profile or feature")
	ErrSyntaxViolation     = errors.New("h264dec: syntax element violates a semantic constraint")
	ErrSliceLoss           = errors.New("h264dec: slice could not be decoded")
	ErrDpbOverflow         = errors.New("h264dec: decoded picture buffer overflow")
)

// Component names a decoder stage, used purely for diagnostics.
type Component string

const (
	ComponentBitReader    Component = "bitreader"
	ComponentCABAC        Component = "cabac"
	ComponentCAVLC        Component = "cavlc"
	ComponentParamSet     Component = "paramset"
	ComponentSliceHeader  Component = "slicehead"
	ComponentMacroblock   Component = "macroblock"
	ComponentResidual     Component = "residual"
	ComponentIntraPred    Component = "intrapred"
	ComponentInterPred    Component = "interpred"
	ComponentDeblock      Component = "deblock"
	ComponentDPB          Component = "dpb"
	ComponentConcealment  Component = "concealment"
)

// DecodeError attaches decode-time context to one of the sentinel errors
// above. NALType is the nal_unit_type of the NAL unit being processed, or
// -1 if not applicable; Offset is the bit offset within that NAL unit's
// RBSP where the failure was detected, or -1 if not tracked.
type DecodeError struct {
	Kind      error
	NALType   int
	Offset    int
	Component Component
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("h264dec: %s: nal_unit_type=%d offset=%d: %v", e.Component, e.NALType, e.Offset, e.Err)
	}
	return fmt.Sprintf("h264dec: %s: nal_unit_type=%d offset=%d: %v", e.Component, e.NALType, e.Offset, e.Kind)
}

func (e *DecodeError) Unwrap() error { return e.Kind }

// WrapDecodeError constructs a DecodeError, wrapping err with pkg/errors so
// a later %+v format verb recovers a stack trace from the original site.
func WrapDecodeError(kind error, component Component, nalType, offset int, err error) *DecodeError {
	return &DecodeError{
		Kind:      kind,
		NALType:   nalType,
		Offset:    offset,
		Component: component,
		Err:       errors.Wrap(err, kind.Error()),
	}
}
