/*
DESCRIPTION
  concealment.go defines the pluggable error concealment policy for slices
  or macroblocks that cannot be decoded (the Decoder stores the policy but
  does not call it), per the "informative"
  concealment guidance of Annex... the specifications leave the concrete
  concealment algorithm as an implementation choice and only require that
  a decoder have some defined behaviour; this package exposes that choice
  as an interface rather than baking in one strategy.

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

// LossKind classifies what went missing so a ConcealmentPolicy can pick an
// appropriate substitute.
type LossKind int

const (
	// LossSlice indicates an entire slice failed to parse (bitstream
	// corruption, unsupported syntax, or a detected conformance violation).
	LossSlice LossKind = iota
	// LossMacroblock indicates a single macroblock within an otherwise
	// parseable slice could not be reconstructed.
	LossMacroblock
	// LossReference indicates a referenced picture is missing from the DPB
	// (e.g. due to an earlier dropped frame), forcing prediction from a
	// substitute.
	LossReference
)

// ConcealmentPolicy produces substitutes for parts of a picture that could
// not be reconstructed. Implementations receive enough context to produce a
// plausible substitute and are free to ignore it and return a blank one.
// Decoder.Decode does not call it; lost slices are reported as errors.
type ConcealmentPolicy interface {
	// ConcealMacroblock returns replacement luma and chroma sample planes
	// for one 16x16 (or appropriately sized chroma) macroblock at
	// (mbX, mbY) in a picture of the given dimensions. prior, when
	// non-nil, is the same spatial region from the most recently
	// successfully decoded reference picture.
	ConcealMacroblock(kind LossKind, mbX, mbY, width, height int, prior *StorablePicture) (luma []byte, chroma [2][]byte)

	// ConcealSlice is invoked once per lost slice before any per-macroblock
	// concealment, giving the policy a chance to do whole-slice work (e.g.
	// motion-compensated copy from a reference). Returning false falls
	// back to per-macroblock concealment via ConcealMacroblock.
	ConcealSlice(kind LossKind, firstMbAddr, mbCount int, prior *StorablePicture) bool
}

// NopConcealment is the default policy: it performs no substitution and
// leaves lost regions at their zero value. Suitable for conformance
// testing, where silently hiding loss would mask the bug under test.
type NopConcealment struct{}

func (NopConcealment) ConcealMacroblock(kind LossKind, mbX, mbY, width, height int, prior *StorablePicture) ([]byte, [2][]byte) {
	return nil, [2][]byte{}
}

func (NopConcealment) ConcealSlice(kind LossKind, firstMbAddr, mbCount int, prior *StorablePicture) bool {
	return false
}

// FreezeFrameConcealment substitutes the co-located samples from the most
// recent reference picture, a common low-complexity concealment strategy
// for live/streaming playback where holding the previous frame is
// preferable to a visible artifact.
type FreezeFrameConcealment struct{}

func (FreezeFrameConcealment) ConcealMacroblock(kind LossKind, mbX, mbY, width, height int, prior *StorablePicture) ([]byte, [2][]byte) {
	if prior == nil {
		return nil, [2][]byte{}
	}
	lumaStride := prior.Width
	chromaStride := prior.Width / 2

	luma := copyBlock(prior.Luma, lumaStride, mbX*16, mbY*16, 16, 16)
	var chroma [2][]byte
	chroma[0] = copyBlock(prior.Chroma[0], chromaStride, mbX*8, mbY*8, 8, 8)
	chroma[1] = copyBlock(prior.Chroma[1], chromaStride, mbX*8, mbY*8, 8, 8)
	return luma, chroma
}

func (FreezeFrameConcealment) ConcealSlice(kind LossKind, firstMbAddr, mbCount int, prior *StorablePicture) bool {
	return false
}

func copyBlock(plane []byte, stride, x0, y0, w, h int) []byte {
	if plane == nil {
		return nil
	}
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		srcRow := (y0 + y) * stride
		if srcRow+x0+w > len(plane) || srcRow+x0 < 0 {
			continue
		}
		copy(out[y*w:(y+1)*w], plane[srcRow+x0:srcRow+x0+w])
	}
	return out
}
