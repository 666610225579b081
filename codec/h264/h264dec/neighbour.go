/*
DESCRIPTION
  neighbour.go implements the neighbour-availability oracle used throughout
  macroblock parsing and reconstruction, per section 6.4 of the
  specifications.

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

// location describes a sample or block position relative to a macroblock:
// the macroblock address owning it and the local x/y position within that
// macroblock. Mirrors loc_t/pos_t in the reference decoder's neighbour.h.
type location struct {
	mbAddr int
	x, y   int
}

// mbNeighbours holds the four canonical macroblock neighbours A (left),
// B (top), C (top-right) and D (top-left) for a given current macroblock,
// following section 6.4.9. Each neighbour's mbAddr is -1 when unavailable.
type mbNeighbours struct {
	a, b, c, d location
}

// Neighbours is the oracle: given picture geometry and the set of decoded
// macroblock addresses in the current picture/slice, it derives neighbour
// addresses and per-syntax-element ctxIdxInc contributions. It is
// constructed once per picture and reused across all of its macroblocks.
type Neighbours struct {
	picWidthInMbs  int
	picHeightInMbs int

	// sliceOf maps macroblock address to the slice number that owns it, or
	// -1 when the macroblock has not yet been decoded. Constrained
	// intra-prediction and non-MBAFF neighbour availability both need this
	// to reject a neighbour from a different slice.
	sliceOf []int

	// mbaff indicates MbaffFrameFlag for the current picture; when true,
	// macroblock addresses are pair addresses and neighbour derivation
	// follows 6.4.10 instead of 6.4.9.
	mbaff bool

	constrainedIntra bool

	// info records per-macroblock decoded state (nnz, mbType, motion) keyed
	// by address, consulted by CAVLC's nC derivation and CABAC's ctxIdxInc
	// derivations once a neighbour has been decoded.
	info map[int]*mbInfo
}

// NewNeighbours builds a Neighbours oracle for a picture of the given
// dimensions (in macroblocks). It allocates sliceOf itself with
// picWidthInMbs * picHeightInMbs entries, all -1 (not yet decoded), which
// MarkDecoded updates as macroblocks are parsed.
func NewNeighbours(picWidthInMbs, picHeightInMbs int, mbaff, constrainedIntra bool) *Neighbours {
	n := picWidthInMbs * picHeightInMbs
	sliceOf := make([]int, n)
	for i := range sliceOf {
		sliceOf[i] = -1
	}
	return &Neighbours{
		picWidthInMbs:    picWidthInMbs,
		picHeightInMbs:   picHeightInMbs,
		sliceOf:          sliceOf,
		mbaff:            mbaff,
		constrainedIntra: constrainedIntra,
	}
}

// MarkDecoded records that macroblock addr belongs to slice sliceIdx and has
// been successfully parsed, making it a legal neighbour for later
// macroblocks.
func (n *Neighbours) MarkDecoded(addr, sliceIdx int) {
	if addr >= 0 && addr < len(n.sliceOf) {
		n.sliceOf[addr] = sliceIdx
	}
	if n.info == nil {
		n.info = make(map[int]*mbInfo)
	}
}

// Record stores the decoded state of macroblock addr for later neighbour
// lookups (nC derivation, ctxIdxInc). Callers populate info as each
// macroblock's residual and prediction data becomes known.
func (n *Neighbours) Record(addr int, info *mbInfo) {
	if n.info == nil {
		n.info = make(map[int]*mbInfo)
	}
	n.info[addr] = info
}

// Info returns the recorded state of macroblock addr, or nil if none has
// been recorded (not yet decoded, or outside the picture).
func (n *Neighbours) Info(addr int) (*mbInfo, bool) {
	info, ok := n.info[addr]
	return info, ok
}

// available reports whether macroblock addr exists in the picture and has
// already been decoded in the same slice as curSliceIdx. A macroblock from a
// different slice is unavailable per 6.4.9's constrained-slice-boundary
// rule, which this decoder always applies (redundant slices are rejected
// earlier, so slice boundaries are always constraining here).
func (n *Neighbours) available(addr, curSliceIdx int) bool {
	if addr < 0 || addr >= len(n.sliceOf) {
		return false
	}
	s := n.sliceOf[addr]
	return s >= 0 && s == curSliceIdx
}

// MbAddrA through MbAddrD return the raster addresses of the four canonical
// neighbours of mbAddr (6.4.9, table 6-4), or -1 if the position would lie
// outside the picture.
func (n *Neighbours) MbAddrA(mbAddr int) int {
	if mbAddr%n.picWidthInMbs == 0 {
		return -1
	}
	return mbAddr - 1
}

func (n *Neighbours) MbAddrB(mbAddr int) int {
	if mbAddr < n.picWidthInMbs {
		return -1
	}
	return mbAddr - n.picWidthInMbs
}

func (n *Neighbours) MbAddrC(mbAddr int) int {
	if mbAddr < n.picWidthInMbs || (mbAddr+1)%n.picWidthInMbs == 0 {
		return -1
	}
	return mbAddr - n.picWidthInMbs + 1
}

func (n *Neighbours) MbAddrD(mbAddr int) int {
	if mbAddr < n.picWidthInMbs || mbAddr%n.picWidthInMbs == 0 {
		return -1
	}
	return mbAddr - n.picWidthInMbs - 1
}

// Pair returns A, B, C, D for mbAddr at once, each -1 (unavailable) unless
// both in-picture and already decoded in curSliceIdx.
func (n *Neighbours) Pair(mbAddr, curSliceIdx int) mbNeighbours {
	pick := func(addr int) location {
		if n.available(addr, curSliceIdx) {
			return location{mbAddr: addr}
		}
		return location{mbAddr: -1}
	}
	return mbNeighbours{
		a: pick(n.MbAddrA(mbAddr)),
		b: pick(n.MbAddrB(mbAddr)),
		c: pick(n.MbAddrC(mbAddr)),
		d: pick(n.MbAddrD(mbAddr)),
	}
}

// mbInfo is the subset of a decoded macroblock's state the neighbour oracle
// needs to compute ctxIdxInc contributions, independent of entropy mode.
type mbInfo struct {
	addr          int
	sliceIdx      int
	isIntra       bool
	isIPCM        bool
	skipped       bool
	fieldDecoding bool
	cbpLuma       int
	cbpChroma     int
	// nnz is the number of non-zero coefficients per 4x4 luma block (raster,
	// 0..15) used by the CAVLC nC derivation (9.2.1).
	nnz [16]int
	// cbf is the coded_block_flag per 4x4 luma block, used by CABAC.
	cbf [16]bool
	// refIdx and mvd hold, per 4x4 block and list, the reference index and
	// motion vector difference used for ref_idx_lX/mvd_lX ctxIdxInc (9.3.3.1.1).
	refIdx [2][16]int
	mvd    [2][16][2]int
	// chromaPredMode is intra_chroma_pred_mode, used by
	// CtxIdxIncIntraChromaPredMode.
	chromaPredMode int
	// transform8x8 is transform_size_8x8_flag, used by
	// CtxIdxIncTransformSize8x8Flag.
	transform8x8 bool
}

// CtxIdxIncMbSkipFlag derives ctxIdxInc for mb_skip_flag per table 9-34 /
// section 9.3.3.1.1.1: 0 if neighbour unavailable or itself skipped, else 1.
func CtxIdxIncMbSkipFlag(nb *Neighbours, curSliceIdx int, mbAddr int, get func(addr int) (*mbInfo, bool)) int {
	inc := 0
	for _, addr := range []int{nb.MbAddrA(mbAddr), nb.MbAddrB(mbAddr)} {
		if !nb.available(addr, curSliceIdx) {
			continue
		}
		if info, ok := get(addr); ok && !info.skipped {
			inc++
		}
	}
	return inc
}

// CtxIdxIncMbFieldDecodingFlag derives ctxIdxInc per 9.3.3.1.1.2: 0 if a
// neighbour is unavailable or is itself frame-coded, else 1.
func CtxIdxIncMbFieldDecodingFlag(nb *Neighbours, curSliceIdx, mbAddr int, get func(addr int) (*mbInfo, bool)) int {
	inc := 0
	for _, addr := range []int{nb.MbAddrA(mbAddr), nb.MbAddrB(mbAddr)} {
		if !nb.available(addr, curSliceIdx) {
			continue
		}
		if info, ok := get(addr); ok && info.fieldDecoding {
			inc++
		}
	}
	return inc
}

// CtxIdxIncIntraChromaPredMode derives ctxIdxInc per 9.3.3.1.1.8: condTermFlagN
// is 0 if the neighbour is unavailable, is inter-coded, or has
// intra_chroma_pred_mode == 0; else 1.
func CtxIdxIncIntraChromaPredMode(nb *Neighbours, curSliceIdx, mbAddr int, get func(addr int) (*mbInfo, int, bool)) int {
	inc := 0
	for _, addr := range []int{nb.MbAddrA(mbAddr), nb.MbAddrB(mbAddr)} {
		if !nb.available(addr, curSliceIdx) {
			continue
		}
		if info, mode, ok := get(addr); ok && info.isIntra && mode != 0 {
			inc++
		}
	}
	return inc
}

// CtxIdxIncCodedBlockPatternLuma derives ctxIdxInc for one of the four luma
// 8x8 coded_block_pattern bits per 9.3.3.1.1.4, given the neighbouring 8x8
// blocks' non-zero-residual status (condTermFlag = 1 when neighbour is
// unavailable-and-intra or has a non-zero CBP bit there, consistent with
// the "treat unavailable intra neighbour as present with cbp bit set" rule;
// 0 otherwise).
func CtxIdxIncCodedBlockPatternLuma(leftAvailable, leftSet, topAvailable, topSet bool) int {
	inc := 0
	if !leftAvailable || leftSet {
		inc++
	}
	if !topAvailable || topSet {
		inc += 2
	}
	return inc
}

// CtxIdxIncRefIdx derives ctxIdxInc for ref_idx_lX's first bin per
// 9.3.3.1.1.6, simplified for non-MBAFF pictures: condTermFlagN is 0 if
// the neighbour is unavailable, intra-coded, skipped, or itself has
// ref_idx_lX equal to 0 for partition 0; else 1. ctxIdxInc is
// condTermFlagA + 2*condTermFlagB.
func CtxIdxIncRefIdx(nb *Neighbours, curSliceIdx, mbAddr, listIdx int, get func(addr int) (*mbInfo, bool)) int {
	weight := 1
	inc := 0
	for _, addr := range []int{nb.MbAddrA(mbAddr), nb.MbAddrB(mbAddr)} {
		condTerm := 0
		if nb.available(addr, curSliceIdx) {
			if info, ok := get(addr); ok && !info.isIntra && !info.skipped && info.refIdx[listIdx][0] != 0 {
				condTerm = 1
			}
		}
		inc += weight * condTerm
		weight = 2
	}
	return inc
}

// CtxIdxIncMvd derives ctxIdxInc for mvd_lX's first prefix bin per
// 9.3.3.1.1.7: each neighbour contributes 0, 1 or 2 depending on the
// magnitude of its own mvd component (thresholds 3 and 32), and is
// treated as contributing 0 when unavailable, intra-coded or skipped.
// ctxIdxInc is condTermFlagA + condTermFlagB, clipped to [0, 2].
func CtxIdxIncMvd(nb *Neighbours, curSliceIdx, mbAddr, listIdx, compIdx int, get func(addr int) (*mbInfo, bool)) int {
	contrib := func(addr int) int {
		if !nb.available(addr, curSliceIdx) {
			return 0
		}
		info, ok := get(addr)
		if !ok || info.isIntra || info.skipped {
			return 0
		}
		abs := info.mvd[listIdx][0][compIdx]
		if abs < 0 {
			abs = -abs
		}
		switch {
		case abs < 3:
			return 0
		case abs <= 32:
			return 1
		default:
			return 2
		}
	}
	sum := contrib(nb.MbAddrA(mbAddr)) + contrib(nb.MbAddrB(mbAddr))
	if sum > 2 {
		sum = 2
	}
	return sum
}

// CtxIdxIncCodedBlockPatternChroma derives ctxIdxInc for one bin of the
// coded_block_pattern chroma suffix per 9.3.3.1.1.5, simplified to the
// two-valued condTermFlagN (0 if the neighbour is unavailable or has
// cbpChroma == 0, else 1): ctxIdxInc = condTermFlagA + 2*condTermFlagB.
func CtxIdxIncCodedBlockPatternChroma(nb *Neighbours, curSliceIdx, mbAddr int, get func(addr int) (*mbInfo, bool)) int {
	weight := 1
	inc := 0
	for _, addr := range []int{nb.MbAddrA(mbAddr), nb.MbAddrB(mbAddr)} {
		condTerm := 0
		if nb.available(addr, curSliceIdx) {
			if info, ok := get(addr); ok && info.cbpChroma != 0 {
				condTerm = 1
			}
		}
		inc += weight * condTerm
		weight = 2
	}
	return inc
}

// CtxIdxIncTransformSize8x8Flag derives ctxIdxInc per 9.3.3.1.1.10: 0 if a
// neighbour is unavailable or did not itself use an 8x8 transform, else 1.
func CtxIdxIncTransformSize8x8Flag(nb *Neighbours, curSliceIdx, mbAddr int, get func(addr int) (*mbInfo, bool)) int {
	inc := 0
	for _, addr := range []int{nb.MbAddrA(mbAddr), nb.MbAddrB(mbAddr)} {
		if !nb.available(addr, curSliceIdx) {
			continue
		}
		if info, ok := get(addr); ok && info.transform8x8 {
			inc++
		}
	}
	return inc
}
