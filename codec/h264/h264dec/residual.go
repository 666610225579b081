/*
DESCRIPTION
  residual.go drives the CAVLC residual() syntax structure (7.3.5.3) that
  macroblock_layer() calls once mb_qp_delta has been read: it parses the
  coefficient levels belonging to the current macroblock and hands them to
  the neighbour registry so later blocks' nC derivation (9.2.1) sees them.

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
	"github.com/luuvish/h264dec/codec/h264/h264dec/bits"
	"github.com/pkg/errors"
)

// decodeResidualCAVLC parses residual() for the current macroblock along
// the CAVLC path. Only the Intra16x16DCLevel and ChromaDCLevel blocks are
// implemented: luma/chroma AC and 4x4-block residual require TotalCoeff <
// maxNumCoeff total_zeros/run_before parsing (tables 9-7/9-8/9-10), which
// this decoder does not yet have (see DESIGN.md); those paths return an
// error instead of silently producing wrong coefficients. Inter
// macroblocks with a zero coded_block_pattern (the P-copy/P-skip
// scenarios this decoder targets) never reach residual() at all, so that
// gap does not block them.
func decodeResidualCAVLC(vid *VideoStream, ctx *SliceContext, br *bits.BitReader, m mbPartPredMode) error {
	data := ctx.Slice.SliceData
	nb := ctx.neighbours
	mbAddr := ctx.curMbAddr

	if CodedBlockPatternLuma(data) != 0 || CodedBlockPatternChroma(data) == 2 {
		return errors.New("CAVLC luma/chroma AC residual is not supported")
	}

	if m == intra16x16 {
		totalCoeff, trailingOnes, _, _, err := totalCoeffFor(br, vid, ctx, nb, mbAddr, intra16x16DCLevel, 16, 0)
		if err != nil {
			return errors.Wrap(err, "could not parse Intra16x16DCLevel coeff_token")
		}
		levels, err := residualBlockCavlc(br, totalCoeff, trailingOnes, 16)
		if err != nil {
			return errors.Wrap(err, "could not parse Intra16x16DCLevel")
		}
		copy(data.Intra16x16DCLevel[:], levels)
		recordNNZ(nb, mbAddr, 0, totalCoeff)
	}

	if ctx.chromaArrayType != 1 && ctx.chromaArrayType != 2 {
		return nil
	}
	// 7.3.5.3: ChromaDCLevel is only present when coded_block_pattern's
	// chroma bits say so; a zero CodedBlockPatternChroma (common for
	// P_Skip-adjacent macroblocks with no chroma residual) codes nothing
	// here at all.
	if CodedBlockPatternChroma(data)&3 == 0 {
		return nil
	}
	numC8x8 := 1
	if ctx.chromaArrayType == 2 {
		numC8x8 = 2
	}
	maxNumCoeff := 4 * numC8x8
	for iCbCr := 0; iCbCr < 2; iCbCr++ {
		totalCoeff, trailingOnes, _, _, err := totalCoeffFor(br, vid, ctx, nb, mbAddr, chromaDCLevel, maxNumCoeff, 0)
		if err != nil {
			return errors.Wrap(err, "could not parse ChromaDCLevel coeff_token")
		}
		levels, err := residualBlockCavlc(br, totalCoeff, trailingOnes, maxNumCoeff)
		if err != nil {
			return errors.Wrap(err, "could not parse ChromaDCLevel")
		}
		copy(data.ChromaDCLevel[iCbCr][:], levels)
	}
	return nil
}

// totalCoeffFor wraps parseTotalCoeffAndTrailingOnes with the arguments
// decodeResidualCAVLC's callers need, defaulting usingMbPredMode to true
// (this decoder does not parse Annex A slice-data partitions, the only
// case where it would matter; see parseTotalCoeffAndTrailingOnes).
func totalCoeffFor(br *bits.BitReader, vid *VideoStream, ctx *SliceContext, nb *Neighbours, mbAddr, level, maxNumCoef, inBlockIdx int) (totalCoeff, trailingOnes, nC, outBlockIdx int, err error) {
	return parseTotalCoeffAndTrailingOnes(br, vid, ctx, nb, 0, mbAddr, true, level, maxNumCoef, inBlockIdx)
}

// recordNNZ seeds the neighbour registry's per-4x4-block TotalCoeff count
// for blkIdx ahead of the full mbInfo record NewSliceData writes once the
// whole macroblock is decoded, so within-macroblock neighbour lookups
// (e.g. a later 4x4 block's nC derivation) see it immediately. Only
// blkIdx 0 is populated today, matching decodeResidualCAVLC's DC-only
// scope.
func recordNNZ(nb *Neighbours, mbAddr, blkIdx, totalCoeff int) {
	info, ok := nb.Info(mbAddr)
	if !ok {
		info = &mbInfo{addr: mbAddr}
	}
	info.nnz[blkIdx] = totalCoeff
	nb.Record(mbAddr, info)
}
