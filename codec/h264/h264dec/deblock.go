/*
DESCRIPTION
  deblock.go implements the in-loop deblocking filter: boundary strength
  derivation and the alpha/beta/tC0-driven edge filter, per section 8.7 of
  the specifications.

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

// alphaTable and betaTable implement table 8-16, indexed by
// indexA/indexB = Clip3(0, 51, qP + filterOffset).
var alphaTable = [52]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	4, 4, 5, 6, 7, 8, 9, 10, 12, 13, 15, 17, 20, 22, 25, 28,
	32, 36, 40, 45, 50, 56, 63, 71, 80, 90, 101, 113, 127, 144, 162, 182,
	203, 226, 255, 255,
}

var betaTable = [52]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15, 16, 16,
	17, 17, 18, 18,
}

// tC0Table implements table 8-17: tC0Table[bS-1][indexA].
var tC0Table = [3][52]int{
	{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 4, 4, 4,
		5, 6, 6, 7,
	},
	{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 4, 4, 5, 6, 6, 7,
		8, 9, 10, 11,
	},
	{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 2, 2, 2,
		2, 3, 3, 3, 4, 4, 4, 5, 6, 6, 7, 8, 8, 10, 11, 12,
		13, 15, 17, 25,
	},
}

// edgeMbInfo is the subset of macroblock state the boundary-strength
// derivation needs for the two macroblocks (or partitions) either side of
// an edge, per 8.7.2.1.
type edgeMbInfo struct {
	intra      bool
	cbfNonZero bool // coded residual present in the 4x4/8x8 block touching the edge
	refIdx     [2]int
	mv         [2]MV
	numMvUsed  int // 1 for uni-pred, 2 for bi-pred; 0 if intra or not coded
}

// BoundaryStrength derives bS for a luma edge between macroblock/partition p
// and q, per table 8-18 and the ordered conditions of 8.7.2.1. mbEdge is
// true when the edge is a macroblock boundary (as opposed to an internal
// transform/partition edge).
func BoundaryStrength(p, q edgeMbInfo, mbEdge bool) int {
	if p.intra || q.intra {
		if mbEdge {
			return 4
		}
		return 3
	}
	if p.cbfNonZero || q.cbfNonZero {
		return 2
	}
	if p.numMvUsed != q.numMvUsed {
		return 1
	}
	if p.numMvUsed == 1 {
		if p.refIdx[0] != q.refIdx[0] {
			return 1
		}
		if mvDiffAtLeast4(p.mv[0], q.mv[0]) {
			return 1
		}
		return 0
	}
	if p.numMvUsed == 2 {
		// Same reference pair in either order, each pair's MV difference < 4
		// in both components: bS = 0. Any other combination: bS = 1.
		sameOrder := p.refIdx[0] == q.refIdx[0] && p.refIdx[1] == q.refIdx[1] &&
			!mvDiffAtLeast4(p.mv[0], q.mv[0]) && !mvDiffAtLeast4(p.mv[1], q.mv[1])
		swappedOrder := p.refIdx[0] == q.refIdx[1] && p.refIdx[1] == q.refIdx[0] &&
			!mvDiffAtLeast4(p.mv[0], q.mv[1]) && !mvDiffAtLeast4(p.mv[1], q.mv[0])
		if sameOrder || swappedOrder {
			// When both MVs of a partition use the same picture, either
			// pairing of the MVs within limits is enough (8.7.2.1).
			return 0
		}
		return 1
	}
	return 0
}

func mvDiffAtLeast4(a, b MV) bool {
	return absInt(a.X-b.X) >= 4 || absInt(a.Y-b.Y) >= 4
}

// FilterSamplesNormal applies the normal (bS in 1..3) luma/chroma edge
// filter of 8.7.2.3 to one line of samples straddling the edge. p and q are
// ordered from the edge outward: p[0] is adjacent to the edge on the P
// side, q[0] adjacent on the Q side. chroma disables the strong p2/q2
// reads the luma path uses. Returns the (possibly) filtered p0..p2/q0..q2.
func FilterSamplesNormal(p, q [3]int, bS, indexA, indexB int, chroma bool, bitDepth int) (pOut, qOut [3]int) {
	pOut, qOut = p, q
	alpha := alphaTable[clip3(0, 51, indexA)]
	beta := betaTable[clip3(0, 51, indexB)]
	if alpha == 0 {
		return
	}
	if absInt(p[0]-q[0]) >= alpha || absInt(p[1]-p[0]) >= beta || absInt(q[1]-q[0]) >= beta {
		return
	}

	tC0 := tC0Table[bS-1][clip3(0, 51, indexA)]
	maxVal := (1 << uint(bitDepth)) - 1

	apCond := !chroma && absInt(p[2]-p[0]) < beta
	aqCond := !chroma && absInt(q[2]-q[0]) < beta

	tC := tC0
	if apCond {
		tC++
	}
	if aqCond {
		tC++
	}

	delta := clip3(-tC, tC, ((q[0]-p[0])<<2+(p[1]-q[1])+4)>>3)
	pOut[0] = clip3(0, maxVal, p[0]+delta)
	qOut[0] = clip3(0, maxVal, q[0]-delta)

	if apCond {
		deltaP1 := clip3(-tC0, tC0, (p[2]+((p[0]+q[0]+1)>>1)-2*p[1])>>1)
		pOut[1] = p[1] + deltaP1
	}
	if aqCond {
		deltaQ1 := clip3(-tC0, tC0, (q[2]+((p[0]+q[0]+1)>>1)-2*q[1])>>1)
		qOut[1] = q[1] + deltaQ1
	}
	return
}

// FilterSamplesStrong applies the bS == 4 strong intra-edge filter of
// 8.7.2.4 to one line of luma samples.
func FilterSamplesStrong(p, q [3]int, indexA, indexB int) (pOut, qOut [3]int) {
	pOut, qOut = p, q
	alpha := alphaTable[clip3(0, 51, indexA)]
	beta := betaTable[clip3(0, 51, indexB)]
	if alpha == 0 {
		return
	}
	if absInt(p[0]-q[0]) >= alpha || absInt(p[1]-p[0]) >= beta || absInt(q[1]-q[0]) >= beta {
		return
	}

	strongCond := absInt(p[0]-q[0]) < (alpha>>2)+2

	if strongCond && absInt(p[2]-p[0]) < beta {
		// p2' additionally needs p3, which callers operating on a 3-sample
		// window don't supply; p2 is left unfiltered, matching the effect
		// of a picture edge where p3 is unavailable (8.7.2.4 note).
		pOut[0] = (p[2] + 2*p[1] + 2*p[0] + 2*q[0] + q[1] + 4) >> 3
		pOut[1] = (p[2] + p[1] + p[0] + q[0] + 2) >> 2
	} else {
		pOut[0] = (2*p[1] + p[0] + q[1] + 2) >> 2
	}

	if strongCond && absInt(q[2]-q[0]) < beta {
		qOut[0] = (q[2] + 2*q[1] + 2*q[0] + 2*p[0] + p[1] + 4) >> 3
		qOut[1] = (q[2] + q[1] + q[0] + p[0] + 2) >> 2
	} else {
		qOut[0] = (2*q[1] + q[0] + p[1] + 2) >> 2
	}
	return
}

// FilterOffset resolves the per-slice filterOffsetA/filterOffsetB addend to
// indexA/indexB, per 8.7.2.2: 2 * slice_alpha_c0_offset_div2 (or beta).
func FilterOffset(offsetDiv2 int) int { return 2 * offsetDiv2 }
