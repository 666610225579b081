/*
DESCRIPTION
  interpred.go implements inter-prediction sample generation: motion vector
  prediction, the 6-tap luma interpolation filter, bilinear chroma
  interpolation and explicit/implicit weighted prediction, per section 8.4
  of the specifications.

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

// MV is a motion vector in quarter-luma-sample units.
type MV struct {
	X, Y int
}

// mvPredCandidate is one of the three neighbouring partitions (A, B, C/D)
// consulted by the median luma motion vector predictor, 8.4.1.3.
type mvPredCandidate struct {
	available bool
	refIdx    int
	mv        MV
}

// MedianMvPredictor derives the predicted luma motion vector mvpLX for a
// partition given its three neighbours and the target reference index
// refIdxLX, following 8.4.1.3.1's special cases before falling back to the
// componentwise median of 8.4.1.3.
func MedianMvPredictor(a, b, c mvPredCandidate, refIdxLX int) MV {
	matchA := a.available && a.refIdx == refIdxLX
	matchB := b.available && b.refIdx == refIdxLX
	matchC := c.available && c.refIdx == refIdxLX

	switch {
	case matchA && !matchB && !matchC:
		return a.mv
	case !matchA && matchB && !matchC:
		return b.mv
	case !matchA && !matchB && matchC:
		return c.mv
	}

	// 8.4.1.3.1: if B and C are both unavailable and A is available, B and C
	// are substituted by A for the purposes of the median below.
	if !b.available && !c.available && a.available {
		b, c = a, a
	}

	return MV{
		X: median3(a.mv.X, b.mv.X, c.mv.X),
		Y: median3(a.mv.Y, b.mv.Y, c.mv.Y),
	}
}

func median3(a, b, c int) int {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return b
}

// DirectSpatialMv derives the co-located-independent spatial direct mode
// motion vector and reference index for one 4x4 direct partition, per
// 8.4.1.2.2. colZeroFlag signals that the co-located block used reference
// index 0 and an MV within +-1 integer sample, which can force the result
// to zero per the standard's special case.
func DirectSpatialMv(refIdxL0, refIdxL1 int, mvL0, mvL1 MV, colZeroFlag bool, directZeroPredictionFlag bool) (MV, MV, int, int) {
	outRefIdxL0, outRefIdxL1 := refIdxL0, refIdxL1
	outMvL0, outMvL1 := mvL0, mvL1

	if directZeroPredictionFlag {
		outRefIdxL0, outRefIdxL1 = 0, 0
		outMvL0, outMvL1 = MV{}, MV{}
		return outMvL0, outMvL1, outRefIdxL0, outRefIdxL1
	}
	if outRefIdxL0 <= 0 && colZeroFlag {
		outMvL0 = MV{}
	}
	if outRefIdxL1 <= 0 && colZeroFlag {
		outMvL1 = MV{}
	}
	return outMvL0, outMvL1, outRefIdxL0, outRefIdxL1
}

// DirectTemporalMv scales the co-located motion vector mvCol by the POC
// distances involved, per 8.4.1.2.3's equation 8-201, producing mvL0; mvL1
// is mvL0 - mvCol, the difference used by the standard's temporal direct
// mode.
func DirectTemporalMv(mvCol MV, tb, td int) (mvL0, mvL1 MV) {
	if td == 0 {
		return mvCol, MV{}
	}
	tx := (16384 + absInt(td/2)) / td
	distScaleFactor := clip3(-1024, 1023, (tb*tx+32)>>6)
	mvL0 = MV{
		X: (distScaleFactor*mvCol.X + 128) >> 8,
		Y: (distScaleFactor*mvCol.Y + 128) >> 8,
	}
	mvL1 = MV{X: mvL0.X - mvCol.X, Y: mvL0.Y - mvCol.Y}
	return mvL0, mvL1
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// lumaTap6 applies the six-tap half-sample interpolation filter
// [1 -5 20 20 -5 1] to six consecutive integer-sample values, per 8.4.2.2.1.
func lumaTap6(p0, p1, p2, p3, p4, p5 int) int {
	return p0 - 5*p1 + 20*p2 + 20*p3 - 5*p4 + p5
}

// InterpolateLuma6Tap produces the full-pel, half-pel and quarter-pel luma
// sample array values surrounding integer position (x, y) for one 4x4 luma
// block, given a read-only accessor over the reference picture's luma
// plane. frac is in quarter-sample units (0..3 in both axes). Clipping is
// performed against [0, maxVal].
func InterpolateLuma6Tap(at func(x, y int) int, x, y, fracX, fracY, maxVal int) int {
	// Fetch the 6x6 integer-sample support window once; cc/dd etc. name the
	// half-sample positions per figure 8-4's lettering (b/h horizontal and
	// vertical half-pel, j the centre half-pel, a/c/d/n/f/i/k/q quarter-pel).
	col := func(dx int) [6]int {
		var v [6]int
		for i := -2; i <= 3; i++ {
			v[i+2] = at(x+dx, y+i)
		}
		return v
	}
	row := func(dy int) [6]int {
		var v [6]int
		for i := -2; i <= 3; i++ {
			v[i+2] = at(x+i, y+dy)
		}
		return v
	}

	g := at(x, y)
	switch {
	case fracX == 0 && fracY == 0:
		return g
	case fracY == 0:
		r := row(0)
		b := clip1((lumaTap6(r[0], r[1], r[2], r[3], r[4], r[5])+16)>>5, maxVal)
		if fracX == 2 {
			return b
		}
		if fracX == 1 {
			return (g + b + 1) >> 1
		}
		g1 := at(x+1, y)
		return (g1 + b + 1) >> 1
	case fracX == 0:
		c := col(0)
		hv := clip1((lumaTap6(c[0], c[1], c[2], c[3], c[4], c[5])+16)>>5, maxVal)
		if fracY == 2 {
			return hv
		}
		if fracY == 1 {
			return (g + hv + 1) >> 1
		}
		g2 := at(x, y+1)
		return (g2 + hv + 1) >> 1
	default:
		// Centre half-pel j: vertical filter over six horizontally
		// half-pel-filtered intermediate values (8-230..8-239 family).
		var mid [6]int
		for i := -2; i <= 3; i++ {
			r := row(i)
			mid[i+2] = lumaTap6(r[0], r[1], r[2], r[3], r[4], r[5])
		}
		j := clip1((mid[0]-5*mid[1]+20*mid[2]+20*mid[3]-5*mid[4]+mid[5]+512)>>10, maxVal)

		r0 := row(0)
		b := clip1((lumaTap6(r0[0], r0[1], r0[2], r0[3], r0[4], r0[5])+16)>>5, maxVal)
		c0 := col(0)
		hv := clip1((lumaTap6(c0[0], c0[1], c0[2], c0[3], c0[4], c0[5])+16)>>5, maxVal)

		switch {
		case fracX == 1 && fracY == 1:
			return (b + hv + 1) >> 1
		case fracX == 3 && fracY == 1:
			r := row(0)
			b2 := clip1((lumaTap6(r[0], r[1], r[2], r[3], r[4], r[5])+16)>>5, maxVal)
			c1 := col(1)
			hv2 := clip1((lumaTap6(c1[0], c1[1], c1[2], c1[3], c1[4], c1[5])+16)>>5, maxVal)
			return (b2 + hv2 + 1) >> 1
		case fracX == 1 && fracY == 3:
			return (j + b + 1) >> 1
		case fracX == 3 && fracY == 3:
			return (j + hv + 1) >> 1
		case fracX == 2:
			return (b + j + 1) >> 1
		case fracX == 0 || fracY == 2:
			return (hv + j + 1) >> 1
		default:
			return (b + hv + 1) >> 1
		}
	}
}

func clip1(v, maxVal int) int { return clip3(0, maxVal, v) }

// InterpolateChromaBilinear derives one chroma sample at 1/8-sample
// position (fracX, fracY) via the bilinear filter of 8.4.2.2.2, equation
// 8-266. at returns the integer-sample chroma value at (x, y).
func InterpolateChromaBilinear(at func(x, y int) int, x, y, fracX, fracY int) int {
	a := at(x, y)
	b := at(x+1, y)
	c := at(x, y+1)
	d := at(x+1, y+1)
	return ((8-fracX)*(8-fracY)*a + fracX*(8-fracY)*b + (8-fracX)*fracY*c + fracX*fracY*d + 32) >> 6
}

// WeightedSamplePredExplicit implements explicit weighted sample prediction
// for a single prediction list, per 8.4.2.3.2, equation 8-284/8-285.
func WeightedSamplePredExplicit(pred, logWD, w, o, maxVal int) int {
	if logWD >= 1 {
		v := ((pred*w + (1 << uint(logWD-1))) >> uint(logWD)) + o
		return clip3(0, maxVal, v)
	}
	return clip3(0, maxVal, pred*w+o)
}

// WeightedSamplePredDefault implements default (unweighted, single-list)
// weighted sample prediction, equation 8-282: simple rounding average is
// not applied for uni-prediction, the predicted sample is used directly.
func WeightedSamplePredDefault(pred int) int { return pred }

// WeightedSamplePredBiDefault implements default bi-predictive weighted
// sample prediction, equation 8-283.
func WeightedSamplePredBiDefault(predL0, predL1 int) int {
	return (predL0 + predL1 + 1) >> 1
}

// WeightedSamplePredBiExplicit implements explicit bi-predictive weighted
// sample prediction, equation 8-286.
func WeightedSamplePredBiExplicit(predL0, predL1, logWD, w0, w1, o0, o1, maxVal int) int {
	if logWD >= 1 {
		v := ((predL0*w0 + predL1*w1 + (1 << uint(logWD))) >> uint(logWD+1)) + ((o0 + o1 + 1) >> 1)
		return clip3(0, maxVal, v)
	}
	return clip3(0, maxVal, predL0*w0+predL1*w1+((o0+o1+1)>>1))
}
