/*
DESCRIPTION
  intrapred.go implements the intra-prediction sample generators for 4x4,
  8x8 and 16x16 luma and for chroma, per section 8.3 of the specifications.

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

// Intra4x4PredMode enumerates the nine 4x4 luma prediction modes, table 8-2.
type Intra4x4PredMode int

const (
	Intra4x4Vertical Intra4x4PredMode = iota
	Intra4x4Horizontal
	Intra4x4DC
	Intra4x4DiagDownLeft
	Intra4x4DiagDownRight
	Intra4x4VertRight
	Intra4x4HorDown
	Intra4x4VertLeft
	Intra4x4HorUp
)

// Intra16x16PredMode enumerates the four 16x16 luma prediction modes,
// table 7-11's mb_type suffix.
type Intra16x16PredMode int

const (
	Intra16x16Vertical Intra16x16PredMode = iota
	Intra16x16Horizontal
	Intra16x16DC
	Intra16x16Plane
)

// ChromaPredMode enumerates the four chroma prediction modes, table 8-5.
type ChromaPredMode int

const (
	ChromaDC ChromaPredMode = iota
	ChromaHorizontal
	ChromaVertical
	ChromaPlane
)

// neighbourSamples4x4 holds the up-to-13 neighbour luma samples needed by a
// 4x4 predictor: p[-1,-1], p[-1,0..3] (left column) and p[0..7,-1] (top row
// plus top-right extension).
type neighbourSamples4x4 struct {
	left       [4]int
	leftAvail  bool
	top        [8]int // includes top-right extension, indices 4..7
	topAvail   bool
	topRight   bool // whether top[4:8] are real samples, not replicated
	corner     int
	cornerOk   bool
	bitDepth   int
}

func dcDefault(bitDepth int) int { return 1 << uint(bitDepth-1) }

// Predict4x4 fills a 4x4 raster-order output block using mode and the
// supplied neighbour samples, per 8.3.1.2.
func Predict4x4(mode Intra4x4PredMode, n neighbourSamples4x4) [16]int {
	var out [16]int
	switch mode {
	case Intra4x4Vertical:
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				out[y*4+x] = n.top[x]
			}
		}
	case Intra4x4Horizontal:
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				out[y*4+x] = n.left[y]
			}
		}
	case Intra4x4DC:
		sum, cnt := 0, 0
		if n.topAvail {
			for x := 0; x < 4; x++ {
				sum += n.top[x]
			}
			cnt += 4
		}
		if n.leftAvail {
			for y := 0; y < 4; y++ {
				sum += n.left[y]
			}
			cnt += 4
		}
		var dc int
		switch {
		case cnt == 8:
			dc = (sum + 4) >> 3
		case cnt == 4:
			dc = (sum + 2) >> 2
		default:
			dc = dcDefault(n.bitDepth)
		}
		for i := range out {
			out[i] = dc
		}
	case Intra4x4DiagDownLeft:
		p := func(i int) int { return n.top[i] }
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				i := x + y
				if i == 6 {
					out[y*4+x] = (p(6) + 3*p(7) + 2) >> 2
				} else {
					out[y*4+x] = (p(i) + 2*p(i+1) + p(i+2) + 2) >> 2
				}
			}
		}
	case Intra4x4DiagDownRight:
		// Build an extended array q[-4..3] = left[3..0], corner, top[0..3]
		var q [9]int // q[0..3]=left reversed, q[4]=corner, q[5..8]=top
		q[0], q[1], q[2], q[3] = n.left[3], n.left[2], n.left[1], n.left[0]
		q[4] = n.corner
		q[5], q[6], q[7], q[8] = n.top[0], n.top[1], n.top[2], n.top[3]
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				if x > y {
					i := 4 + (x - y)
					out[y*4+x] = (q[i-1] + 2*q[i] + q[i+1] + 2) >> 2
				} else if x < y {
					i := 4 - (y - x)
					out[y*4+x] = (q[i-1] + 2*q[i] + q[i+1] + 2) >> 2
				} else {
					out[y*4+x] = (q[3] + 2*q[4] + q[5] + 2) >> 2
				}
			}
		}
	case Intra4x4VertRight:
		var q [9]int
		q[0], q[1], q[2], q[3] = n.left[3], n.left[2], n.left[1], n.left[0]
		q[4] = n.corner
		q[5], q[6], q[7], q[8] = n.top[0], n.top[1], n.top[2], n.top[3]
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				zVR := 2*x - y
				switch {
				case zVR >= 0 && zVR%2 == 0:
					i := 4 + x - y/2
					out[y*4+x] = (q[i-1] + q[i] + 1) >> 1
				case zVR >= 0:
					i := 4 + x - (y-1)/2
					out[y*4+x] = (q[i-2] + 2*q[i-1] + q[i] + 2) >> 2
				case zVR == -1:
					out[y*4+x] = (q[3] + 2*q[4] + q[5] + 2) >> 2
				default:
					i := 3 - (y - 2*x - 1)
					if i < 0 {
						i = 0
					}
					out[y*4+x] = (q[i] + 2*q[i+1] + q[i+2] + 2) >> 2
				}
			}
		}
	case Intra4x4HorDown:
		var q [9]int
		q[0], q[1], q[2], q[3] = n.left[3], n.left[2], n.left[1], n.left[0]
		q[4] = n.corner
		q[5], q[6], q[7], q[8] = n.top[0], n.top[1], n.top[2], n.top[3]
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				zHD := 2*y - x
				switch {
				case zHD >= 0 && zHD%2 == 0:
					i := 4 + y - x/2
					out[y*4+x] = (q[i-1] + q[i] + 1) >> 1
				case zHD >= 0:
					i := 4 + y - (x-1)/2
					out[y*4+x] = (q[i-2] + 2*q[i-1] + q[i] + 2) >> 2
				case zHD == -1:
					out[y*4+x] = (q[3] + 2*q[4] + q[5] + 2) >> 2
				default:
					i := 3 - (x - 2*y - 1)
					if i < 0 {
						i = 0
					}
					out[y*4+x] = (q[i] + 2*q[i+1] + q[i+2] + 2) >> 2
				}
			}
		}
	case Intra4x4VertLeft:
		p := func(i int) int { return n.top[i] }
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				i := x + y/2
				if y%2 == 0 {
					out[y*4+x] = (p(i) + p(i+1) + 1) >> 1
				} else {
					out[y*4+x] = (p(i) + 2*p(i+1) + p(i+2) + 2) >> 2
				}
			}
		}
	case Intra4x4HorUp:
		l := func(i int) int {
			if i > 3 {
				return n.left[3]
			}
			return n.left[i]
		}
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				zHU := x + 2*y
				switch {
				case zHU < 5 && zHU%2 == 0:
					out[y*4+x] = (l(y+x/2) + l(y+x/2+1) + 1) >> 1
				case zHU < 5:
					out[y*4+x] = (l(y+x/2) + 2*l(y+x/2+1) + l(y+x/2+2) + 2) >> 2
				case zHU == 5:
					out[y*4+x] = (l(2) + 3*l(3) + 2) >> 2
				default:
					out[y*4+x] = n.left[3]
				}
			}
		}
	}
	return out
}

// Predict16x16 fills a 16x16 raster-order output block using mode, per
// 8.3.3. top/left are the 16 neighbour samples on each side; corner is
// p[-1,-1].
func Predict16x16(mode Intra16x16PredMode, top, left [16]int, topAvail, leftAvail bool, corner int, bitDepth int) [256]int {
	var out [256]int
	switch mode {
	case Intra16x16Vertical:
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				out[y*16+x] = top[x]
			}
		}
	case Intra16x16Horizontal:
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				out[y*16+x] = left[y]
			}
		}
	case Intra16x16DC:
		sum, cnt := 0, 0
		if topAvail {
			for x := 0; x < 16; x++ {
				sum += top[x]
			}
			cnt += 16
		}
		if leftAvail {
			for y := 0; y < 16; y++ {
				sum += left[y]
			}
			cnt += 16
		}
		var dc int
		switch {
		case cnt == 32:
			dc = (sum + 16) >> 5
		case cnt == 16:
			dc = (sum + 8) >> 4
		default:
			dc = dcDefault(bitDepth)
		}
		for i := range out {
			out[i] = dc
		}
	case Intra16x16Plane:
		h, v := 0, 0
		for i := 0; i < 7; i++ {
			h += (i + 1) * (top[8+i] - top[6-i])
			v += (i + 1) * (left[8+i] - left[6-i])
		}
		h += 8 * (top[15] - corner)
		v += 8 * (left[15] - corner)
		b := (5*h + 32) >> 6
		c := (5*v + 32) >> 6
		a := 16 * (top[15] + left[15])
		maxVal := (1 << uint(bitDepth)) - 1
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				val := (a + b*(x-7) + c*(y-7) + 16) >> 5
				out[y*16+x] = clip3(0, maxVal, val)
			}
		}
	}
	return out
}

// PredictChroma fills one chroma component plane (size mbWidthC x
// mbHeightC, raster order) using mode, per 8.3.4.
func PredictChroma(mode ChromaPredMode, top, left []int, topAvail, leftAvail bool, corner int, mbWidthC, mbHeightC, bitDepth int) []int {
	out := make([]int, mbWidthC*mbHeightC)
	switch mode {
	case ChromaVertical:
		for y := 0; y < mbHeightC; y++ {
			for x := 0; x < mbWidthC; x++ {
				out[y*mbWidthC+x] = top[x]
			}
		}
	case ChromaHorizontal:
		for y := 0; y < mbHeightC; y++ {
			for x := 0; x < mbWidthC; x++ {
				out[y*mbWidthC+x] = left[y]
			}
		}
	case ChromaPlane:
		xCF := 4 * boolToInt(mbWidthC == 16)
		yCF := 4 * boolToInt(mbHeightC == 16)
		// Index -1 of top/left is the top-left corner sample.
		edge := func(p []int, i int) int {
			if i < 0 {
				return corner
			}
			return p[i]
		}
		h, v := 0, 0
		for i := 0; i <= 3+xCF; i++ {
			h += (i + 1) * (top[4+xCF+i] - edge(top, 2+xCF-i))
		}
		for i := 0; i <= 3+yCF; i++ {
			v += (i + 1) * (left[4+yCF+i] - edge(left, 2+yCF-i))
		}
		a := 16 * (top[mbWidthC-1] + left[mbHeightC-1])
		b := (34 - 29*boolToInt(mbWidthC == 16)) * h
		b = (b + 32) >> 6
		c := (34 - 29*boolToInt(mbHeightC == 16)) * v
		c = (c + 32) >> 6
		maxVal := (1 << uint(bitDepth)) - 1
		for y := 0; y < mbHeightC; y++ {
			for x := 0; x < mbWidthC; x++ {
				val := (a + b*(x-3-xCF) + c*(y-3-yCF) + 16) >> 5
				out[y*mbWidthC+x] = clip3(0, maxVal, val)
			}
		}
	default: // DC, derived per 4x4 chroma block per 8.3.4.1
		for by := 0; by < mbHeightC; by += 4 {
			for bx := 0; bx < mbWidthC; bx += 4 {
				// Blocks on the top-left diagonal of the chroma array prefer
				// top-over-left when only one edge is available (matching the
				// luma 4x4 DC corner rule); other blocks prefer left-over-top.
				preferTop := bx >= by
				sumT, sumL := 0, 0
				if topAvail {
					for x := bx; x < bx+4; x++ {
						sumT += top[x]
					}
				}
				if leftAvail {
					for y := by; y < by+4; y++ {
						sumL += left[y]
					}
				}
				var dc int
				switch {
				case topAvail && leftAvail:
					dc = (sumT + sumL + 4) >> 3
				case topAvail && preferTop:
					dc = (sumT + 2) >> 2
				case leftAvail:
					dc = (sumL + 2) >> 2
				case topAvail:
					dc = (sumT + 2) >> 2
				default:
					dc = dcDefault(bitDepth)
				}
				for y := by; y < by+4; y++ {
					for x := bx; x < bx+4; x++ {
						out[y*mbWidthC+x] = dc
					}
				}
			}
		}
	}
	return out
}

func clip3(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
