/*
DESCRIPTION
  transform.go implements inverse scanning, dequantisation and the integer
  inverse transforms used to reconstruct residual samples, per sections 8.5
  and 8.6 of the specifications.

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

// zigzag4x4 is the inverse zig-zag scan for a 4x4 frame block (table 8-13,
// frame scan): zigzag4x4[scanPos] gives the raster position.
var zigzag4x4 = [16]int{0, 1, 4, 8, 5, 2, 3, 6, 9, 12, 13, 10, 7, 11, 14, 15}

// fieldScan4x4 is the inverse scan for field-coded 4x4 blocks (table 8-13,
// field scan).
var fieldScan4x4 = [16]int{0, 4, 1, 8, 12, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11, 15}

// zigzag8x8 is the inverse zig-zag scan for an 8x8 frame block (table 8-14).
var zigzag8x8 = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// InverseScan4x4 rearranges a length-16 level array from scan order into
// raster order, using the field scan when field is true.
func InverseScan4x4(levels [16]int, field bool) [16]int {
	var out [16]int
	scan := zigzag4x4
	if field {
		scan = fieldScan4x4
	}
	for i, pos := range scan {
		out[pos] = levels[i]
	}
	return out
}

// InverseScan8x8 rearranges a length-64 level array from scan order into
// raster order (8.5.6 uses only the frame scan for 8x8 blocks in the
// profiles this decoder covers).
func InverseScan8x8(levels [64]int) [64]int {
	var out [64]int
	for i, pos := range zigzag8x8 {
		out[pos] = levels[i]
	}
	return out
}

// normAdjust4x4 holds the scaling factor V (table 8-15) indexed by
// [qPRem][class], for the three position classes of 8.5.9: both coordinates
// even -> column 0; both coordinates odd -> column 1; remaining -> column 2.
// posClass4x4 maps a raster position to its class.
var normAdjust4x4 = [6][3]int{
	{10, 16, 13},
	{11, 18, 14},
	{13, 20, 16},
	{14, 23, 18},
	{16, 25, 20},
	{18, 29, 23},
}

// posClass4x4 maps a raster position 0..15 to the normAdjust column (0,1,2).
var posClass4x4 = [16]int{
	0, 2, 0, 2,
	2, 1, 2, 1,
	0, 2, 0, 2,
	2, 1, 2, 1,
}

// LevelScale4x4 returns V[qPRem][pos] for a 4x4 block, folding in the
// per-position weighting scaling list entry w (16 at flat default).
func LevelScale4x4(qPRem, pos, weight int) int {
	return normAdjust4x4[qPRem][posClass4x4[pos]] * weight
}

// Dequant4x4 performs the inverse-quantisation step of 8.5.12.1 for a 4x4
// luma or chroma-AC block in raster order, given scalingList (16 weights,
// raster order, 16 at flat default) and the block's QP. bypass, when set,
// skips scaling entirely (qpprime_y_zero_transform_bypass_flag case).
func Dequant4x4(coeff [16]int, qp int, scalingList [16]int, bypass bool) [16]int {
	if bypass {
		return coeff
	}
	qPPer := qp / 6
	qPRem := qp % 6
	var d [16]int
	for i := 0; i < 16; i++ {
		w := scalingList[i]
		if w == 0 {
			w = 16
		}
		ls := LevelScale4x4(qPRem, i, w)
		if qPPer >= 4 {
			d[i] = (coeff[i] * ls) << uint(qPPer-4)
		} else {
			d[i] = (coeff[i]*ls + (1 << uint(3-qPPer))) >> uint(4-qPPer)
		}
	}
	return d
}

// normAdjust8x8 holds normAdjust (table 8-16) by [qPRem][class].
var normAdjust8x8 = [6][6]int{
	{20, 18, 32, 19, 25, 24},
	{22, 19, 35, 21, 28, 26},
	{26, 23, 42, 24, 33, 31},
	{28, 25, 45, 26, 35, 33},
	{32, 28, 51, 30, 40, 38},
	{36, 32, 58, 34, 46, 43},
}

// posClass8x8 maps a raster position 0..63 to the normAdjust8x8 column per
// table 8-16's position classes.
var posClass8x8 = buildPosClass8x8()

func buildPosClass8x8() [64]int {
	var c [64]int
	classOf := func(x, y int) int {
		switch {
		case x%4 == 0 && y%4 == 0:
			return 0
		case x%2 == 1 && y%2 == 1:
			return 1
		case x%4 == 2 && y%4 == 2:
			return 2
		case (x%4 == 0 && y%2 == 1) || (x%2 == 1 && y%4 == 0):
			return 3
		case (x%4 == 0 && y%4 == 2) || (x%4 == 2 && y%4 == 0):
			return 4
		default:
			return 5
		}
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c[y*8+x] = classOf(x, y)
		}
	}
	return c
}

// Dequant8x8 performs the 8x8 inverse-quantisation step of 8.5.13.1.
func Dequant8x8(coeff [64]int, qp int, scalingList [64]int, bypass bool) [64]int {
	if bypass {
		return coeff
	}
	qPPer := qp / 6
	qPRem := qp % 6
	var d [64]int
	for i := 0; i < 64; i++ {
		w := scalingList[i]
		if w == 0 {
			w = 16
		}
		ls := normAdjust8x8[qPRem][posClass8x8[i]] * w
		if qPPer >= 6 {
			d[i] = (coeff[i] * ls) << uint(qPPer-6)
		} else {
			d[i] = (coeff[i]*ls + (1 << uint(5-qPPer))) >> uint(6-qPPer)
		}
	}
	return d
}

// InverseTransform4x4 applies the core 4x4 integer inverse transform of
// 8.5.12.2 to a dequantised coefficient block in raster order and returns
// the residual samples, also in raster order.
func InverseTransform4x4(d [16]int) [16]int {
	var e [16]int // after row transform (per-row: e0..e3)
	for row := 0; row < 4; row++ {
		d0, d1, d2, d3 := d[row*4], d[row*4+1], d[row*4+2], d[row*4+3]
		e0 := d0 + d2
		e1 := d0 - d2
		e2 := d1>>1 - d3
		e3 := d1 + d3>>1
		e[row*4+0] = e0 + e3
		e[row*4+1] = e1 + e2
		e[row*4+2] = e1 - e2
		e[row*4+3] = e0 - e3
	}
	var f [16]int
	for col := 0; col < 4; col++ {
		e0, e1, e2, e3 := e[col], e[4+col], e[8+col], e[12+col]
		g0 := e0 + e2
		g1 := e0 - e2
		g2 := e1>>1 - e3
		g3 := e1 + e3>>1
		f[col] = (g0 + g3 + 32) >> 6
		f[4+col] = (g1 + g2 + 32) >> 6
		f[8+col] = (g1 - g2 + 32) >> 6
		f[12+col] = (g0 - g3 + 32) >> 6
	}
	return f
}

// HadamardDC4x4 applies the 4x4 Hadamard transform used for I_16x16 luma DC
// coefficients (8.5.10), operating on a raster-order 4x4 block of DC values
// (already dequantised per 8.5.10's own scaling rule, folded in by the
// caller via qp/scale).
func HadamardDC4x4(c [16]int) [16]int {
	var e [16]int
	for row := 0; row < 4; row++ {
		c0, c1, c2, c3 := c[row*4], c[row*4+1], c[row*4+2], c[row*4+3]
		e0 := c0 + c2
		e1 := c0 - c2
		e2 := c1 - c3
		e3 := c1 + c3
		e[row*4+0] = e0 + e3
		e[row*4+1] = e1 + e2
		e[row*4+2] = e1 - e2
		e[row*4+3] = e0 - e3
	}
	var f [16]int
	for col := 0; col < 4; col++ {
		e0, e1, e2, e3 := e[col], e[4+col], e[8+col], e[12+col]
		f0 := e0 + e2
		f1 := e0 - e2
		f2 := e1 - e3
		f3 := e1 + e3
		f[col] = f0 + f3
		f[4+col] = f1 + f2
		f[8+col] = f1 - f2
		f[12+col] = f0 - f3
	}
	return f
}

// HadamardDC2x2 applies the 2x2 Hadamard transform used for 4:2:0 chroma DC
// coefficients (8.5.11.1).
func HadamardDC2x2(c [4]int) [4]int {
	c0, c1, c2, c3 := c[0], c[1], c[2], c[3]
	return [4]int{
		c0 + c1 + c2 + c3,
		c0 - c1 + c2 - c3,
		c0 + c1 - c2 - c3,
		c0 - c1 - c2 + c3,
	}
}

// HadamardDC2x4 applies the 2x4 Hadamard transform used for 4:2:2 chroma DC
// coefficients (8.5.11.2), operating on an 8-element array laid out as 4
// rows of 2 columns, raster order.
func HadamardDC2x4(c [8]int) [8]int {
	// Column transform (4-point) then row transform (2-point), per 8.5.11.2.
	var a [8]int
	for col := 0; col < 2; col++ {
		c0, c1, c2, c3 := c[col], c[2+col], c[4+col], c[6+col]
		e0 := c0 + c2
		e1 := c0 - c2
		e2 := c1 - c3
		e3 := c1 + c3
		a[col] = e0 + e3
		a[2+col] = e1 + e2
		a[4+col] = e1 - e2
		a[6+col] = e0 - e3
	}
	var f [8]int
	for row := 0; row < 4; row++ {
		b0, b1 := a[row*2], a[row*2+1]
		f[row*2] = b0 + b1
		f[row*2+1] = b0 - b1
	}
	return f
}

// InverseTransform8x8 applies the 8x8 integer inverse transform of
// 8.5.13.2 to a dequantised coefficient block in raster order.
func InverseTransform8x8(d [64]int) [64]int {
	var e [64]int
	for row := 0; row < 8; row++ {
		transform8Point(d[row*8:row*8+8], e[row*8:row*8+8])
	}
	var col8, out8 [8]int
	var f [64]int
	for col := 0; col < 8; col++ {
		for r := 0; r < 8; r++ {
			col8[r] = e[r*8+col]
		}
		transform8Point(col8[:], out8[:])
		for r := 0; r < 8; r++ {
			f[r*8+col] = (out8[r] + 32) >> 6
		}
	}
	return f
}

// transform8Point applies the 8-point integer butterfly shared by rows and
// columns of the 8x8 inverse transform (8.5.13.2, equations 8-338..8-345).
func transform8Point(in, out []int) {
	a0 := in[0] + in[4]
	a4 := in[0] - in[4]
	a2 := in[2]>>1 - in[6]
	a6 := in[2] + in[6]>>1
	b0 := a0 + a6
	b2 := a4 + a2
	b4 := a4 - a2
	b6 := a0 - a6

	a1 := -in[3] + in[5] - in[7] - in[7]>>1
	a3 := in[1] + in[7] - in[3] - in[3]>>1
	a5 := -in[1] + in[7] + in[5] + in[5]>>1
	a7 := in[3] + in[5] + in[1] + in[1]>>1

	b1 := a1 + a7>>2
	b7 := a7 - a1>>2
	b3 := a3 + a5>>2
	b5 := a3>>2 - a5

	out[0] = b0 + b7
	out[1] = b2 + b5
	out[2] = b4 + b3
	out[3] = b6 + b1
	out[4] = b6 - b1
	out[5] = b4 - b3
	out[6] = b2 - b5
	out[7] = b0 - b7
}

// TransformBypass reports whether residual reconstruction should skip both
// dequantisation and the inverse transform entirely, per the closing note
// of section 4.7 / 8.5: only when the PPS/SPS have enabled lossless coding
// and the current macroblock's QPY is exactly 0.
func TransformBypass(qpPrimeYZeroTransformBypassFlag bool, qpY int) bool {
	return qpPrimeYZeroTransformBypassFlag && qpY == 0
}
