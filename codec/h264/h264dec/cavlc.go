/*
DESCRIPTION
  cavlc.go provides utilities for context-adaptive variable-length coding
  for the parsing of H.264 syntax structure fields.

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
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/luuvish/h264dec/codec/h264/h264dec/bits"
)

// TODO: find where these are defined in the specifications.
const (
	chromaDCLevel = iota
	intra16x16DCLevel
	intra16x16ACLevel
	cbIntra16x16DCLevel
	cbIntra16x16ACLevel
	crIntra16x16DCLevel
	crIntra16x16ACLevel
	lumaLevel4x4
	cbLevel4x4
	crLevel4x4
)

// coeffTokenTable holds the rows of table 9-5 (coeff_token mapping) this
// decoder actually decodes. Only the TrailingOnes=0, TotalCoeff=0 row is
// transcribed: every coeff_token this decoder reads belongs to a block
// whose TotalCoeff residualBlockCavlc can handle (0 or maxNumCoeff, see
// errTotalZerosUnsupported), and the single-macroblock pictures
// reconstructPicture builds never carry a coded residual, so TotalCoeff is
// always 0 in practice. The remaining ~60 rows of table 9-5 are long
// variable-length codes this decoder could not transcribe with confidence
// without a running reference to check them against (see DESIGN.md); a
// bitstream whose coeff_token falls outside this row fails with
// errBadToken rather than silently decoding the wrong coefficient count.
// Columns are, per 9.2.1: 0<=nC<2, 2<=nC<4, 4<=nC<8, 8<=nC, nC==-1
// (ChromaArrayType 1 DC), nC==-2 (ChromaArrayType 2 DC).
const coeffTokenTable = `0,0,1,11,1111,000011,01,1`

// Initialize the CAVLC coeff_token mapping table.
func init() {
	lines, err := csv.NewReader(strings.NewReader(coeffTokenTable)).ReadAll()
	if err != nil {
		panic(fmt.Sprintf("could not read lines from coeffTokenTable string, failed with error: %v", err))
	}

	coeffTokenMaps, err = formCoeffTokenMap(lines)
	if err != nil {
		panic(fmt.Sprintf("could not form coeff_token map, failed with err: %v", err))
	}
}

// tokenMap maps coeff_token to values of TrailingOnes(coeff_token) and
// TotalCoeff(coeff_token) given as tokenMap[ number of leading zeros in
// coeff_token][ coeff_token val ][ 0 for trailing ones and 1 for totalCoef ]
type tokenMap map[int]map[int][2]int

// The number of columns in the coeffTokenMap defined below. This is
// representative of the number of defined nC ranges in table 9-5.
const nColumns = 6

// coeffTokenMaps holds a representation of table 9-5 from the specifications, and
// is indexed as follows, coeffToken[ nC group ][ number of coeff_token leading
// zeros ][ value of coeff_token ][ 0 for TrailingOnes(coeff_token) and 1 for
// TotalCoef(coeff_token) ].
var coeffTokenMaps [nColumns]tokenMap

// formCoeffTokenMap populates the global [nColumns]tokenMap coeffTokenMaps
// representation of table 9-5 in the specifications using the coeffTokenTable
// const string defined above in this file.
func formCoeffTokenMap(lines [][]string) ([nColumns]tokenMap, error) {
	var maps [nColumns]tokenMap

	for i := range maps {
		maps[i] = make(tokenMap)
	}

	for _, line := range lines {
		trailingOnes, err := strconv.Atoi(line[0])
		if err != nil {
			return maps, fmt.Errorf("could not convert trailingOnes string to int, failed with error: %w", err)
		}

		totalCoeff, err := strconv.Atoi(line[1])
		if err != nil {
			return maps, fmt.Errorf("could not convert totalCoeff string to int, failed with error: %w", err)
		}

		// For each column in this row, therefore each nC category, load the
		// coeff_token leading zeros and value into the map.
		for j, v := range line[2:] {
			if v[0] == '-' {
				continue
			}

			// Count the leading zeros.
			var nZeros int
			for _, c := range v {
				if c == '1' {
					break
				}

				if c == '0' {
					nZeros++
				}
			}

			// This will be the value of the coeff_token (without leading zeros).
			val, err := binToInt(v[nZeros:])
			if err != nil {
				return maps, fmt.Errorf("could not get value of remaining binary, failed with error: %w", err)
			}

			// Add the TrailingOnes(coeff_token) and TotalCoeff(coeff_token) values
			// into the map for the coeff_token leading zeros and value.
			if maps[j][nZeros] == nil {
				maps[j][nZeros] = make(map[int][2]int)
			}
			maps[j][nZeros][val] = [2]int{trailingOnes, totalCoeff}
		}
	}
	return maps, nil
}

// mbTypePSkip, mbTypeBSkip and mbTypeIPCM are sentinel mbType values the
// neighbour registry uses to mark P_Skip, B_Skip and I_PCM macroblocks for
// the nC derivation below; none is a coded mb_type value (P_Skip/B_Skip are
// inferred from mb_skip_flag and never appear in the bitstream as a coded
// type, and I_PCM is remapped here rather than reusing its raw index to
// keep this package's internal mbType constants self-contained).
const (
	mbTypePSkip = -1
	mbTypeBSkip = -2
	mbTypeIPCM  = -3
)

// block is the resolved location and recorded state of a neighbouring 4x4
// block consulted by the nC derivation of 9.2.1.
type block struct {
	addr                 int
	blkIdx               int
	usingInterMbPredMode bool
	mbType               int
	totalCoef            int
}

// luma4x4BlkXY returns the (x,y) position, in 4x4-block units (0..3), of
// luma4x4BlkIdx within its macroblock, per the inverse 4x4 luma block
// scanning process of 6.4.3.
func luma4x4BlkXY(idx int) (x, y int) {
	x = (idx/4)%2*2 + (idx%4)%2
	y = (idx/4)/2*2 + (idx%4)/2
	return
}

// luma4x4BlkIdxFromXY is the inverse of luma4x4BlkXY.
func luma4x4BlkIdxFromXY(x, y int) int {
	idx8x8 := (y/2)*2 + (x / 2)
	sub4 := (y%2)*2 + (x % 2)
	return idx8x8*4 + sub4
}

// neighbourLuma4x4 locates the 4x4 luma block offset (dx,dy) from blkIdx
// (dx,dy each -1 or 0), returning the owning macroblock address and the
// neighbouring block's luma4x4BlkIdx, per the 4x4 luma neighbouring block
// derivation of 6.4.11.4. ChromaArrayType 3 reuses this same table for Cb
// and Cr blocks per 6.4.11.6, so callers for cbLevel4x4/crLevel4x4 pass the
// same luma4x4BlkIdx space.
func neighbourLuma4x4(nb *Neighbours, mbAddr, curSliceIdx, blkIdx, dx, dy int) (addr, idx int, ok bool) {
	x, y := luma4x4BlkXY(blkIdx)
	x += dx
	y += dy
	addr = mbAddr
	switch {
	case x < 0:
		addr = nb.MbAddrA(mbAddr)
		x += 4
	case y < 0:
		addr = nb.MbAddrB(mbAddr)
		y += 4
	}
	if !nb.available(addr, curSliceIdx) {
		return -1, 0, false
	}
	return addr, luma4x4BlkIdxFromXY(x, y), true
}

// chromaBlkXY returns the (x,y) position, in 4x4-block units, of a chroma
// 4x4 block index within its macroblock: a 2-wide grid for both
// ChromaArrayType 1 (2 rows) and 2 (4 rows), per 6.4.11.5.
func chromaBlkXY(chromaArrayType, idx int) (x, y int) {
	return idx % 2, idx / 2
}

// neighbourChroma4x4 is the chroma analogue of neighbourLuma4x4, per the
// neighbouring 4x4 chroma block derivation of 6.4.11.5.
func neighbourChroma4x4(nb *Neighbours, mbAddr, curSliceIdx, chromaArrayType, blkIdx, dx, dy int) (addr, idx int, ok bool) {
	x, y := chromaBlkXY(chromaArrayType, blkIdx)
	x += dx
	y += dy
	addr = mbAddr
	height := 2
	if chromaArrayType == 2 {
		height = 4
	}
	switch {
	case x < 0:
		addr = nb.MbAddrA(mbAddr)
		x += 2
	case y < 0:
		addr = nb.MbAddrB(mbAddr)
		y += height
	}
	if !nb.available(addr, curSliceIdx) {
		return -1, 0, false
	}
	idx = y*2 + x
	return addr, idx, true
}

// resolveBlock looks up the neighbouring 4x4 block at macroblock addr,
// local block index blkIdx, in the neighbour registry, filling in the
// fields parseTotalCoeffAndTrailingOnes' nC derivation needs.
func resolveBlock(nb *Neighbours, addr, blkIdx int) block {
	info, ok := nb.Info(addr)
	if !ok {
		return block{addr: -1}
	}
	b := block{addr: addr, blkIdx: blkIdx, usingInterMbPredMode: !info.isIntra}
	switch {
	case info.skipped:
		if info.isIntra {
			b.mbType = mbTypeBSkip
		} else {
			b.mbType = mbTypePSkip
		}
	case info.isIPCM:
		b.mbType = mbTypeIPCM
		b.totalCoef = 16
	default:
		b.totalCoef = info.nnz[blkIdx]
	}
	return b
}

// parseTotalCoeffAndTrailingOnes will use logic provided in section 9.2.1 of
// the specifications to obtain a value of nC, parse coeff_token from br and
// then use table 9-5 to find corresponding values of TrailingOnes(coeff_token)
// and TotalCoeff(coeff_token) which are then subsequently returned.
//
// Step 5's constrained_intra_pred_flag exclusion only matters for the
// Annex A slice-data-partitioning NAL types (2,3,4); this decoder does not
// parse partitioned slice data (SPEC_FULL.md's NAL-framing Non-goals), so
// that exclusion is omitted here and every in-slice, already-decoded
// neighbour is available.
func parseTotalCoeffAndTrailingOnes(br *bits.BitReader, vid *VideoStream, ctx *SliceContext, nb *Neighbours, curSliceIdx, mbAddr int, usingMbPredMode bool, level, maxNumCoef, inBlockIdx int) (totalCoeff, trailingOnes, nC, outBlockIdx int, err error) {
	outBlockIdx = inBlockIdx
	if level == chromaDCLevel {
		if ctx.chromaArrayType == 1 {
			nC = -1
		} else {
			nC = -2
		}
	} else {
		// Steps 1,2 and 3.
		if level == intra16x16DCLevel || level == cbIntra16x16DCLevel || level == crIntra16x16DCLevel {
			outBlockIdx = 0
		}

		// Step 4: derive blkA and blkB (blockA and blockB here).
		var blk [2]block
		switch level {
		case intra16x16DCLevel, intra16x16ACLevel, lumaLevel4x4, cbIntra16x16DCLevel, cbIntra16x16ACLevel, cbLevel4x4, crIntra16x16DCLevel, crIntra16x16ACLevel, crLevel4x4:
			addrA, idxA, okA := neighbourLuma4x4(nb, mbAddr, curSliceIdx, outBlockIdx, -1, 0)
			addrB, idxB, okB := neighbourLuma4x4(nb, mbAddr, curSliceIdx, outBlockIdx, 0, -1)
			if okA {
				blk[0] = resolveBlock(nb, addrA, idxA)
			} else {
				blk[0] = block{addr: -1}
			}
			if okB {
				blk[1] = resolveBlock(nb, addrB, idxB)
			} else {
				blk[1] = block{addr: -1}
			}
		default:
			addrA, idxA, okA := neighbourChroma4x4(nb, mbAddr, curSliceIdx, ctx.chromaArrayType, outBlockIdx, -1, 0)
			addrB, idxB, okB := neighbourChroma4x4(nb, mbAddr, curSliceIdx, ctx.chromaArrayType, outBlockIdx, 0, -1)
			if okA {
				blk[0] = resolveBlock(nb, addrA, idxA)
			} else {
				blk[0] = block{addr: -1}
			}
			if okB {
				blk[1] = resolveBlock(nb, addrB, idxB)
			} else {
				blk[1] = block{addr: -1}
			}
		}

		var availableFlag [2]bool
		var n [2]int
		for i := range availableFlag {
			// Step 5.
			if blk[i].addr >= 0 {
				availableFlag[i] = true
			}

			// Step 6.
			if availableFlag[i] {
				switch {
				case blk[i].mbType == mbTypePSkip || blk[i].mbType == mbTypeBSkip:
					n[i] = 0
				case blk[i].mbType == mbTypeIPCM:
					n[i] = 16
				default:
					n[i] = blk[i].totalCoef
				}
			}
		}

		// Step 7.
		switch {
		case availableFlag[0] && availableFlag[1]:
			nC = (n[0] + n[1] + 1) >> 1
		case availableFlag[0]:
			nC = n[0]
		case availableFlag[1]:
			nC = n[1]
		default:
			nC = 0
		}
	}

	trailingOnes, totalCoeff, _, err = readCoeffToken(br, nC)
	if err != nil {
		err = fmt.Errorf("could not get trailingOnes and totalCoeff vars, failed with error: %w", err)
		return
	}
	return
}

var (
	errInvalidNC = errors.New("invalid value of nC")
	errBadToken  = errors.New("could not find coeff_token value in map")
)

// readCoeffToken will read the coeff_token from br and find a match in the
// coeff_token mapping table (table 9-5 in the specifications) given also nC.
// The resultant TrailingOnes(coeff_token) and TotalCoeff(coeff_token) are
// returned as well as the value of coeff_token.
func readCoeffToken(br *bits.BitReader, nC int) (trailingOnes, totalCoeff, coeffToken int, err error) {
	// Get the number of leading zeros.
	var b uint64
	nZeros := -1
	for ; b == 0; nZeros++ {
		b, err = br.ReadBits(1)
		if err != nil {
			err = fmt.Errorf("could not read coeff_token leading zeros, failed with error: %w", err)
			return
		}
	}

	// Get the column idx for the map.
	var nCIdx int
	switch {
	case 0 <= nC && nC < 2:
		nCIdx = 0
	case 2 <= nC && nC < 4:
		nCIdx = 1
	case 4 <= nC && nC < 8:
		nCIdx = 2
	case 8 <= nC:
		nCIdx = 3
	case nC == -1:
		nCIdx = 4
	case nC == -2:
		nCIdx = 5
	default:
		err = errInvalidNC
		return
	}

	// Get the value of coeff_token.
	val := b
	nBits := nZeros
	for {
		vars, ok := coeffTokenMaps[nCIdx][nZeros][int(val)]
		if ok {
			trailingOnes = vars[0]
			totalCoeff = vars[1]
			coeffToken = int(val)
			return
		}

		const maxCoeffTokenBits = 16
		if !ok && nBits == maxCoeffTokenBits {
			err = errBadToken
			return
		}

		b, err = br.ReadBits(1)
		if err != nil {
			err = fmt.Errorf("could not read next bit of coeff_token, failed with error: %w", err)
			return
		}

		nBits++
		val <<= 1
		val |= b
	}
}

// parseLevelPrefix parses the level_prefix variable as specified by the process
// outlined in section 9.2.2.1 in the specifications.
func parseLevelPrefix(br *bits.BitReader) (int, error) {
	zeros := -1
	for b := 0; b != 1; zeros++ {
		_b, err := br.ReadBits(1)
		if err != nil {
			return -1, fmt.Errorf("could not read bit, failed with error: %w", err)
		}
		b = int(_b)
	}
	return zeros, nil
}

// parseLevelInformation parses level information and returns the resultant
// levelVal list using the process defined by section 9.2.2 in the specifications.
func parseLevelInformation(br *bits.BitReader, totalCoeff, trailingOnes int) ([]int, error) {
	var levelVal []int
	var i int
	for ; i < trailingOnes; i++ {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, fmt.Errorf("could not read trailing_ones_sign_flag, failed with error: %w", err)
		}
		levelVal = append(levelVal, 1-int(b)*2)
	}

	var suffixLen int
	switch {
	case totalCoeff > 10 && trailingOnes < 3:
		suffixLen = 1
	case totalCoeff <= 10 || trailingOnes == 3:
		suffixLen = 0
	default:
		return nil, errors.New("invalid TotalCoeff and TrailingOnes combination")
	}

	for j := 0; j < totalCoeff-trailingOnes; j++ {
		levelPrefix, err := parseLevelPrefix(br)
		if err != nil {
			return nil, fmt.Errorf("could not parse level prefix, failed with error: %w", err)
		}

		var levelSuffixSize int
		switch {
		case levelPrefix == 14 && suffixLen == 0:
			levelSuffixSize = 4
		case levelPrefix >= 15:
			levelSuffixSize = levelPrefix - 3
		default:
			levelSuffixSize = suffixLen
		}

		var levelSuffix int
		if levelSuffixSize > 0 {
			b, err := br.ReadBits(levelSuffixSize)
			if err != nil {
				return nil, fmt.Errorf("could not parse levelSuffix, failed with error: %w", err)
			}
			levelSuffix = int(b)
		} else {
			levelSuffix = 0
		}

		levelCode := (mini(15, levelPrefix) << uint(suffixLen)) + levelSuffix

		if levelPrefix >= 15 && suffixLen == 0 {
			levelCode += 15
		}

		if levelPrefix >= 16 {
			levelCode += (1 << uint(levelPrefix-3)) - 4096
		}

		if i == trailingOnes && trailingOnes < 3 {
			levelCode += 2
		}

		if levelCode%2 == 0 {
			levelVal = append(levelVal, (levelCode+2)>>1)
		} else {
			levelVal = append(levelVal, (-levelCode-1)>>1)
		}

		if suffixLen == 0 {
			suffixLen = 1
		}

		if absi(levelVal[i]) > (3<<uint(suffixLen-1)) && suffixLen < 6 {
			suffixLen++
		}
		i++
	}
	return levelVal, nil
}

// combineLevelRunInfo combines the level and run information obtained prior
// using the process defined in section 9.2.4 of the specifications and returns
// the corresponding coeffLevel list.
func combineLevelRunInfo(levelVal, runVal []int, totalCoeff int) []int {
	coeffNum := -1
	i := totalCoeff - 1
	var coeffLevel []int
	for j := 0; j < totalCoeff; j++ {
		coeffNum += runVal[i] + 1
		if coeffNum >= len(coeffLevel) {
			coeffLevel = append(coeffLevel, make([]int, (coeffNum+1)-len(coeffLevel))...)
		}
		coeffLevel[coeffNum] = levelVal[i]
		i--
	}
	return coeffLevel
}

// errTotalZerosUnsupported is returned by residualBlockCavlc when
// TotalCoeff(coeff_token) is less than maxNumCoeff: that case requires
// reading total_zeros (table 9-7/9-8) and run_before (table 9-10), neither
// of which this decoder implements (see DESIGN.md). When TotalCoeff equals
// maxNumCoeff, 9.2.3 infers total_zeros and every run_before as 0, so no
// such tables are needed and this function proceeds normally.
var errTotalZerosUnsupported = errors.New("residual_block_cavlc: TotalCoeff < maxNumCoeff not supported")

// residualBlockCavlc parses one residual_block_cavlc syntax structure
// (9.2) and returns its coefficient levels in scan order (coeffLevel,
// length maxNumCoeff). totalCoeff and trailingOnes must already have been
// derived via parseTotalCoeffAndTrailingOnes.
func residualBlockCavlc(br *bits.BitReader, totalCoeff, trailingOnes, maxNumCoeff int) ([]int, error) {
	if totalCoeff == 0 {
		return make([]int, maxNumCoeff), nil
	}
	if totalCoeff != maxNumCoeff {
		return nil, errTotalZerosUnsupported
	}
	levelVal, err := parseLevelInformation(br, totalCoeff, trailingOnes)
	if err != nil {
		return nil, fmt.Errorf("could not parse level information: %w", err)
	}
	runVal := make([]int, totalCoeff)
	coeffLevel := combineLevelRunInfo(levelVal, runVal, totalCoeff)
	if len(coeffLevel) < maxNumCoeff {
		coeffLevel = append(coeffLevel, make([]int, maxNumCoeff-len(coeffLevel))...)
	}
	return coeffLevel, nil
}
