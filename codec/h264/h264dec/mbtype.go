/*
DESCRIPTION
  mbtype.go maps mb_type values to their symbolic names and prediction modes
  per tables 7-11 (I slices), 7-13 (P/SP slices) and 7-14 (B slices).

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

// iMbTypeNames holds table 7-11's mb_type names for I slices, indexed
// directly by mb_type (0..25).
var iMbTypeNames = []string{
	"I_NxN",
	"I_16x16_0_0_0", "I_16x16_1_0_0", "I_16x16_2_0_0", "I_16x16_3_0_0",
	"I_16x16_0_1_0", "I_16x16_1_1_0", "I_16x16_2_1_0", "I_16x16_3_1_0",
	"I_16x16_0_2_0", "I_16x16_1_2_0", "I_16x16_2_2_0", "I_16x16_3_2_0",
	"I_16x16_0_0_1", "I_16x16_1_0_1", "I_16x16_2_0_1", "I_16x16_3_0_1",
	"I_16x16_0_1_1", "I_16x16_1_1_1", "I_16x16_2_1_1", "I_16x16_3_1_1",
	"I_16x16_0_2_1", "I_16x16_1_2_1", "I_16x16_2_2_1", "I_16x16_3_2_1",
	"I_PCM",
}

// pMbTypeNames holds table 7-13's mb_type names for P/SP slices for
// mb_type 0..4; values 5.. reuse the I table offset by 5.
var pMbTypeNames = []string{
	"P_L0_16x16", "P_L0_L0_16x8", "P_L0_L0_8x16", "P_8x8", "P_8x8ref0",
}

// bMbTypeNames holds table 7-14's mb_type names for B slices for mb_type
// 0..22; values 23.. reuse the I table offset by 23.
var bMbTypeNames = []string{
	"B_Direct_16x16",
	"B_L0_16x16", "B_L1_16x16", "B_Bi_16x16",
	"B_L0_L0_16x8", "B_L0_L0_8x16",
	"B_L1_L1_16x8", "B_L1_L1_8x16",
	"B_L0_L1_16x8", "B_L0_L1_8x16",
	"B_L1_L0_16x8", "B_L1_L0_8x16",
	"B_L0_Bi_16x8", "B_L0_Bi_8x16",
	"B_L1_Bi_16x8", "B_L1_Bi_8x16",
	"B_Bi_L0_16x8", "B_Bi_L0_8x16",
	"B_Bi_L1_16x8", "B_Bi_L1_8x16",
	"B_Bi_Bi_16x8", "B_Bi_Bi_8x16",
	"B_8x8",
}

// MbTypeName returns the symbolic mb_type name (tables 7-11/7-13/7-14) for
// mbType given the current slice's type name. sliceTypeName is one of
// "I", "SI", "P", "SP", "B" (see sliceTypeMap). P/SP slice mb_skip_flag==1
// and B slice mb_skip_flag==1 are represented by the synthetic "P_Skip" and
// "B_SKIP" names respectively; callers that decode an actual mb_skip_flag
// should use those names directly rather than calling MbTypeName.
func MbTypeName(sliceTypeName string, mbType int) string {
	switch sliceTypeName {
	case "I", "SI":
		if mbType >= 0 && mbType < len(iMbTypeNames) {
			return iMbTypeNames[mbType]
		}
	case "P", "SP":
		if mbType >= 0 && mbType < len(pMbTypeNames) {
			return pMbTypeNames[mbType]
		}
		if i := mbType - 5; i >= 0 && i < len(iMbTypeNames) {
			return iMbTypeNames[i]
		}
	case "B":
		if mbType >= 0 && mbType < len(bMbTypeNames) {
			return bMbTypeNames[mbType]
		}
		if i := mbType - 23; i >= 0 && i < len(iMbTypeNames) {
			return iMbTypeNames[i]
		}
	}
	return "na"
}

// MbPartPredMode returns the macroblock partition prediction mode of
// partition mbPartIdx for the macroblock named by sliceTypeName/mbType, as
// defined by tables 7-11, 7-13 and 7-14. Semantics follow section 7.4.5.
func MbPartPredMode(data *SliceData, sliceTypeName string, mbType int, mbPartIdx int) (mbPartPredMode, error) {
	name := MbTypeName(sliceTypeName, mbType)
	switch {
	case name == "I_NxN":
		if data != nil && data.TransformSize8x8Flag {
			return intra8x8, nil
		}
		return intra4x4, nil
	case name == "I_PCM":
		return naMbPartPredMode, nil
	case len(name) > 8 && name[:8] == "I_16x16_":
		return intra16x16, nil
	case name == "P_L0_16x16", name == "P_L0_L0_16x8", name == "P_L0_L0_8x16", name == "P_8x8", name == "P_8x8ref0":
		return predL0, nil
	case name == "B_Direct_16x16":
		return direct, nil
	case name == "B_8x8":
		// Per-partition prediction mode is carried by sub_mb_type; the
		// macroblock-level call site only needs to know this is an inter MB.
		return inter, nil
	case name == "na":
		return naMbPartPredMode, nil
	default:
		// Remaining B_* names encode the per-partition direction(s) in the
		// name itself, e.g. "B_L0_Bi_16x8" is L0 for partition 0 and Bi for
		// partition 1.
		parts := splitBMbTypeName(name)
		if mbPartIdx < 0 || mbPartIdx >= len(parts) {
			mbPartIdx = 0
		}
		switch parts[mbPartIdx] {
		case "L0":
			return predL0, nil
		case "L1":
			return predL1, nil
		case "Bi":
			return biPred, nil
		}
	}
	return naMbPartPredMode, nil
}

// splitBMbTypeName extracts the per-partition direction tokens ("L0", "L1",
// "Bi") from a B slice mb_type name such as "B_L0_Bi_16x8".
func splitBMbTypeName(name string) []string {
	var tokens []string
	var cur []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			if len(cur) > 0 {
				tokens = append(tokens, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		tokens = append(tokens, string(cur))
	}
	var dirs []string
	for _, t := range tokens {
		if t == "L0" || t == "L1" || t == "Bi" {
			dirs = append(dirs, t)
		}
	}
	return dirs
}
