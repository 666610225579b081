/*
DESCRIPTION
  e2e_test.go exercises the full Decoder.Decode pipeline against small,
  hand-built bitstreams covering the three reconstruction paths this
  decoder implements: Intra_16x16 DC-mode intra (CAVLC), zero-motion
  P_L0_16x16 inter copy (CAVLC) and P_Skip inter copy (CABAC). Every
  bitstream below decodes a single 1x1-macroblock picture (16x16 luma,
  8x8 per chroma plane for 4:2:0); the bit strings are built field by
  field the way pps_test.go builds PPS test input, and converted with
  binToSlice.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dec

import (
	"bytes"
	"testing"
)

// mustBinToSlice is binToSlice with the error folded into a test failure,
// for building NAL payloads out of field-by-field bit strings below.
func mustBinToSlice(t *testing.T, s string) []byte {
	t.Helper()
	b, err := binToSlice(s)
	if err != nil {
		t.Fatalf("binToSlice(%q): %v", s, err)
	}
	return b
}

// sps1x1RBSP is a 4:2:0, one-macroblock-wide-and-high sequence parameter
// set: profile_idc 66 (baseline), level_idc 10, seq_parameter_set_id 0,
// chroma_format_idc 1, max_num_ref_frames 2, pic_width_in_mbs_minus1 0,
// pic_height_in_map_units_minus1 0, frame_mbs_only_flag 1.
func sps1x1RBSP(t *testing.T) []byte {
	t.Helper()
	return mustBinToSlice(t,
		"01000010"+ // profile_idc = 66
			"00000000"+ // constraint_set0..5_flag + reserved_zero_2bits
			"00001010"+ // level_idc = 10
			"1"+ // ue(v) seq_parameter_set_id = 0
			"010"+ // ue(v) chroma_format_idc = 1
			"1"+ // ue(v) log2_max_frame_num_minus4 = 0
			"1"+ // ue(v) pic_order_cnt_type = 0
			"1"+ // ue(v) log2_max_pic_order_cnt_lsb_minus4 = 0
			"011"+ // ue(v) max_num_ref_frames = 2
			"0"+ // u(1) gaps_in_frame_num_value_allowed_flag = 0
			"1"+ // ue(v) pic_width_in_mbs_minus1 = 0
			"1"+ // ue(v) pic_height_in_map_units_minus1 = 0
			"1"+ // u(1) frame_mbs_only_flag = 1
			"0"+ // u(1) direct_8x8_inference_flag = 0
			"0"+ // u(1) frame_cropping_flag = 0
			"0"+ // u(1) vui_parameters_present_flag = 0
			"1") // rbsp_stop_one_bit
}

// ppsRBSP builds a picture parameter set referencing sps_id 0, with the
// given pps_id and entropy_coding_mode_flag; every other field takes its
// simplest (0/false) value.
func ppsRBSP(t *testing.T, ppsIDUe string, entropyCodingMode string) []byte {
	t.Helper()
	return mustBinToSlice(t,
		ppsIDUe+ // ue(v) pic_parameter_set_id
			"1"+ // ue(v) seq_parameter_set_id = 0
			entropyCodingMode+ // u(1) entropy_coding_mode_flag
			"0"+ // u(1) bottom_field_pic_order_in_frame_present_flag = 0
			"1"+ // ue(v) num_slice_groups_minus1 = 0
			"1"+ // ue(v) num_ref_idx_l0_default_active_minus1 = 0
			"1"+ // ue(v) num_ref_idx_l1_default_active_minus1 = 0
			"0"+ // u(1) weighted_pred_flag = 0
			"00"+ // u(2) weighted_bipred_idc = 0
			"1"+ // se(v) pic_init_qp_minus26 = 0
			"1"+ // se(v) pic_init_qs_minus26 = 0
			"1"+ // se(v) chroma_qp_index_offset = 0
			"0"+ // u(1) deblocking_filter_control_present_flag = 0
			"0"+ // u(1) constrained_intra_pred_flag = 0
			"0"+ // u(1) redundant_pic_cnt_present_flag = 0
			"1") // rbsp_stop_one_bit
}

// idrIntra16x16RBSP is the CAVLC IDR slice for an I_16x16_2_0_0 (DC mode,
// no luma/chroma AC/CBP) macroblock referencing pic_parameter_set_id 0,
// with zero Intra16x16DCLevel coefficients.
func idrIntra16x16RBSP(t *testing.T) []byte {
	t.Helper()
	return mustBinToSlice(t,
		"1"+ // ue(v) first_mb_in_slice = 0
			"011"+ // ue(v) slice_type = 2 (I)
			"1"+ // ue(v) pic_parameter_set_id = 0
			"0000"+ // u(4) frame_num = 0
			"1"+ // ue(v) idr_pic_id = 0
			"0000"+ // u(4) pic_order_cnt_lsb = 0
			"00"+ // dec_ref_pic_marking: no_output_of_prior_pics_flag, long_term_reference_flag
			"1"+ // se(v) slice_qp_delta = 0
			// macroblock_layer()
			"00100"+ // ue(v) mb_type = 3 (I_16x16_2_0_0)
			"1"+ // ue(v) intra_chroma_pred_mode = 0 (DC)
			"1"+ // se(v) mb_qp_delta = 0
			"1"+ // coeff_token(TrailingOnes=0, TotalCoeff=0), Intra16x16DCLevel
			"1") // rbsp_stop_one_bit
}

// pSkipCopyRBSP is the CAVLC P slice for a single P_L0_16x16 macroblock
// with zero motion, ref_idx_l0 0 and coded_block_pattern 0: an exact
// sample copy of the reference picture, per 8.4.2.
func pSkipCopyRBSP(t *testing.T) []byte {
	t.Helper()
	return mustBinToSlice(t,
		"1"+ // ue(v) first_mb_in_slice = 0
			"1"+ // ue(v) slice_type = 0 (P)
			"1"+ // ue(v) pic_parameter_set_id = 0
			"0001"+ // u(4) frame_num = 1
			"0010"+ // u(4) pic_order_cnt_lsb = 2
			"0"+ // u(1) ref_pic_list_modification_flag_l0 = 0
			"0"+ // u(1) adaptive_ref_pic_marking_mode_flag = 0
			"1"+ // se(v) slice_qp_delta = 0
			// slice_data()
			"1"+ // ue(v) mb_skip_run = 0
			"1"+ // ue(v) mb_type = 0 (P_L0_16x16)
			"1"+ // se(v) mvd_l0[0][0][0] = 0
			"1"+ // se(v) mvd_l0[0][0][1] = 0
			"00100"+ // me(v) coded_block_pattern codeNum 3 -> CodedBlockPattern 0
			"1") // rbsp_stop_one_bit
}

// cabacSkipRBSP is the CABAC P slice whose sole macroblock is signalled
// mb_skip_flag=1. The 9-bit codIOffset 268 ("100001100") is chosen so
// that, against this engine's neutral initial context state (9.3.1.2)
// and codIRange 510, DecodeBin(ctxIdx 11, the MbSkipFlag prefix context
// for P slices) returns the MPS (1) without renormalizing, and the
// immediately following DecodeTerminateBin call (codIRange -= 2 = 268,
// codIOffset 268 >= codIRange 268) signals end_of_slice_flag=1 -- both
// using zero bits beyond the 9-bit engine-initialization read.
func cabacSkipRBSP(t *testing.T) []byte {
	t.Helper()
	return mustBinToSlice(t,
		"1"+ // ue(v) first_mb_in_slice = 0
			"1"+ // ue(v) slice_type = 0 (P)
			"010"+ // ue(v) pic_parameter_set_id = 1
			"0010"+ // u(4) frame_num = 2
			"0100"+ // u(4) pic_order_cnt_lsb = 4
			"0"+ // u(1) ref_pic_list_modification_flag_l0 = 0
			"0"+ // u(1) adaptive_ref_pic_marking_mode_flag = 0
			"1"+ // ue(v) cabac_init_idc = 0
			"1"+ // se(v) slice_qp_delta = 0
			"1111111"+ // cabac_alignment_one_bit x7, to reach byte alignment
			"100001100") // codIOffset = 268
}

func allBytes(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

// TestDecodeIntra16x16DCReconstructsFlatPlane decodes a single IDR
// Intra_16x16 DC-mode macroblock with no residual. With no available
// neighbours (the sole macroblock in the picture), DC prediction falls
// back to its bitDepth default of 128 for both luma and chroma, and a
// zero Intra16x16DCLevel contributes no correction, so every reconstructed
// sample is 128 -- not the 0 a literal reading of an all-zero source
// macroblock might suggest, since DC prediction with no neighbours is
// defined to predict the mid-grey default, not black.
func TestDecodeIntra16x16DCReconstructsFlatPlane(t *testing.T) {
	d := NewDecoder(Config{})

	sps := append([]byte{0x67}, sps1x1RBSP(t)...)
	if _, err := d.Decode(sps); err != nil {
		t.Fatalf("decoding SPS: %v", err)
	}
	pps := append([]byte{0x68}, ppsRBSP(t, "1", "0")...)
	if _, err := d.Decode(pps); err != nil {
		t.Fatalf("decoding PPS: %v", err)
	}
	idr := append([]byte{0x65}, idrIntra16x16RBSP(t)...)
	if _, err := d.Decode(idr); err != nil {
		t.Fatalf("decoding IDR slice: %v", err)
	}

	if len(d.dpb.frames) != 1 {
		t.Fatalf("len(dpb.frames) = %d, want 1", len(d.dpb.frames))
	}
	pic := d.dpb.frames[0].Pic
	if pic.Width != 16 || pic.Height != 16 {
		t.Fatalf("pic dims = %dx%d, want 16x16", pic.Width, pic.Height)
	}
	if !bytes.Equal(pic.Luma, allBytes(256, 128)) {
		t.Errorf("Luma = %v, want 256 bytes of 128", pic.Luma)
	}
	if !bytes.Equal(pic.Chroma[0], allBytes(64, 128)) {
		t.Errorf("Chroma[0] = %v, want 64 bytes of 128", pic.Chroma[0])
	}
	if !bytes.Equal(pic.Chroma[1], allBytes(64, 128)) {
		t.Errorf("Chroma[1] = %v, want 64 bytes of 128", pic.Chroma[1])
	}
}

// TestDecodePSkipCAVLCCopiesReferencePicture decodes an IDR picture
// followed by a CAVLC P_L0_16x16 picture with zero motion vectors,
// ref_idx_l0 0 and coded_block_pattern 0, and checks that the second
// picture is an exact sample copy of the first, per 8.4.2's zero-motion
// case.
func TestDecodePSkipCAVLCCopiesReferencePicture(t *testing.T) {
	d := NewDecoder(Config{})

	sps := append([]byte{0x67}, sps1x1RBSP(t)...)
	if _, err := d.Decode(sps); err != nil {
		t.Fatalf("decoding SPS: %v", err)
	}
	pps := append([]byte{0x68}, ppsRBSP(t, "1", "0")...)
	if _, err := d.Decode(pps); err != nil {
		t.Fatalf("decoding PPS: %v", err)
	}
	idr := append([]byte{0x65}, idrIntra16x16RBSP(t)...)
	if _, err := d.Decode(idr); err != nil {
		t.Fatalf("decoding IDR slice: %v", err)
	}
	p := append([]byte{0x21}, pSkipCopyRBSP(t)...)
	if _, err := d.Decode(p); err != nil {
		t.Fatalf("decoding P slice: %v", err)
	}

	if len(d.dpb.frames) != 2 {
		t.Fatalf("len(dpb.frames) = %d, want 2", len(d.dpb.frames))
	}
	ref, cur := d.dpb.frames[0].Pic, d.dpb.frames[1].Pic
	if !bytes.Equal(cur.Luma, ref.Luma) {
		t.Errorf("P picture Luma does not match reference IDR Luma")
	}
	if !bytes.Equal(cur.Chroma[0], ref.Chroma[0]) || !bytes.Equal(cur.Chroma[1], ref.Chroma[1]) {
		t.Errorf("P picture Chroma does not match reference IDR Chroma")
	}
	if !bytes.Equal(cur.Luma, allBytes(256, 128)) {
		t.Errorf("P picture Luma = %v, want 256 bytes of 128 (copy of flat IDR)", cur.Luma)
	}
}

// TestDecodeCABACPSkipCopiesReferencePicture decodes an IDR picture under
// a CAVLC PPS, then a second PPS with entropy_coding_mode_flag 1, then a
// CABAC P slice whose macroblock is signalled mb_skip_flag=1: P_Skip's
// inferred zero motion vector and ref_idx 0 (8.4.1.1) again make this an
// exact sample copy of the reference picture, this time driven entirely
// by the CABAC arithmetic decoding engine rather than CAVLC.
func TestDecodeCABACPSkipCopiesReferencePicture(t *testing.T) {
	d := NewDecoder(Config{})

	sps := append([]byte{0x67}, sps1x1RBSP(t)...)
	if _, err := d.Decode(sps); err != nil {
		t.Fatalf("decoding SPS: %v", err)
	}
	ppsCAVLC := append([]byte{0x68}, ppsRBSP(t, "1", "0")...)
	if _, err := d.Decode(ppsCAVLC); err != nil {
		t.Fatalf("decoding CAVLC PPS: %v", err)
	}
	idr := append([]byte{0x65}, idrIntra16x16RBSP(t)...)
	if _, err := d.Decode(idr); err != nil {
		t.Fatalf("decoding IDR slice: %v", err)
	}
	ppsCABAC := append([]byte{0x68}, ppsRBSP(t, "010", "1")...)
	if _, err := d.Decode(ppsCABAC); err != nil {
		t.Fatalf("decoding CABAC PPS: %v", err)
	}
	p := append([]byte{0x21}, cabacSkipRBSP(t)...)
	if _, err := d.Decode(p); err != nil {
		t.Fatalf("decoding CABAC P_Skip slice: %v", err)
	}

	if len(d.dpb.frames) != 2 {
		t.Fatalf("len(dpb.frames) = %d, want 2", len(d.dpb.frames))
	}
	ref, cur := d.dpb.frames[0].Pic, d.dpb.frames[1].Pic
	if !bytes.Equal(cur.Luma, ref.Luma) {
		t.Errorf("P_Skip picture Luma does not match reference IDR Luma")
	}
	if !bytes.Equal(cur.Chroma[0], ref.Chroma[0]) || !bytes.Equal(cur.Chroma[1], ref.Chroma[1]) {
		t.Errorf("P_Skip picture Chroma does not match reference IDR Chroma")
	}
}
