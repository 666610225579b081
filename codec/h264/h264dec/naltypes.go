/*
DESCRIPTION
  naltypes.go provides nal_unit_type constants as defined in table 7-1 of the
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

// NAL unit types, table 7-1.
const (
	NALTypeUnspecified0            = 0
	NALTypeNonIDR                  = 1
	NALTypeSliceDataPartitionA     = 2
	NALTypeSliceDataPartitionB     = 3
	NALTypeSliceDataPartitionC     = 4
	NALTypeIDR                     = 5
	NALTypeSEI                     = 6
	NALTypeSPS                     = 7
	NALTypePPS                     = 8
	NALTypeAccessUnitDelimiter     = 9
	NALTypeEndOfSequence           = 10
	NALTypeEndOfStream             = 11
	NALTypeFillerData              = 12
	NALTypeSPSExtension            = 13
	naluTypePrefixNALU             = 14
	NALTypeSubsetSPS               = 15
	NALTypeDepthParameterSet       = 16
	NALTypeReserved17              = 17
	NALTypeReserved18              = 18
	NALTypeAuxCodedPicture         = 19
	naluTypeSliceLayerExtRBSP      = 20
	naluTypeSliceLayerExtRBSP2     = 21
	NALTypeReserved22              = 22
	NALTypeReserved23              = 23
	NALTypeSTAPA                   = 24
	NALTypeSTAPB                   = 25
	NALTypeMTAP16                  = 26
	NALTypeMTAP24                  = 27
	NALTypeFUA                     = 28
	NALTypeFUB                     = 29
)

// InitialNALU is the four-byte Annex B start code prefix that
// isStartSequence matches at the end of a buffer.
var InitialNALU = []byte{0, 0, 0, 1}
