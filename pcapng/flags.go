// SPDX-License-Identifier: MIT

package pcapng

// decodePacketFlags splits a raw epb_flags 32 bit field into the structured
// PacketFlags per the PCAPng draft's bit layout: bits 0-1 direction, bits
// 2-4 reception type, bits 5-8 FCS length, bit 9 no-checksum, bit 10
// checksum-valid, bit 11 TCP segmentation offload, bits 16-23 link-layer
// error flags.
func decodePacketFlags(raw uint32) *PacketFlags {
	direction := [...]string{"notAvailable", "inbound", "outbound", "invalid"}
	reception := [...]string{
		"notSpecified", "unicast", "multicast", "broadcast",
		"promiscuous", "invalid", "invalid", "invalid",
	}
	errorNames := [...]string{
		"symbol", "preamble", "startFrameDelimiter", "unalignedFrame",
		"wrongInterFrameGap", "packetTooShort", "packetTooLong", "CRC",
	}

	f := &PacketFlags{
		Direction:     direction[raw&0x3],
		Reception:     reception[(raw>>2)&0x7],
		FCSLen:        uint8((raw >> 5) & 0xF),
		NoChecksum:    raw&(1<<9) != 0,
		ChecksumValid: raw&(1<<10) != 0,
	}
	f.TCPSegmentationOffload = raw&(1<<11) != 0
	for i, name := range errorNames {
		if raw&(1<<(16+uint(i))) != 0 {
			f.LinkLayerErrors = append(f.LinkLayerErrors, name)
		}
	}
	return f
}
