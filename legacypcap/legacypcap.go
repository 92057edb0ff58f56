// SPDX-License-Identifier: MIT

// Package legacypcap reads the legacy (pre-PCAPng) packet capture format: a
// fixed 24 byte file header followed by a flat sequence of packet records,
// each with its own 16 byte record header. It is grounded on the same
// header/record shape as the retrieval pack's PcapReader, adapted from a
// synchronous Read() call into the streambuf/event model the rest of this
// module uses.
package legacypcap

import (
	"encoding/binary"

	"github.com/pcapflow/pcapflow/pcapng"
	"github.com/pcapflow/pcapflow/pcaptime"
	"github.com/pcapflow/pcapflow/streambuf"
)

// linkTypeMask extracts the real link-layer type from the low 16 bits of a
// legacy header's linkType field; the high bits carry FCS presence/length.
const linkTypeMask = 0x0000FFFF

// fcsPresentBit, when set in linkType, means an if_fcslen option should be
// synthesized; its length in bits is (linkType>>28)*16.
const fcsPresentBit = 0x04000000

// ReadHeader consumes the 20 bytes of the 24 byte file header that follow the
// magic number and synthesizes the single Interface event a legacy file
// always produces.
// nanosecond selects whether the file's resolution is nanoseconds (true) or
// microseconds (false), as decided by the format detector's magic-number
// dispatch.
func ReadHeader(buf *streambuf.Buffer, endian pcapng.Endianness, nanosecond bool) (pcapng.Interface, error) {
	order := endian.Order
	if _, err := buf.ReadUint16(order); err != nil { // majorVersion, unused beyond framing
		return pcapng.Interface{}, err
	}
	if _, err := buf.ReadUint16(order); err != nil { // minorVersion
		return pcapng.Interface{}, err
	}
	if _, err := buf.ReadUint32(order); err != nil { // reserved (thiszone)
		return pcapng.Interface{}, err
	}
	if _, err := buf.ReadUint32(order); err != nil { // reserved (sigfigs)
		return pcapng.Interface{}, err
	}
	snapLen, err := buf.ReadUint32(order)
	if err != nil {
		return pcapng.Interface{}, err
	}
	rawLinkType, err := buf.ReadUint32(order)
	if err != nil {
		return pcapng.Interface{}, err
	}

	tsresol := int64(1000)
	if nanosecond {
		tsresol = 1_000_000
	}

	iface := pcapng.Interface{
		LinkType: uint16(rawLinkType & linkTypeMask),
		SnapLen:  snapLen,
		TSResol:  tsresol,
	}
	if rawLinkType&fcsPresentBit != 0 {
		fcsLenBits := (rawLinkType >> 28) * 16
		iface.Options = []pcapng.Option{
			{
				Type:   0, // if_fcslen has no PCAPng option-type analog here; synthesized
				Name:   "if_fcslen",
				Int:    uint64(fcsLenBits),
				HasInt: true,
			},
		}
	}
	return iface, nil
}

// ReadPacket reads one packet record: a 16 byte header (tsHigh, tsLow,
// capturedLen, originalLen) followed by capturedLen bytes of data. A clean
// end of stream surfaces as *streambuf.TruncationError with Requested == 4;
// every other error legacy PCAP raises is fatal — there is no recoverable
// layer for this format.
func ReadPacket(buf *streambuf.Buffer, order binary.ByteOrder, tsresol int64) (pcapng.Packet, error) {
	if err := buf.WaitFor(4); err != nil {
		return pcapng.Packet{}, err
	}
	tsHigh, err := buf.ReadUint32(order)
	if err != nil {
		return pcapng.Packet{}, err
	}
	tsLow, err := buf.ReadUint32(order)
	if err != nil {
		return pcapng.Packet{}, err
	}
	capturedLen, err := buf.ReadUint32(order)
	if err != nil {
		return pcapng.Packet{}, err
	}
	originalLen, err := buf.ReadUint32(order)
	if err != nil {
		return pcapng.Packet{}, err
	}
	data, err := buf.Read(int(capturedLen))
	if err != nil {
		return pcapng.Packet{}, err
	}
	return pcapng.Packet{
		InterfaceID:          0,
		Timestamp:            pcaptime.ResolveLegacy(tsHigh, tsLow, uint32(tsresol)),
		HasTimestamp:         true,
		OriginalPacketLength: originalLen,
		Data:                 data,
	}, nil
}
