// SPDX-License-Identifier: MIT

package pcapflow

import (
	"encoding/binary"

	"github.com/pcapflow/pcapflow/pcapng"
	"github.com/pcapflow/pcapflow/streambuf"
)

// format names the wire format recovered by sniff.
type format int

const (
	formatPcapNG format = iota
	formatLegacy
)

// magic numbers recognized at the start of a capture stream.
const (
	magicPcapNG        = 0x0A0D0D0A
	magicLegacyBEMicro = 0xA1B2C3D4
	magicLegacyLEMicro = 0xD4C3B2A1
	magicLegacyBENano  = 0xA1B23C4D
	magicLegacyLENano  = 0x4D3CB2A1
)

// sniffResult carries everything the format detector learns from the first
// four bytes of the stream.
type sniffResult struct {
	format     format
	endianness pcapng.Endianness
	nanosecond bool
}

// sniff peeks the first four bytes of buf, interpreted as a big-endian u32,
// and dispatches to PCAPng or one of the four legacy PCAP magics. It does not
// consume the magic for PCAPng (the block framer re-reads it as blockType),
// but it does consume the four bytes for legacy PCAP, since the legacy reader
// only needs the endianness/resolution decision they encode, not the literal
// magic value.
func sniff(buf *streambuf.Buffer, cfg Config) (sniffResult, error) {
	peeked, err := buf.Peek(4)
	if err != nil {
		return sniffResult{}, err
	}
	magic := binary.BigEndian.Uint32(peeked)
	switch magic {
	case magicPcapNG:
		if cfg.RejectNG {
			return sniffResult{}, fatalf("PCAPng format detected and rejected")
		}
		return sniffResult{format: formatPcapNG}, nil
	case magicLegacyBEMicro:
		if cfg.RejectOld {
			return sniffResult{}, fatalf("Old PCAP format detected and rejected")
		}
		if _, err := buf.Read(4); err != nil {
			return sniffResult{}, err
		}
		return sniffResult{format: formatLegacy, endianness: pcapng.BigEndian}, nil
	case magicLegacyLEMicro:
		if cfg.RejectOld {
			return sniffResult{}, fatalf("Old PCAP format detected and rejected")
		}
		if _, err := buf.Read(4); err != nil {
			return sniffResult{}, err
		}
		return sniffResult{format: formatLegacy, endianness: pcapng.LittleEndian}, nil
	case magicLegacyBENano:
		if cfg.RejectOld {
			return sniffResult{}, fatalf("Old PCAP format detected and rejected")
		}
		if _, err := buf.Read(4); err != nil {
			return sniffResult{}, err
		}
		return sniffResult{format: formatLegacy, endianness: pcapng.BigEndian, nanosecond: true}, nil
	case magicLegacyLENano:
		if cfg.RejectOld {
			return sniffResult{}, fatalf("Old PCAP format detected and rejected")
		}
		if _, err := buf.Read(4); err != nil {
			return sniffResult{}, err
		}
		return sniffResult{format: formatLegacy, endianness: pcapng.LittleEndian, nanosecond: true}, nil
	default:
		return sniffResult{}, fatalf("Invalid file format")
	}
}
