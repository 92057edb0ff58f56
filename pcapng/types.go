// SPDX-License-Identifier: MIT

// Package pcapng decodes the modern, block-structured PCAPng capture file
// format: section and interface bookkeeping, block framing, the option
// dictionary, and one processor per block kind. It is self-contained and
// knows nothing of the root pcapflow package's event channel or error
// classification — those are the caller's job (see pcapflow.Decoder), so
// that the Go package graph stays acyclic: pcapflow imports pcapng, never
// the other way around.
package pcapng

import "encoding/binary"

// Endianness names the byte order in effect for a section. A Section Header
// block may flip it partway through a stream.
type Endianness struct {
	Order binary.ByteOrder
	Tag   string // "BE" or "LE"
}

// BigEndian and LittleEndian are the two Endianness values a stream can ever
// carry.
var (
	BigEndian    = Endianness{Order: binary.BigEndian, Tag: "BE"}
	LittleEndian = Endianness{Order: binary.LittleEndian, Tag: "LE"}
)

// Option is a single decoded option: exactly one of Str, Int (guarded by
// HasInt) or Data is meaningful, chosen by the option dictionary entry that
// produced it.
type Option struct {
	Type    uint16
	Name    string
	Str     string
	Int     uint64
	HasInt  bool
	Data    []byte
	PEN     uint32
	HasPEN  bool
	Private bool
}

// Section is the decoded payload of a Section Header block.
type Section struct {
	Endianness    Endianness
	MajorVersion  uint16
	MinorVersion  uint16
	SectionLength int64
	Options       []Option
}

// Interface is the decoded payload of an Interface Description block, and
// also the entry type of a section's interface table.
type Interface struct {
	LinkType     uint16
	LinkTypeName string
	SnapLen      uint32
	Name         string
	TSOffset     int64 // milliseconds
	TSResol      int64 // ticks per millisecond
	Options      []Option
}

// PacketFlags is the decoded form of an Enhanced Packet Block's epb_flags
// option.
type PacketFlags struct {
	Direction              string
	Reception              string
	FCSLen                 uint8
	NoChecksum             bool
	ChecksumValid          bool
	TCPSegmentationOffload bool
	LinkLayerErrors        []string
}

// Packet is the decoded payload of a Simple Packet or Enhanced Packet block.
type Packet struct {
	InterfaceID          uint32
	Timestamp            int64
	HasTimestamp         bool
	Flags                *PacketFlags
	OriginalPacketLength uint32
	Data                 []byte
	Options              []Option
}

// NameResolutionRecord is one entry of a Name Resolution block.
type NameResolutionRecord struct {
	Kind    string // "ipv4", "ipv6", "eui48", "eui64"
	Address string
	Names   []string
}

// NameResolution is the decoded payload of a Name Resolution block.
type NameResolution struct {
	Records []NameResolutionRecord
	Options []Option
}

// InterfaceStatistics is the decoded payload of an Interface Statistics
// block.
type InterfaceStatistics struct {
	InterfaceID uint32
	Timestamp   int64
	Options     []Option
}

// DecryptionSecrets is the decoded payload of a Decryption Secrets block.
// The key material itself is opaque; no further parsing is performed.
type DecryptionSecrets struct {
	SecretsType uint32
	Data        []byte
	Options     []Option
}

// CustomBlock is the decoded payload of a Custom block.
type CustomBlock struct {
	PEN  uint32
	Data []byte
	Copy bool // true for block type 0x00000BAD, false for 0x40000BAD
}

// BlockKind discriminates the payload carried by a Block.
type BlockKind int

const (
	BlockSection BlockKind = iota
	BlockInterface
	BlockData
	BlockNames
	BlockStats
	BlockSecrets
	BlockCustom
	BlockUnknown
)

// Block is the tagged result of processing one PCAPng block: exactly one of
// the pointer fields is set, selected by Kind.
type Block struct {
	Kind      BlockKind
	Section   *Section
	Interface *Interface
	Data      *Packet
	Names     *NameResolution
	Stats     *InterfaceStatistics
	Secrets   *DecryptionSecrets
	Custom    *CustomBlock
	Unknown   int32
}

// State threads the mutable parse state — current endianness and the
// section-scoped interface table — from one block to the next. Its interface
// table is reset whenever a new Section Header block is processed.
type State struct {
	Endianness Endianness
	Interfaces []Interface
}

// NewState returns a State with no section established yet; endianness
// defaults to big-endian until the first Section Header says otherwise.
func NewState() *State {
	return &State{Endianness: BigEndian}
}

const (
	BlockTypeSectionHeader  = int32(0x0A0D0D0A)
	BlockTypeInterface      = int32(0x00000001)
	BlockTypeSimplePacket   = int32(0x00000003)
	BlockTypeNameResolution = int32(0x00000004)
	BlockTypeInterfaceStats = int32(0x00000005)
	BlockTypeEnhancedPacket = int32(0x00000006)
	BlockTypeDecryptSecrets = int32(0x0000000A)
	BlockTypeCustomCopy     = int32(0x00000BAD)
	BlockTypeCustomNoCopy   = int32(0x40000BAD)
)

const (
	byteOrderMagicSame = 0x1A2B3C4D
	byteOrderMagicSwap = 0x4D3C2B1A
)

// pad4 returns the number of padding bytes needed to round n up to a
// multiple of 4.
func pad4(n int) int {
	return (4 - n%4) % 4
}

// RawBlock is the block framer's output: a block's type and total length,
// plus the exact body bytes bounded to blockTotalLength-12 — a block
// processor that fails mid-body cannot consume past its own block.
type RawBlock struct {
	Type        int32
	TotalLength uint32
	Body        []byte
}
