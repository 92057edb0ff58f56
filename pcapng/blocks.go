// SPDX-License-Identifier: MIT

package pcapng

import (
	"fmt"
	"net"
	"strings"

	"github.com/google/gopacket/layers"

	"github.com/pcapflow/pcapflow/pcaptime"
)

// ProcessBlock dispatches raw on its Type and decodes it into a Block. Any
// error returned here is confined to this one block: the caller (the root
// pcapflow.Decoder) wraps it as a RecoverableError and resumes framing at the
// next block, per the fault-isolation design of §4.7.
func ProcessBlock(raw RawBlock, st *State) (Block, error) {
	switch raw.Type {
	case BlockTypeSectionHeader:
		return processSectionHeader(raw, st)
	case BlockTypeInterface:
		return processInterface(raw, st)
	case BlockTypeSimplePacket:
		return processSimplePacket(raw, st)
	case BlockTypeNameResolution:
		return processNameResolution(raw, st)
	case BlockTypeInterfaceStats:
		return processInterfaceStats(raw, st)
	case BlockTypeEnhancedPacket:
		return processEnhancedPacket(raw, st)
	case BlockTypeDecryptSecrets:
		return processDecryptionSecrets(raw, st)
	case BlockTypeCustomCopy:
		return processCustom(raw, st, true)
	case BlockTypeCustomNoCopy:
		return processCustom(raw, st, false)
	default:
		if raw.Type < 0 {
			// Local use: silently ignored, not even surfaced as unknown.
			return Block{}, errIgnoredLocalUse
		}
		return Block{Kind: BlockUnknown, Unknown: raw.Type}, nil
	}
}

// errIgnoredLocalUse is a sentinel the caller checks for to distinguish a
// silently-ignored negative block type from a genuine error.
var errIgnoredLocalUse = fmt.Errorf("local-use block type, ignored")

// IsIgnoredLocalUse reports whether err is the sentinel ProcessBlock returns
// for a negative (local-use) block type, which the caller must neither emit
// as an event nor treat as an error.
func IsIgnoredLocalUse(err error) bool {
	return err == errIgnoredLocalUse
}

func processSectionHeader(raw RawBlock, st *State) (Block, error) {
	body := raw.Body
	if len(body) < 16 {
		return Block{}, fmt.Errorf("section header block too short")
	}
	endian := st.Endianness.Order
	majorVersion := endian.Uint16(body[4:6])
	minorVersion := endian.Uint16(body[6:8])
	sectionLength := int64(endian.Uint64(body[8:16]))
	opts, err := decodeOptions(body, 16, endian, BlockTypeSectionHeader, nil)
	if err != nil {
		return Block{}, err
	}
	st.Interfaces = nil // a new section resets the interface table
	return Block{
		Kind: BlockSection,
		Section: &Section{
			Endianness:    st.Endianness,
			MajorVersion:  majorVersion,
			MinorVersion:  minorVersion,
			SectionLength: sectionLength,
			Options:       opts,
		},
	}, nil
}

func processInterface(raw RawBlock, st *State) (Block, error) {
	body := raw.Body
	if len(body) < 8 {
		return Block{}, fmt.Errorf("interface description block too short")
	}
	endian := st.Endianness.Order
	linkType := endian.Uint16(body[0:2])
	snapLen := endian.Uint32(body[4:8])

	iface := Interface{
		LinkType:     linkType,
		LinkTypeName: layers.LinkType(linkType).String(),
		SnapLen:      snapLen,
		TSResol:      pcaptime.DefaultResolution,
	}
	opts, err := decodeOptions(body, 8, endian, BlockTypeInterface, &iface)
	if err != nil {
		return Block{}, err
	}
	for _, opt := range opts {
		switch opt.Type {
		case 2: // if_name
			iface.Name = opt.Str
		case 9: // if_tsresol
			if len(opt.Data) > 0 {
				iface.TSResol = pcaptime.DecodeTSResol(opt.Data[0])
			}
		case 14: // if_tsoffset, seconds -> milliseconds
			if opt.HasInt {
				iface.TSOffset = int64(opt.Int) * 1000
			}
		}
	}
	iface.Options = opts
	st.Interfaces = append(st.Interfaces, iface)
	return Block{Kind: BlockInterface, Interface: &iface}, nil
}

func processSimplePacket(raw RawBlock, st *State) (Block, error) {
	if len(st.Interfaces) == 0 {
		return Block{}, fmt.Errorf("No interface for simple packet")
	}
	body := raw.Body
	if len(body) < 4 {
		return Block{}, fmt.Errorf("simple packet block too short")
	}
	endian := st.Endianness.Order
	originalLen := endian.Uint32(body[0:4])
	iface := st.Interfaces[0]
	n := int(originalLen)
	if uint32(n) > iface.SnapLen {
		n = int(iface.SnapLen)
	}
	if 4+n > len(body) {
		n = len(body) - 4
	}
	data := append([]byte(nil), body[4:4+n]...)
	return Block{
		Kind: BlockData,
		Data: &Packet{
			InterfaceID:          0,
			OriginalPacketLength: originalLen,
			Data:                 data,
		},
	}, nil
}

func processNameResolution(raw RawBlock, st *State) (Block, error) {
	body := raw.Body
	endian := st.Endianness.Order
	offset := 0
	var records []NameResolutionRecord
	for offset+4 <= len(body) {
		recordType := endian.Uint16(body[offset : offset+2])
		recordValueLength := int(endian.Uint16(body[offset+2 : offset+4]))
		offset += 4
		if recordType == 0 {
			break
		}
		if offset+recordValueLength > len(body) {
			return Block{}, fmt.Errorf("Invalid nrb_record_value: runs past block body")
		}
		value := body[offset : offset+recordValueLength]
		offset += recordValueLength
		offset += pad4(recordValueLength)

		rec, err := decodeNameResolutionRecord(recordType, value)
		if err != nil {
			return Block{}, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	opts, err := decodeOptions(body, offset, endian, BlockTypeNameResolution, nil)
	if err != nil {
		return Block{}, err
	}
	return Block{Kind: BlockNames, Names: &NameResolution{Records: records, Options: opts}}, nil
}

func decodeNameResolutionRecord(recordType uint16, value []byte) (*NameResolutionRecord, error) {
	splitNames := func(rest []byte) []string {
		names := strings.Split(string(rest), "\x00")
		if len(names) > 0 && names[len(names)-1] == "" {
			names = names[:len(names)-1]
		}
		return names
	}
	switch recordType {
	case 1: // ipv4
		if len(value) < 6 {
			return nil, fmt.Errorf("Invalid nrb_record_ipv4: too short")
		}
		return &NameResolutionRecord{
			Kind:    "ipv4",
			Address: ipString(value[0:4]),
			Names:   splitNames(value[4:]),
		}, nil
	case 2: // ipv6
		if len(value) < 18 {
			return nil, fmt.Errorf("Invalid nrb_record_ipv6: too short")
		}
		return &NameResolutionRecord{
			Kind:    "ipv6",
			Address: ipString(value[0:16]),
			Names:   splitNames(value[16:]),
		}, nil
	case 3: // eui48
		if len(value) < 8 {
			return nil, fmt.Errorf("Invalid nrb_record_eui48: too short")
		}
		return &NameResolutionRecord{
			Kind:    "eui48",
			Address: euiString(value[0:6]),
			Names:   splitNames(value[6:]),
		}, nil
	case 4: // eui64
		if len(value) < 10 {
			return nil, fmt.Errorf("Invalid nrb_record_eui64: too short")
		}
		return &NameResolutionRecord{
			Kind:    "eui64",
			Address: euiString(value[0:8]),
			Names:   splitNames(value[8:]),
		}, nil
	default:
		return nil, nil // other: silently skip
	}
}

func processInterfaceStats(raw RawBlock, st *State) (Block, error) {
	body := raw.Body
	if len(body) < 12 {
		return Block{}, fmt.Errorf("interface statistics block too short")
	}
	endian := st.Endianness.Order
	interfaceID := endian.Uint32(body[0:4])
	if interfaceID >= uint32(len(st.Interfaces)) {
		return Block{}, fmt.Errorf("Invalid interface id")
	}
	iface := &st.Interfaces[interfaceID]
	tsHigh := endian.Uint32(body[4:8])
	tsLow := endian.Uint32(body[8:12])
	timestamp := pcaptime.Resolve(tsHigh, tsLow, iface.TSOffset, iface.TSResol)
	opts, err := decodeOptions(body, 12, endian, BlockTypeInterfaceStats, iface)
	if err != nil {
		return Block{}, err
	}
	return Block{
		Kind: BlockStats,
		Stats: &InterfaceStatistics{
			InterfaceID: interfaceID,
			Timestamp:   timestamp,
			Options:     opts,
		},
	}, nil
}

func processEnhancedPacket(raw RawBlock, st *State) (Block, error) {
	body := raw.Body
	if len(body) < 20 {
		return Block{}, fmt.Errorf("enhanced packet block too short")
	}
	endian := st.Endianness.Order
	interfaceID := endian.Uint32(body[0:4])
	if interfaceID >= uint32(len(st.Interfaces)) {
		return Block{}, fmt.Errorf("Invalid interface id")
	}
	iface := &st.Interfaces[interfaceID]
	tsHigh := endian.Uint32(body[4:8])
	tsLow := endian.Uint32(body[8:12])
	capturedLen := endian.Uint32(body[12:16])
	originalLen := endian.Uint32(body[16:20])

	offset := 20
	if offset+int(capturedLen) > len(body) {
		return Block{}, fmt.Errorf("enhanced packet captured length runs past block body")
	}
	data := append([]byte(nil), body[offset:offset+int(capturedLen)]...)
	offset += int(capturedLen)
	offset += pad4(int(capturedLen))

	opts, err := decodeOptions(body, offset, endian, BlockTypeEnhancedPacket, iface)
	if err != nil {
		return Block{}, err
	}
	var flags *PacketFlags
	for _, opt := range opts {
		if opt.Type == 2 && len(opt.Data) >= 4 { // epb_flags
			flagBits := endian.Uint32(opt.Data[0:4])
			flags = decodePacketFlags(flagBits)
		}
	}
	timestamp := pcaptime.Resolve(tsHigh, tsLow, iface.TSOffset, iface.TSResol)
	return Block{
		Kind: BlockData,
		Data: &Packet{
			InterfaceID:          interfaceID,
			Timestamp:            timestamp,
			HasTimestamp:         true,
			Flags:                flags,
			OriginalPacketLength: originalLen,
			Data:                 data,
			Options:              opts,
		},
	}, nil
}

func processDecryptionSecrets(raw RawBlock, st *State) (Block, error) {
	body := raw.Body
	if len(body) < 8 {
		return Block{}, fmt.Errorf("decryption secrets block too short")
	}
	endian := st.Endianness.Order
	secretsType := endian.Uint32(body[0:4])
	secretsLength := endian.Uint32(body[4:8])
	offset := 8
	if offset+int(secretsLength) > len(body) {
		return Block{}, fmt.Errorf("decryption secrets length runs past block body")
	}
	data := append([]byte(nil), body[offset:offset+int(secretsLength)]...)
	offset += int(secretsLength)
	offset += pad4(int(secretsLength))
	opts, err := decodeOptions(body, offset, endian, BlockTypeDecryptSecrets, nil)
	if err != nil {
		return Block{}, err
	}
	return Block{
		Kind: BlockSecrets,
		Secrets: &DecryptionSecrets{
			SecretsType: secretsType,
			Data:        data,
			Options:     opts,
		},
	}, nil
}

func processCustom(raw RawBlock, st *State, copyable bool) (Block, error) {
	body := raw.Body
	if len(body) < 4 {
		return Block{}, fmt.Errorf("custom block too short")
	}
	endian := st.Endianness.Order
	pen := endian.Uint32(body[0:4])
	data := append([]byte(nil), body[4:]...)
	return Block{
		Kind:   BlockCustom,
		Custom: &CustomBlock{PEN: pen, Data: data, Copy: copyable},
	}, nil
}

// ipString pretty-prints a 4- or 16-byte address.
func ipString(b []byte) string {
	return net.IP(b).String()
}
