// SPDX-License-Identifier: MIT

package pcapng

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/pcapflow/pcapflow/pcaptime"
)

// valueKind classifies how an option's raw bytes are interpreted, generalizing
// the teacher's single hard-coded "it's always a string" Option.String into
// the full typed vocabulary the PCAPng draft specifies.
type valueKind int

const (
	kindString valueKind = iota
	kindIPv4
	kindIPv6
	kindIPv4Mask
	kindIPv6Prefix
	kindEUI
	kindU32
	kindU64
	kindTimestamp
	kindRaw
)

// optionDef is one entry of the per-block-type option dictionary: its name,
// how to interpret its value, and whether its value is prefixed by a Private
// Enterprise Number.
type optionDef struct {
	name   string
	kind   valueKind
	hasPEN bool
}

// The four universal custom-option codes, valid under any block type, that
// carry a PEN ahead of their value.
const (
	optCustomStringPEN  = uint16(2988)
	optCustomDataPEN    = uint16(2989)
	optCustomStringPEN2 = uint16(19372)
	optCustomDataPEN2   = uint16(19373)
)

// optionDict is the two-level blockType -> optionType -> optionDef
// dictionary, built once as immutable data rather than a generated switch,
// generalizing the teacher's four-entry Section-Header-only OptComment /
// OptSHBHardware / OptSHBOS / OptSHBUserAppl table to the set spec'd for
// Section Header, Interface Description, Enhanced Packet, Interface
// Statistics and Name Resolution blocks.
var optionDict = map[int32]map[uint16]optionDef{
	BlockTypeSectionHeader: {
		1: {name: "opt_comment", kind: kindString},
		2: {name: "shb_hardware", kind: kindString},
		3: {name: "shb_os", kind: kindString},
		4: {name: "shb_userappl", kind: kindString},
	},
	BlockTypeInterface: {
		1:  {name: "opt_comment", kind: kindString},
		2:  {name: "if_name", kind: kindString},
		4:  {name: "if_IPv4addr", kind: kindIPv4Mask},
		5:  {name: "if_IPv6addr", kind: kindIPv6Prefix},
		6:  {name: "if_MACaddr", kind: kindEUI},
		7:  {name: "if_EUIaddr", kind: kindEUI},
		9:  {name: "if_tsresol", kind: kindRaw},
		14: {name: "if_tsoffset", kind: kindU64},
		16: {name: "if_txspeed", kind: kindU64},
		17: {name: "if_rxspeed", kind: kindU64},
	},
	BlockTypeEnhancedPacket: {
		1: {name: "opt_comment", kind: kindString},
		2: {name: "epb_flags", kind: kindRaw},
		4: {name: "epb_dropcount", kind: kindU64},
		5: {name: "epb_packetid", kind: kindU64},
		6: {name: "epb_queue", kind: kindU32},
	},
	BlockTypeInterfaceStats: {
		1: {name: "opt_comment", kind: kindString},
		2: {name: "isb_starttime", kind: kindTimestamp},
		3: {name: "isb_endtime", kind: kindTimestamp},
		4: {name: "isb_ifrecv", kind: kindU64},
		5: {name: "isb_ifdrop", kind: kindU64},
		6: {name: "isb_filteraccept", kind: kindU64},
		7: {name: "isb_osdrop", kind: kindU64},
		8: {name: "isb_usrdeliv", kind: kindU64},
	},
	BlockTypeNameResolution: {
		1: {name: "opt_comment", kind: kindString},
		3: {name: "ns_dnsIP4addr", kind: kindIPv4},
		4: {name: "ns_dnsIP6addr", kind: kindIPv6},
	},
}

// lookupOption resolves (blockType, optionType) against the dictionary,
// falling back to the universal custom-option PEN codes, and finally to a
// raw/unknown definition so every option code decodes to *something*.
func lookupOption(blockType int32, optionType uint16) optionDef {
	if byType, ok := optionDict[blockType]; ok {
		if def, ok := byType[optionType]; ok {
			return def
		}
	}
	switch {
	case slices.Contains([]uint16{optCustomStringPEN, optCustomStringPEN2}, optionType):
		return optionDef{name: "opt_custom", kind: kindString, hasPEN: true}
	case slices.Contains([]uint16{optCustomDataPEN, optCustomDataPEN2}, optionType):
		return optionDef{name: "opt_custom", kind: kindRaw, hasPEN: true}
	default:
		return optionDef{name: fmt.Sprintf("opt_%d", optionType), kind: kindRaw}
	}
}

// decodeOptions walks a block body's trailing option TLV list, starting at
// body[offset:], until the end-of-options sentinel or the body is exhausted.
// iface, when non-nil, is the interface a kindTimestamp option resolves
// against, threaded by argument per the no-back-links design note rather
// than stored as a back-link in the data model.
func decodeOptions(body []byte, offset int, endian binary.ByteOrder, blockType int32, iface *Interface) ([]Option, error) {
	var opts []Option
	for offset < len(body) {
		if offset+4 > len(body) {
			break
		}
		optionType := endian.Uint16(body[offset : offset+2])
		dataLength := int(endian.Uint16(body[offset+2 : offset+4]))
		offset += 4
		if optionType == 0 {
			break
		}
		if offset+dataLength > len(body) {
			return opts, fmt.Errorf("option value runs past block body")
		}
		value := body[offset : offset+dataLength]
		offset += dataLength
		offset += pad4(dataLength)

		def := lookupOption(blockType, optionType)
		opt := Option{Type: optionType, Name: def.name}
		if optionType&0x8000 != 0 {
			opt.Private = true
		}

		if def.hasPEN {
			if len(value) < 4 {
				return opts, fmt.Errorf("custom option too short for PEN")
			}
			opt.HasPEN = true
			opt.PEN = endian.Uint32(value[0:4])
			value = value[4:]
		}

		if err := decodeOptionValue(&opt, def.kind, value, endian, iface); err != nil {
			return opts, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// decodeOptionValue interprets value per kind and fills in the typed fields
// of opt.
func decodeOptionValue(opt *Option, kind valueKind, value []byte, endian binary.ByteOrder, iface *Interface) error {
	switch kind {
	case kindString:
		opt.Str = strings.TrimSpace(strings.ReplaceAll(string(value), "\x00", ""))
	case kindIPv4:
		if len(value) < 4 {
			return fmt.Errorf("option value too short for ipv4")
		}
		opt.Str = net.IP(value[0:4]).String()
	case kindIPv6:
		if len(value) < 16 {
			return fmt.Errorf("option value too short for ipv6")
		}
		opt.Str = net.IP(value[0:16]).String()
	case kindIPv4Mask:
		if len(value) != 8 {
			return fmt.Errorf("Invalid ipv4mask option")
		}
		opt.Str = fmt.Sprintf("%s/%s", net.IP(value[0:4]).String(), net.IP(value[4:8]).String())
	case kindIPv6Prefix:
		if len(value) != 17 {
			return fmt.Errorf("Invalid ipv6prefix option")
		}
		opt.Str = fmt.Sprintf("%s/%d", net.IP(value[0:16]).String(), value[16])
	case kindEUI:
		opt.Str = euiString(value)
	case kindU32:
		if len(value) < 4 {
			return fmt.Errorf("option value too short for u32")
		}
		opt.Int = uint64(endian.Uint32(value[0:4]))
		opt.HasInt = true
	case kindU64:
		if len(value) < 8 {
			return fmt.Errorf("option value too short for u64")
		}
		opt.Int = endian.Uint64(value[0:8])
		opt.HasInt = true
	case kindTimestamp:
		if len(value) < 8 {
			return fmt.Errorf("option value too short for timestamp")
		}
		if iface == nil {
			return fmt.Errorf("timestamp option without an owning interface")
		}
		tsHigh := endian.Uint32(value[0:4])
		tsLow := endian.Uint32(value[4:8])
		opt.Int = uint64(pcaptime.Resolve(tsHigh, tsLow, iface.TSOffset, iface.TSResol))
		opt.HasInt = true
	default: // kindRaw
		opt.Data = append([]byte(nil), value...)
	}
	return nil
}

// euiString renders an EUI-48 or EUI-64 address as colon-separated hex
// octets.
func euiString(b []byte) string {
	parts := make([]string, len(b))
	for i, octet := range b {
		parts[i] = fmt.Sprintf("%02x", octet)
	}
	return strings.Join(parts, ":")
}
