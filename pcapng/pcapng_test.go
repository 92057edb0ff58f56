// SPDX-License-Identifier: MIT

package pcapng

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pcapflow/pcapflow/streambuf"
)

// hx decodes a whitespace-separated hex string into bytes, as used by the
// seed scenarios.
func hx(s string) []byte {
	b, err := hex.DecodeString(strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(s))
	Expect(err).ShouldNot(HaveOccurred())
	return b
}

func bufOf(data []byte) *streambuf.Buffer {
	b := streambuf.New()
	_, _ = b.Write(data)
	b.End()
	return b
}

var _ = Describe("pcapng", func() {

	Describe("block framer", func() {
		It("frames a minimal section header block (S1)", func() {
			buf := bufOf(hx(`0A0D0D0A 0000001C 1A2B3C4D 0001 0000 FFFFFFFFFFFFFFFF 0000001C`))
			st := NewState()
			raw, err := FrameBlock(buf, st)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(raw.Type).Should(Equal(BlockTypeSectionHeader))
			Expect(raw.TotalLength).Should(Equal(uint32(28)))
			Expect(st.Endianness.Tag).Should(Equal("BE"))

			block, err := ProcessBlock(raw, st)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(block.Kind).Should(Equal(BlockSection))
			Expect(block.Section.MajorVersion).Should(Equal(uint16(1)))
			Expect(block.Section.SectionLength).Should(Equal(int64(-1)))
		})

		It("flips endianness on the swapped byte-order magic", func() {
			buf := bufOf(hx(`0A0D0D0A 1C000000 4D3C2B1A 01000000 FFFFFFFFFFFFFFFF 1C000000`))
			st := NewState()
			_, err := FrameBlock(buf, st)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(st.Endianness.Tag).Should(Equal("LE"))
		})

		It("detects a length mismatch as fatal", func() {
			buf := bufOf(hx(`0A0D0D0A 0000001C 1A2B3C4D 0001 0000 FFFFFFFFFFFFFFFF 0000001D`))
			st := NewState()
			_, err := FrameBlock(buf, st)
			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(ContainSubstring("Length mismatch"))
		})

		It("reports a clean truncation at a block boundary", func() {
			buf := bufOf([]byte{})
			st := NewState()
			_, err := FrameBlock(buf, st)
			Expect(err).Should(HaveOccurred())
			trunc, ok := err.(*streambuf.TruncationError)
			Expect(ok).Should(BeTrue())
			Expect(trunc.Requested).Should(Equal(4))
		})
	})

	Describe("block processors", func() {
		It("decodes an interface and a simple packet (S2)", func() {
			buf := bufOf(hx(`
				0A0D0D0A 0000001C 1A2B3C4D 0001 0000 FFFFFFFFFFFFFFFF 0000001C
				00000001 00000014 0001 0000 00000010 00000014
				00000003 00000014 00000003 01020300 00000014`))
			st := NewState()

			raw, err := FrameBlock(buf, st) // section header
			Expect(err).ShouldNot(HaveOccurred())
			_, err = ProcessBlock(raw, st)
			Expect(err).ShouldNot(HaveOccurred())

			raw, err = FrameBlock(buf, st) // interface description
			Expect(err).ShouldNot(HaveOccurred())
			block, err := ProcessBlock(raw, st)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(block.Kind).Should(Equal(BlockInterface))
			Expect(block.Interface.SnapLen).Should(Equal(uint32(16)))

			raw, err = FrameBlock(buf, st) // simple packet
			Expect(err).ShouldNot(HaveOccurred())
			block, err = ProcessBlock(raw, st)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(block.Kind).Should(Equal(BlockData))
			Expect(block.Data.OriginalPacketLength).Should(Equal(uint32(3)))
			Expect(block.Data.Data).Should(Equal([]byte{0x01, 0x02, 0x03}))
		})

		It("raises a recoverable error for a simple packet without an interface (S3)", func() {
			buf := bufOf(hx(`00000003 00000014 00000003 01020300 00000014`))
			st := NewState()
			raw, err := FrameBlock(buf, st)
			Expect(err).ShouldNot(HaveOccurred())
			_, err = ProcessBlock(raw, st)
			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(ContainSubstring("No interface for simple packet"))
		})

		It("decodes a custom (copyable) block (S6)", func() {
			buf := bufOf(hx(`
				0A0D0D0A 00000020 1A2B3C4D 0001 0000 FFFFFFFFFFFFFFFF 00000000 00000020
				00000BAD 00000014 00007ed9 00000000 00000014`))
			st := NewState()
			raw, err := FrameBlock(buf, st)
			Expect(err).ShouldNot(HaveOccurred())
			_, err = ProcessBlock(raw, st)
			Expect(err).ShouldNot(HaveOccurred())

			raw, err = FrameBlock(buf, st)
			Expect(err).ShouldNot(HaveOccurred())
			block, err := ProcessBlock(raw, st)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(block.Kind).Should(Equal(BlockCustom))
			Expect(block.Custom.PEN).Should(Equal(uint32(32473)))
			Expect(block.Custom.Copy).Should(BeTrue())
			Expect(block.Custom.Data).Should(Equal([]byte{0x00, 0x00, 0x00, 0x00}))
		})

		It("rejects an out-of-range interface id as recoverable", func() {
			// Enhanced Packet block referencing interface 0 with none defined.
			buf := bufOf(hx(`00000006 00000020 00000000 00000000 00000001 00000004 00000004 00000020`))
			st := NewState()
			raw, err := FrameBlock(buf, st)
			Expect(err).ShouldNot(HaveOccurred())
			_, err = ProcessBlock(raw, st)
			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(ContainSubstring("Invalid interface id"))
		})
	})

	Describe("option decoder", func() {
		It("extracts a Private Enterprise Number from a custom option", func() {
			// optionType=2988 (opt_custom), dataLength=6: PEN(00007ed9) + "ab", padded to 8.
			body := hx(`0BAC 0006 00007ed9 61620000`)
			opts, err := decodeOptions(body, 0, binary.BigEndian, BlockTypeSectionHeader, nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(opts).Should(HaveLen(1))
			Expect(opts[0].Type).Should(Equal(uint16(2988)))
			Expect(opts[0].Name).Should(Equal("opt_custom"))
			Expect(opts[0].PEN).Should(Equal(uint32(32473)))
			Expect(opts[0].Str).Should(Equal("ab"))
		})

		It("flags options whose high bit is set as private", func() {
			body := hx(`8001 0000`)
			opts, err := decodeOptions(body, 0, binary.BigEndian, BlockTypeSectionHeader, nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(opts).Should(HaveLen(1))
			Expect(opts[0].Private).Should(BeTrue())
		})

		It("rejects a malformed ipv4mask option", func() {
			body := hx(`0004 0003 010203`)
			_, err := decodeOptions(body, 0, binary.BigEndian, BlockTypeInterface, nil)
			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(ContainSubstring("Invalid ipv4mask option"))
		})
	})

	Describe("packet flags", func() {
		It("decodes direction, reception, FCSlen and the link-layer error set", func() {
			f := decodePacketFlags(0x00FF0E65)
			Expect(f.Direction).Should(Equal("inbound"))
			Expect(f.Reception).Should(Equal("unicast"))
			Expect(f.FCSLen).Should(Equal(uint8(3)))
			Expect(f.NoChecksum).Should(BeTrue())
			Expect(f.ChecksumValid).Should(BeTrue())
			Expect(f.TCPSegmentationOffload).Should(BeTrue())
			Expect(f.LinkLayerErrors).Should(HaveLen(8))
		})
	})

	Describe("name resolution", func() {
		It("decodes an ipv4 record with one name", func() {
			body := hx(`0001 000E 7f000001 6c6f63616c686f7374 00 0000 00000000`)
			block, err := processNameResolution(RawBlock{Type: BlockTypeNameResolution, Body: body}, NewState())
			Expect(err).ShouldNot(HaveOccurred())
			Expect(block.Names.Records).Should(HaveLen(1))
			Expect(block.Names.Records[0].Kind).Should(Equal("ipv4"))
			Expect(block.Names.Records[0].Address).Should(Equal("127.0.0.1"))
			Expect(block.Names.Records[0].Names).Should(Equal([]string{"localhost"}))
		})
	})
})
