// SPDX-License-Identifier: MIT

package pcapflow

import (
	"context"
	"encoding/hex"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pcapflow/pcapflow/streambuf"
)

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

func drain(events <-chan Event) []Event {
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

var _ = Describe("Decoder", func() {

	Describe("PCAPng streams", func() {
		It("emits section, interface and data events then closes (S1+S2)", func() {
			buf := bufOf(hx(`
				0A0D0D0A 0000001C 1A2B3C4D 0001 0000 FFFFFFFFFFFFFFFF 0000001C
				00000001 00000014 0001 0000 00000010 00000014
				00000003 00000014 00000003 01020300 00000014`))
			events := New(Config{}).Run(context.Background(), buf)
			got := drain(events)

			Expect(got).Should(HaveLen(4))
			Expect(got[0].Kind).Should(Equal(EventSection))
			Expect(got[1].Kind).Should(Equal(EventInterface))
			Expect(got[2].Kind).Should(Equal(EventData))
			Expect(got[2].Data.Data).Should(Equal([]byte{0x01, 0x02, 0x03}))
			Expect(got[3].Kind).Should(Equal(EventClose))
		})

		It("resumes after a recoverable per-block error", func() {
			// A simple packet block with no interface yet defined, followed by a
			// well-formed section header.
			buf := bufOf(hx(`
				00000003 00000014 00000003 01020300 00000014
				0A0D0D0A 0000001C 1A2B3C4D 0001 0000 FFFFFFFFFFFFFFFF 0000001C`))
			events := New(Config{}).Run(context.Background(), buf)
			got := drain(events)

			Expect(got).Should(HaveLen(3))
			Expect(got[0].Kind).Should(Equal(EventError))
			var recov *RecoverableError
			Expect(got[0].Err).Should(BeAssignableToTypeOf(recov))
			Expect(got[1].Kind).Should(Equal(EventSection))
			Expect(got[2].Kind).Should(Equal(EventClose))
		})

		It("reports a mid-block truncation as a fatal error", func() {
			buf := bufOf(hx(`0A0D0D0A 0000001C 1A2B`)) // cuts off inside the byte-order-magic peek
			events := New(Config{}).Run(context.Background(), buf)
			got := drain(events)

			Expect(got).Should(HaveLen(2))
			Expect(got[0].Kind).Should(Equal(EventError))
			var fatal *PcapError
			Expect(got[0].Err).Should(BeAssignableToTypeOf(fatal))
			Expect(got[1].Kind).Should(Equal(EventClose))
		})

		It("rejects a PCAPng stream when RejectNG is set", func() {
			buf := bufOf(hx(`0A0D0D0A 0000001C 1A2B3C4D 0001 0000 FFFFFFFFFFFFFFFF 0000001C`))
			events := New(Config{RejectNG: true}).Run(context.Background(), buf)
			got := drain(events)

			Expect(got).Should(HaveLen(2))
			Expect(got[0].Kind).Should(Equal(EventError))
			Expect(got[1].Kind).Should(Equal(EventClose))
		})
	})

	Describe("legacy PCAP streams", func() {
		It("emits an interface and data event then closes (S4)", func() {
			buf := bufOf(hx(`
				A1B2C3D4
				0002 0004 00000000 00000000 0000FFFF 00000001
				00000000 000003E8 00000003 00000003 010203`))
			events := New(Config{}).Run(context.Background(), buf)
			got := drain(events)

			Expect(got).Should(HaveLen(3))
			Expect(got[0].Kind).Should(Equal(EventInterface))
			Expect(got[0].Interface.SnapLen).Should(Equal(uint32(0xFFFF)))
			Expect(got[1].Kind).Should(Equal(EventData))
			Expect(got[1].Data.Timestamp).Should(Equal(int64(1)))
			Expect(got[2].Kind).Should(Equal(EventClose))
		})

		It("rejects a legacy stream when RejectOld is set", func() {
			buf := bufOf(hx(`A1B2C3D4 0002 0004 00000000 00000000 0000FFFF 00000001`))
			events := New(Config{RejectOld: true}).Run(context.Background(), buf)
			got := drain(events)

			Expect(got).Should(HaveLen(2))
			Expect(got[0].Kind).Should(Equal(EventError))
			Expect(got[1].Kind).Should(Equal(EventClose))
		})
	})

	Describe("cancellation", func() {
		It("aborts the decode loop when the context is cancelled", func() {
			buf := streambuf.New() // never ended: the producer "hangs"
			ctx, cancel := context.WithCancel(context.Background())
			events := New(Config{}).Run(ctx, buf)
			cancel()
			got := drain(events)

			Expect(got).ShouldNot(BeEmpty())
			Expect(got[len(got)-1].Kind).Should(Equal(EventClose))
		})
	})
})
