// SPDX-License-Identifier: MIT

package streambuf

import (
	"encoding/binary"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Buffer", func() {

	It("reads what was written", func() {
		b := New()
		_, _ = b.Write([]byte{1, 2, 3, 4})
		b.End()

		got, err := b.Read(4)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(got).Should(Equal([]byte{1, 2, 3, 4}))
	})

	It("peeks without consuming", func() {
		b := New()
		_, _ = b.Write([]byte{0xAA, 0xBB, 0xCC})
		b.End()

		peeked, err := b.Peek(2)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(peeked).Should(Equal([]byte{0xAA, 0xBB}))

		read, err := b.Read(3)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(read).Should(Equal([]byte{0xAA, 0xBB, 0xCC}))
	})

	It("assembles reads across chunk boundaries", func() {
		b := New()
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(5 * time.Millisecond)
			_, _ = b.Write([]byte{1, 2})
			time.Sleep(5 * time.Millisecond)
			_, _ = b.Write([]byte{3, 4})
			b.End()
		}()

		got, err := b.Read(4)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(got).Should(Equal([]byte{1, 2, 3, 4}))
		wg.Wait()
	})

	It("raises TruncationError with the requested size on clean end", func() {
		b := New()
		_, _ = b.Write([]byte{1, 2})
		b.End()

		_, err := b.Read(4)
		var trunc *TruncationError
		Expect(err).Should(BeAssignableToTypeOf(trunc))
		Expect(err.(*TruncationError).Requested).Should(Equal(4))
	})

	It("reports an abort instead of truncation", func() {
		b := New()
		cause := &TruncationError{Requested: 99} // any sentinel error will do
		b.Abort(cause)

		_, err := b.Read(1)
		var aborted *AbortError
		Expect(err).Should(BeAssignableToTypeOf(aborted))
		Expect(err.(*AbortError).Unwrap()).Should(BeIdenticalTo(error(cause)))
	})

	It("decodes multi-byte integers in both byte orders", func() {
		b := New()
		_, _ = b.Write([]byte{0x00, 0x00, 0x10, 0x00})
		b.End()
		v, err := b.ReadUint32(binary.BigEndian)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(uint32(0x1000)))

		b2 := New()
		_, _ = b2.Write([]byte{0x00, 0x10, 0x00, 0x00})
		b2.End()
		v2, err := b2.ReadUint32(binary.LittleEndian)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v2).Should(Equal(uint32(0x1000)))
	})

	It("skips octets without returning them", func() {
		b := New()
		_, _ = b.Write([]byte{1, 2, 3, 4, 5})
		b.End()
		Expect(b.Skip(2)).Should(Succeed())
		got, err := b.Read(3)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(got).Should(Equal([]byte{3, 4, 5}))
	})
})
