// SPDX-License-Identifier: MIT

package pcapng

import (
	"fmt"

	"github.com/pcapflow/pcapflow/streambuf"
)

// FrameBlock reads one (blockType, totalLength, body, padding, trailingLength)
// tuple from buf, validating the redundant trailing length, and updates
// st.Endianness when the block is a Section Header — sniffing the
// byte-order magic before committing to an endianness, exactly as spec'd.
// The byte-order magic itself is left in place as the first four bytes of
// the returned body; the Section Header block processor skips over it when
// decoding its own fixed fields.
//
// A clean end of stream (the producer called streambuf.Buffer.End exactly at
// a block boundary) surfaces as *streambuf.TruncationError with Requested
// == 4; callers must not treat that specific case as fatal. Any other error
// returned here is a framing error and is always fatal.
func FrameBlock(buf *streambuf.Buffer, st *State) (RawBlock, error) {
	endian := st.Endianness.Order

	typeBytes, err := buf.Read(4)
	if err != nil {
		return RawBlock{}, err
	}
	blockType := int32(endian.Uint32(typeBytes))

	if blockType == BlockTypeSectionHeader {
		// Peek ahead (without consuming) at the total length field and the
		// byte-order magic that follows it, so we can pin down endianness
		// before committing to an interpretation of anything, including the
		// total length itself.
		peeked, err := buf.Peek(8)
		if err != nil {
			return RawBlock{}, err
		}
		// Read in the current endianness, so that the magic reads as
		// byteOrderMagicSame exactly when the new section keeps it.
		magic := endian.Uint32(peeked[4:8])
		switch magic {
		case byteOrderMagicSame:
			// keep current endianness
		case byteOrderMagicSwap:
			if st.Endianness.Tag == "BE" {
				st.Endianness = LittleEndian
			} else {
				st.Endianness = BigEndian
			}
		default:
			return RawBlock{}, fmt.Errorf("Unable to determine endian")
		}
		endian = st.Endianness.Order
	}

	totalLengthBytes, err := buf.Read(4)
	if err != nil {
		return RawBlock{}, err
	}
	totalLength := endian.Uint32(totalLengthBytes)
	return finishFrame(buf, st, blockType, totalLength)
}

// finishFrame reads the body, padding and trailing length of a block whose
// type and total length are already known.
func finishFrame(buf *streambuf.Buffer, st *State, blockType int32, totalLength uint32) (RawBlock, error) {
	if totalLength < 12 {
		return RawBlock{}, fmt.Errorf("block total length %d is smaller than the 12 byte minimum", totalLength)
	}
	if totalLength%4 != 0 {
		return RawBlock{}, fmt.Errorf("block total length %d is not a multiple of 4", totalLength)
	}
	dataLen := int(totalLength) - 12
	body, err := buf.Read(dataLen)
	if err != nil {
		return RawBlock{}, err
	}
	if pad := pad4(dataLen); pad > 0 {
		if err := buf.Skip(pad); err != nil {
			return RawBlock{}, err
		}
	}
	trailingBytes, err := buf.Read(4)
	if err != nil {
		return RawBlock{}, err
	}
	trailing := st.Endianness.Order.Uint32(trailingBytes)
	if trailing != totalLength {
		return RawBlock{}, fmt.Errorf("Length mismatch: leading %d, trailing %d", totalLength, trailing)
	}
	return RawBlock{Type: blockType, TotalLength: totalLength, Body: body}, nil
}
