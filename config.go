// SPDX-License-Identifier: MIT

package pcapflow

// Config carries the two format-rejection switches a Decoder is configured
// with. Both default to false: accept either format.
type Config struct {
	// RejectOld treats a legacy PCAP stream as a fatal format error instead
	// of decoding it.
	RejectOld bool
	// RejectNG treats a PCAPng stream as a fatal format error instead of
	// decoding it.
	RejectNG bool
}
