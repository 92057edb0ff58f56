// SPDX-License-Identifier: MIT

package pcapflow

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/pcapflow/pcapflow/legacypcap"
	"github.com/pcapflow/pcapflow/pcapng"
	"github.com/pcapflow/pcapflow/streambuf"
)

// Decoder drives a single capture stream end to end: it detects the format
// once, then loops framing and processing blocks (or, for legacy PCAP,
// packets) until the producer ends or aborts the buffer, sending one Event
// per logical record. A final EventClose is always sent last.
type Decoder struct {
	cfg Config
}

// New returns a Decoder configured with cfg.
func New(cfg Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// Run starts the decode loop as a goroutine (mirroring the teacher's
// StartCaptureStream pattern) reading from buf and sending Events on the
// returned channel until the stream ends, then closes the channel. Run does
// not block; read the returned channel to drive the decoder and to receive
// EventClose.
//
// Cancelling ctx aborts buf, which unblocks whatever read the decode loop is
// currently suspended on with an abort error, dispatched as a fatal
// EventError followed by EventClose.
func (d *Decoder) Run(ctx context.Context, buf *streambuf.Buffer) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		stopWatch := make(chan struct{})
		defer close(stopWatch)
		go func() {
			select {
			case <-ctx.Done():
				buf.Abort(ctx.Err())
			case <-stopWatch:
			}
		}()

		result, err := sniff(buf, d.cfg)
		if err != nil {
			log.Debugf("format detection failed: %s", err)
			events <- Event{Kind: EventError, Err: err}
			events <- Event{Kind: EventClose}
			return
		}

		switch result.format {
		case formatPcapNG:
			log.Debug("decoding PCAPng stream")
			runPcapNG(buf, events)
		case formatLegacy:
			log.Debugf("decoding legacy PCAP stream, endianness=%s nanosecond=%v", result.endianness.Tag, result.nanosecond)
			runLegacy(buf, result.endianness, result.nanosecond, events)
		}
		events <- Event{Kind: EventClose}
	}()
	return events
}

// runPcapNG drives the PCAPng section loop: frame a block, process it,
// classify any error, repeat until a clean end of stream or a fatal error.
func runPcapNG(buf *streambuf.Buffer, events chan<- Event) {
	st := pcapng.NewState()
	for {
		raw, err := pcapng.FrameBlock(buf, st)
		if err != nil {
			var trunc *streambuf.TruncationError
			if errors.As(err, &trunc) && trunc.Requested == 4 {
				return // clean end of stream at a block boundary
			}
			events <- Event{Kind: EventError, Err: &PcapError{Msg: "framing error", Cause: err}}
			return
		}

		block, err := pcapng.ProcessBlock(raw, st)
		if err != nil {
			if pcapng.IsIgnoredLocalUse(err) {
				continue
			}
			log.Debugf("recoverable block error, resuming at next block: %s", err)
			events <- Event{Kind: EventError, Err: &RecoverableError{Msg: "block processing error", Cause: err}}
			continue
		}
		events <- blockToEvent(block)
	}
}

// blockToEvent lifts a pcapng.Block into the root package's Event shape.
func blockToEvent(b pcapng.Block) Event {
	switch b.Kind {
	case pcapng.BlockSection:
		return Event{Kind: EventSection, Section: b.Section}
	case pcapng.BlockInterface:
		return Event{Kind: EventInterface, Interface: b.Interface}
	case pcapng.BlockData:
		return Event{Kind: EventData, Data: b.Data}
	case pcapng.BlockNames:
		return Event{Kind: EventNames, Names: b.Names}
	case pcapng.BlockStats:
		return Event{Kind: EventStats, Stats: b.Stats}
	case pcapng.BlockSecrets:
		return Event{Kind: EventSecrets, Secrets: b.Secrets}
	case pcapng.BlockCustom:
		return Event{Kind: EventCustom, Custom: b.Custom}
	default:
		return Event{Kind: EventUnknown, Unknown: uint32(b.Unknown)}
	}
}

// runLegacy drives the legacy PCAP reader: a single synthesized Interface
// event, then a packet loop until a clean end of stream. Every error here is
// fatal — legacy PCAP has no recoverable layer.
func runLegacy(buf *streambuf.Buffer, endian pcapng.Endianness, nanosecond bool, events chan<- Event) {
	iface, err := legacypcap.ReadHeader(buf, endian, nanosecond)
	if err != nil {
		events <- Event{Kind: EventError, Err: &PcapError{Msg: "legacy header read failed", Cause: err}}
		return
	}
	events <- Event{Kind: EventInterface, Interface: &iface}

	for {
		pkt, err := legacypcap.ReadPacket(buf, endian.Order, iface.TSResol)
		if err != nil {
			var trunc *streambuf.TruncationError
			if errors.As(err, &trunc) && trunc.Requested == 4 {
				return // clean end of stream at a record boundary
			}
			events <- Event{Kind: EventError, Err: &PcapError{Msg: "legacy packet read failed", Cause: err}}
			return
		}
		events <- Event{Kind: EventData, Data: &pkt}
	}
}
