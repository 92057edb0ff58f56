// SPDX-License-Identifier: MIT

// Package pcapflow ties together format detection, the pcapng and legacypcap
// readers, and error classification into a single streaming Decoder with one
// output event channel, per spec.
package pcapflow

import "github.com/pcapflow/pcapflow/pcapng"

// EventKind discriminates the payload carried by an Event, since Go has no
// tagged union: exactly one of Event's optional fields is populated,
// according to Kind.
type EventKind int

const (
	// EventSection reports a new Section Header block; Event.Section is set.
	EventSection EventKind = iota
	// EventInterface reports a new Interface Description, or the single
	// synthesized interface of a legacy PCAP file; Event.Interface is set.
	EventInterface
	// EventData reports a packet record; Event.Data is set.
	EventData
	// EventNames reports a Name Resolution block; Event.Names is set.
	EventNames
	// EventStats reports an Interface Statistics block; Event.Stats is set.
	EventStats
	// EventSecrets reports a Decryption Secrets block; Event.Secrets is set.
	EventSecrets
	// EventCustom reports a Custom block; Event.Custom is set.
	EventCustom
	// EventUnknown reports a recognized-format but unhandled block type;
	// Event.Unknown carries the numeric block type.
	EventUnknown
	// EventError reports a fatal or recoverable error; Event.Err is set.
	EventError
	// EventClose is always the last event sent on a Decoder's channel.
	EventClose
)

// Event is the single tagged value a Decoder sends for every logical record
// it completes. Exactly one of the pointer/value fields below is
// meaningful, as selected by Kind.
type Event struct {
	Kind      EventKind
	Section   *pcapng.Section
	Interface *pcapng.Interface
	Data      *pcapng.Packet
	Names     *pcapng.NameResolution
	Stats     *pcapng.InterfaceStatistics
	Secrets   *pcapng.DecryptionSecrets
	Custom    *pcapng.CustomBlock
	Unknown   uint32
	Err       error
}
