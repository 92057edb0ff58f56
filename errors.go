// SPDX-License-Identifier: MIT

package pcapflow

import "fmt"

// PcapError reports a fatal framing or format error: unknown magic, unknown
// byte-order magic, a trailing-length mismatch, mid-block truncation, an
// aborted producer, or a rejected format switch. A PcapError always stops the
// decode loop; the Decoder sends it as an EventError immediately followed by
// EventClose.
type PcapError struct {
	Msg   string
	Cause error
}

func (e *PcapError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *PcapError) Unwrap() error { return e.Cause }

// RecoverableError reports a fault confined to a single PCAPng block: the
// block processor that raised it is abandoned, but the decode loop resumes
// framing at the next block. Legacy PCAP never raises a RecoverableError —
// every one of its errors is fatal.
type RecoverableError struct {
	Msg   string
	Cause error
}

func (e *RecoverableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *RecoverableError) Unwrap() error { return e.Cause }

// fatalf builds a PcapError with a formatted message and no wrapped cause.
func fatalf(format string, args ...interface{}) *PcapError {
	return &PcapError{Msg: fmt.Sprintf(format, args...)}
}
