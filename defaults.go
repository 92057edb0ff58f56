// SPDX-License-Identifier: MIT

package pcapflow

const (
	// DefaultFeedChunkSize is the read buffer size the CLI's file/stdin
	// feeder uses when pumping octets into a streambuf.Buffer.
	DefaultFeedChunkSize = 64 * 1024
)
