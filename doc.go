/*
Package pcapflow streams-decodes legacy PCAP and PCAPng network capture
files. A Decoder detects the format from the first four bytes, recovers
endianness and (for legacy PCAP) timestamp resolution from the magic number,
then frames and processes one block (or, for legacy PCAP, one packet record)
at a time as they arrive on a streambuf.Buffer — so a capture can be decoded
as it is being received, without first buffering it whole.

Decoding does not stop at a fault confined to one block: a malformed PCAPng
block is reported as a RecoverableError and the decode loop resumes framing
at the next block, while a framing or format error is fatal and reported as
a PcapError followed immediately by the stream's final EventClose.

See package pcapng for the PCAPng block model and package legacypcap for the
legacy PCAP reader; package pcaptime reconstructs the absolute millisecond
timestamps both formats split across two 32 bit fields.
*/
package pcapflow
