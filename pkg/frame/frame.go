// Package frame implements the byte-stuffed, XOR-checksummed frame format
// that carries an opaque payload over a byte-oriented link.
package frame

import "github.com/oscillon-systems/smp/pkg/smperr"

const (
	Start byte = 0x10
	Esc   byte = 0x1b
	End   byte = 0xff
)

// DefaultMaxFrameSize is the default post-stuffing frame size limit.
const DefaultMaxFrameSize = 1024

func isMagic(b byte) bool {
	return b == Start || b == Esc || b == End
}

// checksum returns the XOR of every byte in payload, seeded at zero.
func checksum(payload []byte) byte {
	var crc byte
	for _, b := range payload {
		crc ^= b
	}
	return crc
}

// EncodedSize returns the number of bytes Encode would write for payload.
func EncodedSize(payload []byte) int {
	size := 3 // Start + End + crc byte (before stuffing)
	crc := checksum(payload)
	for _, b := range payload {
		if isMagic(b) {
			size++
		}
		size++
	}
	if isMagic(crc) {
		size++
	}
	return size
}

// Encode wraps payload into a framed, byte-stuffed, checksummed message.
//
// If out is nil, Encode allocates a buffer sized exactly to the encoded
// frame. If out is non-nil, Encode writes into it and fails with Overflow
// if it is too small.
func Encode(payload []byte, out []byte) ([]byte, error) {
	required := EncodedSize(payload)
	if out == nil {
		out = make([]byte, required)
	} else if len(out) < required {
		return nil, smperr.Overflow
	} else {
		out = out[:required]
	}

	crc := checksum(payload)

	offset := 0
	out[offset] = Start
	offset++
	for _, b := range payload {
		if isMagic(b) {
			out[offset] = Esc
			offset++
		}
		out[offset] = b
		offset++
	}
	if isMagic(crc) {
		out[offset] = Esc
		offset++
	}
	out[offset] = crc
	offset++
	out[offset] = End
	offset++

	return out[:offset], nil
}
