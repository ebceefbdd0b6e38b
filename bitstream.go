package gopng

import (
	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// bitstream is a byte-backed reader offering MSB-first or LSB-first bit
// pulls, aligned byte reads, and endian-aware multibyte reads. It owns an
// immutable byte buffer plus a read cursor (byte index + bit index 0..7).
//
// Bit direction and endianness are split into distinct typed methods
// rather than boolean flags on a single read call, so every call site is
// unambiguous about which convention it means.
type bitstream struct {
	buf     []byte
	bytePos int
	bitPos  uint8 // 0..7, bits already consumed from buf[bytePos]
}

func newBitstream(buf []byte) *bitstream {
	return &bitstream{buf: buf}
}

// readBit returns the next bit. Within a byte, bits are delivered LSB->MSB,
// the DEFLATE convention.
func (s *bitstream) readBit() (int, error) {
	if s.bytePos >= len(s.buf) {
		return 0, errors.Wrap(gopngerr.TruncatedInput, "bitstream: read bit past end")
	}
	bit := int(s.buf[s.bytePos]>>s.bitPos) & 1
	s.bitPos++
	if s.bitPos == 8 {
		s.bitPos = 0
		s.bytePos++
	}
	return bit, nil
}

// readBitsLSBFirst reads n bits where the first bit read becomes the LEAST
// significant bit of the result (DEFLATE integer fields).
func (s *bitstream) readBitsLSBFirst(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		bit, err := s.readBit()
		if err != nil {
			return 0, err
		}
		v |= uint32(bit) << uint(i)
	}
	return v, nil
}

// readBitsMSBFirst reads n bits where the first bit read becomes the MOST
// significant bit of the result (Huffman codes).
func (s *bitstream) readBitsMSBFirst(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		bit, err := s.readBit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | uint32(bit)
	}
	return v, nil
}

// align discards any in-flight partial byte, moving the cursor to the next
// byte boundary. A no-op if already aligned.
func (s *bitstream) align() {
	if s.bitPos != 0 {
		s.bitPos = 0
		s.bytePos++
	}
}

// readAlignedByte aligns to the next byte boundary, then returns the byte.
func (s *bitstream) readAlignedByte() (byte, error) {
	s.align()
	if s.bytePos >= len(s.buf) {
		return 0, errors.Wrap(gopngerr.TruncatedInput, "bitstream: read byte past end")
	}
	b := s.buf[s.bytePos]
	s.bytePos++
	return b, nil
}

// readAlignedBytesBigEndian composes n aligned bytes as a big-endian
// unsigned integer.
func (s *bitstream) readAlignedBytesBigEndian(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		b, err := s.readAlignedByte()
		if err != nil {
			return 0, err
		}
		v = (v << 8) | uint64(b)
	}
	return v, nil
}

// readAlignedBytesLittleEndian composes n aligned bytes as a little-endian
// unsigned integer.
func (s *bitstream) readAlignedBytesLittleEndian(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		b, err := s.readAlignedByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b) << uint(8*i)
	}
	return v, nil
}

// readRawBytes aligns, then copies the next n bytes verbatim (used for
// stored DEFLATE blocks).
func (s *bitstream) readRawBytes(n int) ([]byte, error) {
	s.align()
	if s.bytePos+n > len(s.buf) {
		return nil, errors.Wrap(gopngerr.TruncatedInput, "bitstream: raw read past end")
	}
	out := make([]byte, n)
	copy(out, s.buf[s.bytePos:s.bytePos+n])
	s.bytePos += n
	return out, nil
}
