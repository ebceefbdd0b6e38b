package gopng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitstreamReadBitLSBFirstWithinByte(t *testing.T) {
	// 0b10110010 read bit-by-bit LSB->MSB: 0,1,0,0,1,1,0,1
	s := newBitstream([]byte{0b10110010})
	want := []int{0, 1, 0, 0, 1, 1, 0, 1}
	for i, w := range want {
		bit, err := s.readBit()
		require.NoError(t, err)
		require.Equalf(t, w, bit, "bit %d", i)
	}
	_, err := s.readBit()
	require.Error(t, err)
}

func TestBitstreamReadBitsLSBFirst(t *testing.T) {
	// first bit read becomes the LSB of the result.
	s := newBitstream([]byte{0b00000101})
	v, err := s.readBitsLSBFirst(3)
	require.NoError(t, err)
	require.Equal(t, uint32(0b101), v)
}

func TestBitstreamReadBitsMSBFirst(t *testing.T) {
	// first bit read becomes the MSB of the result. Bits leave the byte
	// LSB->MSB, so 0b00000101 yields 1,0,1 in that order.
	s := newBitstream([]byte{0b00000101})
	v, err := s.readBitsMSBFirst(3)
	require.NoError(t, err)
	require.Equal(t, uint32(0b101), v)
}

func TestBitstreamAlignAndAlignedReads(t *testing.T) {
	s := newBitstream([]byte{0xFF, 0x01, 0x02, 0x03, 0x04})
	_, err := s.readBitsLSBFirst(3)
	require.NoError(t, err)
	s.align()
	b, err := s.readAlignedByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), b)

	be, err := s.readAlignedBytesBigEndian(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0203), be)

	raw, err := s.readRawBytes(1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x04}, raw)
}

func TestBitstreamReadAlignedBytesLittleEndian(t *testing.T) {
	s := newBitstream([]byte{0x02, 0x01})
	v, err := s.readAlignedBytesLittleEndian(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102), v)
}

func TestBitstreamTruncated(t *testing.T) {
	s := newBitstream([]byte{0x00})
	_, err := s.readAlignedBytesBigEndian(4)
	require.Error(t, err)
}
