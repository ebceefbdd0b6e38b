package gopng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateCRC32(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"empty", []byte{}, 0x00000000},
		{"digits", []byte("123456789"), 0xCBF43926},
		{"chunk type IEND", []byte("IEND"), 0xAE426082},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, calculateCRC32(tc.in))
		})
	}
}

func TestCalculateCRC32Incremental(t *testing.T) {
	whole := calculateCRC32([]byte("IHDRsomefakepayload"))
	crc := crc32Update(0xFFFFFFFF, []byte("IHDR"))
	crc = crc32Update(crc, []byte("somefakepayload"))
	require.Equal(t, whole, crc^0xFFFFFFFF)
}
