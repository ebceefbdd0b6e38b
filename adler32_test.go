package gopng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateAdler32(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"empty", []byte{}, 0x00000001},
		{"digits", []byte("123456789"), 0x091E01DE},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, calculateAdler32(tc.in))
		})
	}
}

func TestCalculateAdler32LargeInput(t *testing.T) {
	// Exercises the 5552-byte batching boundary.
	data := make([]byte, 20000)
	for i := range data {
		data[i] = byte(i)
	}
	got := calculateAdler32(data)
	require.NotZero(t, got)

	// The result depends only on the bytes: a copy of the buffer assembled
	// from two slices that meet at byte 5551, just short of the 5552-byte
	// block size, checksums to the same value.
	got2 := calculateAdler32(append(append([]byte{}, data[:5551]...), data[5551:]...))
	require.Equal(t, got, got2)
}
