package gopng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaterializePixelsRGB8x1x1(t *testing.T) {
	// A single red pixel, color type 2 (RGB), bit depth 8.
	data := []byte{255, 0, 0}
	pixels, err := materializePixels(data, 1, 1, ColorTypeRGB, 8, nil)
	require.NoError(t, err)
	require.Equal(t, 1, pixels.Width)
	require.Equal(t, 1, pixels.Height)
	require.Equal(t, 3, pixels.Channels)
	require.False(t, pixels.Depth16)
	require.Equal(t, []uint32{255, 0, 0}, pixels.At(0, 0))
}

func TestMaterializePixelsGrayscaleAlphaExpandsToRGBA(t *testing.T) {
	// 2x1 grayscale+alpha, bit depth 8: gray=100,alpha=200 then gray=50,alpha=10.
	data := []byte{100, 200, 50, 10}
	pixels, err := materializePixels(data, 2, 1, ColorTypeGrayscaleAlpha, 8, nil)
	require.NoError(t, err)
	require.Equal(t, 4, pixels.Channels)
	require.Equal(t, []uint32{100, 100, 100, 200}, pixels.At(0, 0))
	require.Equal(t, []uint32{50, 50, 50, 10}, pixels.At(1, 0))
}

func TestMaterializePixelsGrayscaleSubByteScaling(t *testing.T) {
	// bit depth 1, width 8 packed into one byte: 0b10110010.
	data := []byte{0b10110010}
	pixels, err := materializePixels(data, 8, 1, ColorTypeGrayscale, 1, nil)
	require.NoError(t, err)
	want := []uint32{1, 0, 1, 1, 0, 0, 1, 0}
	for x, bit := range want {
		expected := uint32(0)
		if bit == 1 {
			expected = 0xFF
		}
		require.Equal(t, []uint32{expected}, pixels.At(x, 0), "x=%d", x)
	}
}

func TestMaterializePixelsPaletteLookup(t *testing.T) {
	palette := []PaletteEntry{
		{R: 10, G: 20, B: 30},
		{R: 40, G: 50, B: 60},
	}
	data := []byte{0b01000000} // indices 0,1 packed at bit depth 1, width 2 (MSB-first)
	pixels, err := materializePixels(data, 2, 1, ColorTypePalette, 1, palette)
	require.NoError(t, err)
	require.Equal(t, []uint32{10, 20, 30}, pixels.At(0, 0))
	require.Equal(t, []uint32{40, 50, 60}, pixels.At(1, 0))
}

func TestMaterializePixelsPaletteIndexOutOfRange(t *testing.T) {
	palette := []PaletteEntry{{R: 1, G: 2, B: 3}}
	data := []byte{1}
	_, err := materializePixels(data, 1, 1, ColorTypePalette, 8, palette)
	require.Error(t, err)
}

func TestMaterializePixelsRequiresPaletteForPaletteColorType(t *testing.T) {
	_, err := materializePixels([]byte{0}, 1, 1, ColorTypePalette, 8, nil)
	require.Error(t, err)
}

func TestMaterializePixels16Bit(t *testing.T) {
	// One RGB pixel, bit depth 16: R=0x0102, G=0x0304, B=0x0506.
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	pixels, err := materializePixels(data, 1, 1, ColorTypeRGB, 16, nil)
	require.NoError(t, err)
	require.True(t, pixels.Depth16)
	require.Equal(t, []uint32{0x0102, 0x0304, 0x0506}, pixels.At(0, 0))
}

func TestMaterializePixelsParallelMatchesSequential(t *testing.T) {
	width, height := 5, 17
	data := make([]byte, scanlineByteLength(width, 3, 8)*height)
	for i := range data {
		data[i] = byte(i * 13 % 256)
	}
	seq, err := materializePixels(data, width, height, ColorTypeRGB, 8, nil)
	require.NoError(t, err)
	par, err := materializePixelsParallel(data, width, height, ColorTypeRGB, 8, nil, 4)
	require.NoError(t, err)
	require.Equal(t, seq.Samples8, par.Samples8)
}

func TestValidColorTypeBitDepth(t *testing.T) {
	require.True(t, validColorTypeBitDepth(ColorTypeGrayscale, 1))
	require.True(t, validColorTypeBitDepth(ColorTypeGrayscale, 16))
	require.False(t, validColorTypeBitDepth(ColorTypeGrayscale, 3))
	require.True(t, validColorTypeBitDepth(ColorTypeRGB, 8))
	require.False(t, validColorTypeBitDepth(ColorTypeRGB, 4))
	require.True(t, validColorTypeBitDepth(ColorTypePalette, 4))
	require.False(t, validColorTypeBitDepth(ColorTypePalette, 16))
}
