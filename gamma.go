package gopng

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// Gamma is the decoded gAMA value: raw_u32 / 100000.
type Gamma float64

// noGammaCorrectionNeeded is the gamma value at which decoding is a no-op:
// a gAMA chunk already stating the standard display gamma needs no LUT pass.
const noGammaCorrectionNeeded = 0.45455

// buildGammaLUT builds a lookup table of 2^bitDepth entries where
// LUT[i] = round((i/max)^decodingExp * max), decodingExp = 1/(gamma*1.0*2.2),
// max = 2^bitDepth-1. Applicable only at bitDepth 8 or 16.
func buildGammaLUT(gamma Gamma, bitDepth uint8) ([]uint16, error) {
	if bitDepth != 8 && bitDepth != 16 {
		return nil, errors.Wrapf(gopngerr.UnsupportedParameter, "gamma: bit depth %d is not allowed for gamma correction", bitDepth)
	}
	size := 1 << bitDepth
	max := float64(size - 1)
	decodingExp := 1.0 / (float64(gamma) * 1.0 * 2.2)

	lut := make([]uint16, size)
	for i := 0; i < size; i++ {
		v := math.Round(math.Pow(float64(i)/max, decodingExp) * max)
		lut[i] = uint16(v)
	}
	return lut, nil
}

// applyGamma applies the LUT to every color channel of pixels; alpha is not
// corrected. Applicable to ColorTypeRGB, ColorTypePalette,
// ColorTypeRGBA at bit depth 8 or 16 (palette output is always 8-bit RGB,
// regardless of the palette-index bit depth); other combinations are
// fatal. ColorTypePalette is gamma-corrected on its expanded RGB8 output,
// after palette lookup has already produced RGB samples.
func applyGamma(pixels *PixelArray, colorType ColorType, gamma Gamma) error {
	if gamma == noGammaCorrectionNeeded {
		return nil
	}

	switch colorType {
	case ColorTypeRGB, ColorTypeRGBA:
		bitDepth := uint8(8)
		if pixels.Depth16 {
			bitDepth = 16
		}
		lut, err := buildGammaLUT(gamma, bitDepth)
		if err != nil {
			return err
		}
		applyGammaLUT(pixels, lut, 3)
		return nil
	case ColorTypePalette:
		lut, err := buildGammaLUT(gamma, 8)
		if err != nil {
			return err
		}
		applyGammaLUT(pixels, lut, 3)
		return nil
	default:
		return errors.Wrapf(gopngerr.UnsupportedParameter, "gamma: color type %d is not allowed for gamma correction", colorType)
	}
}

// applyGammaLUT maps the first colorChannels of every pixel through lut,
// leaving any remaining (alpha) channel untouched. Rows are independent, so
// the work is split across goroutines above a minimum row count.
func applyGammaLUT(pixels *PixelArray, lut []uint16, colorChannels int) {
	const minRowsPerWorker = 64
	workers := 1
	if pixels.Height > minRowsPerWorker {
		workers = (pixels.Height + minRowsPerWorker - 1) / minRowsPerWorker
	}
	if workers <= 1 {
		applyGammaLUTRows(pixels, lut, colorChannels, 0, pixels.Height)
		return
	}

	bandSize := (pixels.Height + workers - 1) / workers
	var wg sync.WaitGroup
	for yStart := 0; yStart < pixels.Height; yStart += bandSize {
		yEnd := yStart + bandSize
		if yEnd > pixels.Height {
			yEnd = pixels.Height
		}
		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			applyGammaLUTRows(pixels, lut, colorChannels, yStart, yEnd)
		}(yStart, yEnd)
	}
	wg.Wait()
}

func applyGammaLUTRows(pixels *PixelArray, lut []uint16, colorChannels, yStart, yEnd int) {
	channels := pixels.Channels
	for y := yStart; y < yEnd; y++ {
		for x := 0; x < pixels.Width; x++ {
			base := (y*pixels.Width + x) * channels
			for c := 0; c < colorChannels && c < channels; c++ {
				if pixels.Depth16 {
					pixels.Samples16[base+c] = lut[pixels.Samples16[base+c]]
				} else {
					pixels.Samples8[base+c] = uint8(lut[pixels.Samples8[base+c]])
				}
			}
		}
	}
}
