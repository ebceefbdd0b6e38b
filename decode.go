// Package gopng decodes PNG images: chunk framing and CRC-32 verification,
// zlib/DEFLATE decompression, scanline filter reversal, pixel
// materialization, and optional gamma correction.
//
// Decode is the sole entry point; everything else in the package is an
// internal collaborator it wires together.
package gopng

import (
	"io"

	"github.com/pkg/errors"
)

// Image is a fully decoded PNG: its header metadata, any palette and
// ancillary chunks present, and the materialized pixel data.
type Image struct {
	IHDR    IHDR
	Palette []PaletteEntry
	Gamma   *Gamma
	Time    *Time
	Text    []TextChunk
	Pixels  *PixelArray
}

// Decode reads a complete PNG stream from r and returns its decoded form.
// Options configure logging, ancillary-chunk strictness, a chunk-length
// cap, and row-parallel pixel materialization; none of them alter what a
// conforming input decodes to.
func Decode(r io.Reader, opts ...Option) (*Image, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading PNG stream")
	}

	chunks, err := readChunks(buf, cfg.maxChunkDataSize)
	if err != nil {
		return nil, err
	}
	cfg.logger.Info("read chunks", "count", len(chunks))

	img, idat, err := dispatchChunks(chunks, cfg.logger, cfg.strictAncillary)
	if err != nil {
		return nil, err
	}

	width, height := int(img.IHDR.Width), int(img.IHDR.Height)
	channels := img.IHDR.ColorType.channels()
	bitDepth := int(img.IHDR.BitDepth)

	decompressed, err := inflateZlib(idat)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing IDAT")
	}
	cfg.logger.Info("decompressed image data", "bytes", len(decompressed))

	var recovered []byte
	if cfg.parallelRows > 1 {
		recovered, err = reverseFiltersParallel(decompressed, width, height, channels, bitDepth, rowBandSize(height, cfg.parallelRows), nil)
	} else {
		recovered, err = reverseFilters(decompressed, width, height, channels, bitDepth)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reversing scanline filters")
	}

	var pixels *PixelArray
	if cfg.parallelRows > 1 {
		pixels, err = materializePixelsParallel(recovered, width, height, img.IHDR.ColorType, img.IHDR.BitDepth, img.Palette, cfg.parallelRows)
	} else {
		pixels, err = materializePixels(recovered, width, height, img.IHDR.ColorType, img.IHDR.BitDepth, img.Palette)
	}
	if err != nil {
		return nil, errors.Wrap(err, "materializing pixels")
	}
	img.Pixels = pixels

	if img.Gamma != nil {
		if err := applyGamma(pixels, img.IHDR.ColorType, *img.Gamma); err != nil {
			return nil, errors.Wrap(err, "applying gamma correction")
		}
		cfg.logger.Info("applied gamma correction", "gamma", *img.Gamma)
	}

	return img, nil
}

// rowBandSize splits height evenly into workers bands, with a floor of one
// row, giving the number of scanlines reverseFiltersParallel groups per band.
func rowBandSize(height, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := (height + workers - 1) / workers
	if size < 1 {
		size = 1
	}
	return size
}
