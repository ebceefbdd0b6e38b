package gopng

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// ihdrLength is the fixed length of an IHDR chunk's data.
const ihdrLength = 13

// IHDR is the image header: width, height, bit depth, color type, and the
// compression/filter/interlace methods.
type IHDR struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         ColorType
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

func parseIHDR(data []byte) (IHDR, error) {
	if len(data) != ihdrLength {
		return IHDR{}, errors.Wrapf(gopngerr.BadChunkLength, "IHDR: length must be %d, got %d", ihdrLength, len(data))
	}
	h := IHDR{
		Width:             binary.BigEndian.Uint32(data[0:4]),
		Height:            binary.BigEndian.Uint32(data[4:8]),
		BitDepth:          data[8],
		ColorType:         ColorType(data[9]),
		CompressionMethod: data[10],
		FilterMethod:      data[11],
		InterlaceMethod:   data[12],
	}
	if h.Width == 0 || h.Height == 0 {
		return IHDR{}, errors.Wrap(gopngerr.UnsupportedParameter, "IHDR: width and height must be nonzero")
	}
	if h.CompressionMethod != 0 {
		return IHDR{}, errors.Wrapf(gopngerr.UnsupportedParameter, "IHDR: compression method %d is not supported", h.CompressionMethod)
	}
	if h.FilterMethod != 0 {
		return IHDR{}, errors.Wrapf(gopngerr.UnsupportedParameter, "IHDR: filter method %d is not supported", h.FilterMethod)
	}
	if h.InterlaceMethod != 0 {
		// Adam-7 (interlace_method=1) interleaving is not implemented.
		return IHDR{}, errors.Wrapf(gopngerr.UnsupportedParameter, "IHDR: interlace method %d (Adam-7) is not implemented", h.InterlaceMethod)
	}
	if !validColorTypeBitDepth(h.ColorType, h.BitDepth) {
		return IHDR{}, errors.Wrapf(gopngerr.UnsupportedParameter, "IHDR: color type %d with bit depth %d is not a valid combination", h.ColorType, h.BitDepth)
	}
	return h, nil
}

// parsePLTE parses a palette chunk into RGB triples. A nil
// palette distinguishes "no PLTE chunk seen" from "an empty PLTE chunk",
// though the latter is itself a BadChunkLength below.
func parsePLTE(data []byte) ([]PaletteEntry, error) {
	if len(data) == 0 || len(data)%3 != 0 || len(data) > 256*3 {
		return nil, errors.Wrapf(gopngerr.BadChunkLength, "PLTE: length %d must be a nonzero multiple of 3, at most 768", len(data))
	}
	entries := make([]PaletteEntry, len(data)/3)
	for i := range entries {
		entries[i] = PaletteEntry{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}
	return entries, nil
}

const gamaLength = 4

func parseGAMA(data []byte) (Gamma, error) {
	if len(data) != gamaLength {
		return 0, errors.Wrapf(gopngerr.BadChunkLength, "gAMA: length must be %d, got %d", gamaLength, len(data))
	}
	raw := binary.BigEndian.Uint32(data)
	return Gamma(float64(raw) / 100000), nil
}

const timeLength = 7

// Time is the tIME chunk's last-modification timestamp.
type Time struct {
	Year                 uint16
	Month, Day           uint8
	Hour, Minute, Second uint8
}

func parseTIME(data []byte) (Time, error) {
	if len(data) != timeLength {
		return Time{}, errors.Wrapf(gopngerr.BadChunkLength, "tIME: length must be %d, got %d", timeLength, len(data))
	}
	return Time{
		Year:   binary.BigEndian.Uint16(data[0:2]),
		Month:  data[2],
		Day:    data[3],
		Hour:   data[4],
		Minute: data[5],
		Second: data[6],
	}, nil
}
