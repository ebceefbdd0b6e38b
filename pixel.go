package gopng

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// ColorType is the PNG color_type field.
type ColorType uint8

const (
	ColorTypeGrayscale      ColorType = 0
	ColorTypeRGB            ColorType = 2
	ColorTypePalette        ColorType = 3
	ColorTypeGrayscaleAlpha ColorType = 4
	ColorTypeRGBA           ColorType = 6
)

func (c ColorType) channels() int {
	switch c {
	case ColorTypeGrayscale, ColorTypePalette:
		return 1
	case ColorTypeRGB:
		return 3
	case ColorTypeGrayscaleAlpha:
		return 2
	case ColorTypeRGBA:
		return 4
	default:
		return 0
	}
}

// validColorTypeBitDepth reports whether (colorType, bitDepth) is one of
// the PNG-permitted combinations:
//
//	0 grayscale:       1,2,4,8,16
//	2 RGB:             8,16
//	3 palette:         1,2,4,8
//	4 grayscale+alpha: 8,16
//	6 RGBA:            8,16
func validColorTypeBitDepth(colorType ColorType, bitDepth uint8) bool {
	switch colorType {
	case ColorTypeGrayscale:
		switch bitDepth {
		case 1, 2, 4, 8, 16:
			return true
		}
	case ColorTypeRGB, ColorTypeGrayscaleAlpha, ColorTypeRGBA:
		switch bitDepth {
		case 8, 16:
			return true
		}
	case ColorTypePalette:
		switch bitDepth {
		case 1, 2, 4, 8:
			return true
		}
	}
	return false
}

// PaletteEntry is one RGB triple from a PLTE chunk.
type PaletteEntry struct {
	R, G, B uint8
}

// PixelArray is the materialized image, shaped (H,W), (H,W,3) or (H,W,4),
// with 8- or 16-bit unsigned samples.
type PixelArray struct {
	Width, Height int
	Channels      int
	Depth16       bool     // true: samples are uint16; false: samples are uint8
	Samples8      []uint8  // len == Width*Height*Channels when !Depth16
	Samples16     []uint16 // len == Width*Height*Channels when Depth16
}

// At returns the channel samples for pixel (x,y), widened to uint32 so
// 8- and 16-bit images share one accessor.
func (p *PixelArray) At(x, y int) []uint32 {
	out := make([]uint32, p.Channels)
	base := (y*p.Width + x) * p.Channels
	if p.Depth16 {
		for c := 0; c < p.Channels; c++ {
			out[c] = uint32(p.Samples16[base+c])
		}
	} else {
		for c := 0; c < p.Channels; c++ {
			out[c] = uint32(p.Samples8[base+c])
		}
	}
	return out
}

// grayscaleScale8 maps a raw sub-8-bit grayscale sample to the full 8-bit
// range: x * 0xFF/(2^d-1), equivalently x*0xFF, x*0x55, x*0x11 for d=1,2,4.
func grayscaleScale8(bitDepth uint8) uint8 {
	switch bitDepth {
	case 1:
		return 0xFF
	case 2:
		return 0x55
	case 4:
		return 0x11
	default:
		return 1
	}
}

// pixelPlan captures everything materializeRows needs, computed once and
// shared across every row band (sequential or parallel).
type pixelPlan struct {
	colorType   ColorType
	bitDepth    uint8
	srcChannels int
	dstChannels int
	remap       []int // nil when srcChannels == dstChannels
	scanlineLen int
	palette     []PaletteEntry
}

func newPixelPlan(width int, colorType ColorType, bitDepth uint8, palette []PaletteEntry) (*pixelPlan, error) {
	if !validColorTypeBitDepth(colorType, bitDepth) {
		return nil, errors.Wrapf(gopngerr.UnsupportedParameter, "pixel: color type %d with bit depth %d is not a valid combination", colorType, bitDepth)
	}
	if colorType == ColorTypePalette && len(palette) == 0 {
		return nil, errors.Wrap(gopngerr.UnsupportedParameter, "pixel: palette color type requires a PLTE chunk")
	}

	srcChannels := colorType.channels()
	plan := &pixelPlan{
		colorType:   colorType,
		bitDepth:    bitDepth,
		srcChannels: srcChannels,
		dstChannels: srcChannels,
		scanlineLen: scanlineByteLength(width, srcChannels, int(bitDepth)),
		palette:     palette,
	}
	switch colorType {
	case ColorTypePalette:
		plan.dstChannels = 3
	case ColorTypeGrayscaleAlpha:
		plan.dstChannels = 4
		plan.remap = []int{0, 0, 0, 1}
	}
	return plan, nil
}

// materializePixels interprets unfiltered scanline bytes as pixels per
// (color_type, bit_depth).
func materializePixels(data []byte, width, height int, colorType ColorType, bitDepth uint8, palette []PaletteEntry) (*PixelArray, error) {
	plan, err := newPixelPlan(width, colorType, bitDepth, palette)
	if err != nil {
		return nil, err
	}
	out := newPixelArray(width, height, plan)
	if err := materializeRows(data, out, plan, width, 0, height); err != nil {
		return nil, err
	}
	return out, nil
}

// materializePixelsParallel is the embarrassingly-parallel variant: every
// row is independent of every other, so rows are split into bands and
// handed to a pool of goroutines, each writing only its own disjoint slice
// of the shared output array.
func materializePixelsParallel(data []byte, width, height int, colorType ColorType, bitDepth uint8, palette []PaletteEntry, workers int) (*PixelArray, error) {
	plan, err := newPixelPlan(width, colorType, bitDepth, palette)
	if err != nil {
		return nil, err
	}
	out := newPixelArray(width, height, plan)

	if workers < 1 {
		workers = 1
	}
	bandSize := (height + workers - 1) / workers
	if bandSize < 1 {
		bandSize = 1
	}

	var wg sync.WaitGroup
	errs := make([]error, 0, workers)
	var errsMu sync.Mutex
	for yStart := 0; yStart < height; yStart += bandSize {
		yEnd := yStart + bandSize
		if yEnd > height {
			yEnd = height
		}
		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			if err := materializeRows(data, out, plan, width, yStart, yEnd); err != nil {
				errsMu.Lock()
				errs = append(errs, err)
				errsMu.Unlock()
			}
		}(yStart, yEnd)
	}
	wg.Wait()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return out, nil
}

func newPixelArray(width, height int, plan *pixelPlan) *PixelArray {
	out := &PixelArray{Width: width, Height: height, Channels: plan.dstChannels, Depth16: plan.bitDepth == 16}
	if out.Depth16 {
		out.Samples16 = make([]uint16, width*height*plan.dstChannels)
	} else {
		out.Samples8 = make([]uint8, width*height*plan.dstChannels)
	}
	return out
}

// materializeRows fills out's rows [yStart,yEnd) from data per plan.
func materializeRows(data []byte, out *PixelArray, plan *pixelPlan, width, yStart, yEnd int) error {
	switch plan.colorType {
	case ColorTypeGrayscale:
		return materializeGrayscaleRows(data, out, plan, width, yStart, yEnd)
	case ColorTypePalette:
		return materializePaletteRows(data, out, plan, width, yStart, yEnd)
	default:
		return materializeDirectRows(data, out, plan, width, yStart, yEnd)
	}
}

func materializeGrayscaleRows(data []byte, out *PixelArray, plan *pixelPlan, width, yStart, yEnd int) error {
	bitDepth := plan.bitDepth
	for y := yStart; y < yEnd; y++ {
		row := data[y*plan.scanlineLen : (y+1)*plan.scanlineLen]
		for x := 0; x < width; x++ {
			idx := y*width + x
			switch bitDepth {
			case 1, 2, 4:
				samplesPerByte := 8 / int(bitDepth)
				b := row[x/samplesPerByte]
				shift := uint(8 - int(bitDepth)*(x%samplesPerByte+1))
				mask := byte(1<<bitDepth) - 1
				raw := (b >> shift) & mask
				out.Samples8[idx] = raw * grayscaleScale8(bitDepth)
			case 8:
				out.Samples8[idx] = row[x]
			case 16:
				out.Samples16[idx] = uint16(row[x*2])<<8 | uint16(row[x*2+1])
			}
		}
	}
	return nil
}

func materializePaletteRows(data []byte, out *PixelArray, plan *pixelPlan, width, yStart, yEnd int) error {
	bitDepth := plan.bitDepth
	samplesPerByte := 8 / int(bitDepth)
	for y := yStart; y < yEnd; y++ {
		row := data[y*plan.scanlineLen : (y+1)*plan.scanlineLen]
		for x := 0; x < width; x++ {
			var index int
			if bitDepth == 8 {
				index = int(row[x])
			} else {
				b := row[x/samplesPerByte]
				shift := uint(8 - int(bitDepth)*(x%samplesPerByte+1))
				mask := byte(1<<bitDepth) - 1
				index = int((b >> shift) & mask)
			}
			if index >= len(plan.palette) {
				return errors.Wrapf(gopngerr.UnsupportedParameter, "pixel: palette index %d out of range (%d entries)", index, len(plan.palette))
			}
			entry := plan.palette[index]
			base := (y*width + x) * 3
			out.Samples8[base] = entry.R
			out.Samples8[base+1] = entry.G
			out.Samples8[base+2] = entry.B
		}
	}
	return nil
}

// materializeDirectRows handles color types whose samples map straight
// through (RGB, RGBA) or via a fixed channel remap (grayscale+alpha's 2
// source channels [gray, alpha] expand to 4 output channels
// [R=G=B=gray, alpha] via plan.remap={0,0,0,1}).
func materializeDirectRows(data []byte, out *PixelArray, plan *pixelPlan, width, yStart, yEnd int) error {
	srcChannels, dstChannels := plan.srcChannels, plan.dstChannels
	bitDepth := plan.bitDepth
	for y := yStart; y < yEnd; y++ {
		row := data[y*plan.scanlineLen : (y+1)*plan.scanlineLen]
		for x := 0; x < width; x++ {
			srcBase := x * srcChannels
			dstBase := (y*width + x) * dstChannels
			if bitDepth == 16 {
				srcBase *= 2
				for d := 0; d < dstChannels; d++ {
					s := d
					if plan.remap != nil {
						s = plan.remap[d]
					}
					out.Samples16[dstBase+d] = uint16(row[srcBase+s*2])<<8 | uint16(row[srcBase+s*2+1])
				}
			} else {
				for d := 0; d < dstChannels; d++ {
					s := d
					if plan.remap != nil {
						s = plan.remap[d]
					}
					out.Samples8[dstBase+d] = row[srcBase+s]
				}
			}
		}
	}
	return nil
}
