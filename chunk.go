package gopng

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"unicode"

	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// pngSignature is the fixed 8-byte magic every PNG stream begins with.
var pngSignature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// rawChunk is one length-prefixed, CRC-suffixed chunk as it appears on the
// wire, before type-specific interpretation.
type rawChunk struct {
	typ  [4]byte
	data []byte
}

func (c rawChunk) name() string { return string(c.typ[:]) }

// ancillary reports whether bit 5 of the first type byte is set: lowercase
// first letter means the chunk may be safely ignored if unrecognized.
func (c rawChunk) ancillary() bool {
	return unicode.IsLower(rune(c.typ[0]))
}

// readChunks validates the signature and reads every chunk up to and
// including IEND, verifying each chunk's CRC-32 against its declared type
// and data. maxChunkData bounds a single chunk's declared length; 0 means
// unbounded.
func readChunks(buf []byte, maxChunkData uint32) ([]rawChunk, error) {
	if len(buf) < len(pngSignature) || !bytes.Equal(buf[:len(pngSignature)], pngSignature[:]) {
		return nil, errors.Wrap(gopngerr.BadSignature, "not a PNG file")
	}
	pos := len(pngSignature)

	var chunks []rawChunk
	sawIEND := false
	for !sawIEND {
		if len(buf)-pos < 8 {
			return nil, errors.Wrap(gopngerr.TruncatedInput, "chunk header")
		}
		length := binary.BigEndian.Uint32(buf[pos : pos+4])
		if maxChunkData != 0 && length > maxChunkData {
			return nil, errors.Wrapf(gopngerr.BadChunkLength, "chunk declares length %d, exceeding the %d cap", length, maxChunkData)
		}
		pos += 4

		var typ [4]byte
		copy(typ[:], buf[pos:pos+4])
		pos += 4

		if uint32(len(buf)-pos) < length+4 {
			return nil, errors.Wrap(gopngerr.TruncatedInput, "chunk data or crc")
		}
		data := buf[pos : pos+int(length)]
		pos += int(length)

		wantCRC := binary.BigEndian.Uint32(buf[pos : pos+4])
		pos += 4

		gotCRC := calculateCRC32(append(append([]byte{}, typ[:]...), data...))
		if gotCRC != wantCRC {
			return nil, errors.Wrapf(gopngerr.BadChunkCRC, "chunk %q: crc mismatch (want %08x, got %08x)", typ[:], wantCRC, gotCRC)
		}

		chunks = append(chunks, rawChunk{typ: typ, data: data})
		if string(typ[:]) == "IEND" {
			sawIEND = true
		}
	}
	return chunks, nil
}

// knownAncillary lists the ancillary chunk types this decoder interprets;
// anything else ancillary is logged and skipped.
var knownAncillary = map[string]bool{
	"gAMA": true, "tIME": true, "tEXt": true, "zTXt": true, "iTXt": true,
}

// dispatchChunks walks chunks in order, accumulating IDAT payloads and
// populating img's metadata fields. The first chunk must be IHDR; an
// unrecognized critical chunk (uppercase first letter) is fatal, an
// unrecognized ancillary one is a logged skip.
func dispatchChunks(chunks []rawChunk, logger *slog.Logger, strictAncillary bool) (*Image, []byte, error) {
	if len(chunks) == 0 || chunks[0].name() != "IHDR" {
		return nil, nil, errors.Wrap(gopngerr.UnsupportedParameter, "first chunk must be IHDR")
	}

	img := &Image{}
	var idat bytes.Buffer
	seenIHDR, seenIDAT, seenIEND := false, false, false

	for _, c := range chunks {
		name := c.name()
		switch name {
		case "IHDR":
			if seenIHDR {
				return nil, nil, errors.Wrap(gopngerr.UnsupportedParameter, "duplicate IHDR chunk")
			}
			h, err := parseIHDR(c.data)
			if err != nil {
				return nil, nil, err
			}
			img.IHDR = h
			seenIHDR = true
		case "PLTE":
			palette, err := parsePLTE(c.data)
			if err != nil {
				return nil, nil, err
			}
			img.Palette = palette
		case "IDAT":
			if !seenIHDR {
				return nil, nil, errors.Wrap(gopngerr.UnsupportedParameter, "IDAT before IHDR")
			}
			idat.Write(c.data)
			seenIDAT = true
		case "IEND":
			seenIEND = true
		case "gAMA":
			g, err := parseGAMA(c.data)
			if err != nil {
				return nil, nil, err
			}
			img.Gamma = &g
		case "tIME":
			t, err := parseTIME(c.data)
			if err != nil {
				return nil, nil, err
			}
			img.Time = &t
		case "tEXt":
			t, parseErr := parseTEXt(c.data)
			if err := handleTextErr(logger, strictAncillary, name, parseErr); err != nil {
				return nil, nil, err
			} else if parseErr == nil {
				img.Text = append(img.Text, t)
			}
		case "zTXt":
			t, parseErr := parseZTXt(c.data, inflateZlib)
			if err := handleTextErr(logger, strictAncillary, name, parseErr); err != nil {
				return nil, nil, err
			} else if parseErr == nil {
				img.Text = append(img.Text, t)
			}
		case "iTXt":
			t, parseErr := parseiTXt(c.data, inflateZlib)
			if err := handleTextErr(logger, strictAncillary, name, parseErr); err != nil {
				return nil, nil, err
			} else if parseErr == nil {
				img.Text = append(img.Text, t)
			}
		default:
			if !c.ancillary() {
				return nil, nil, errors.Wrapf(gopngerr.UnknownCriticalChunk, "unrecognized critical chunk %q", name)
			}
			if !knownAncillary[name] {
				logger.Info("skipping unrecognized ancillary chunk", "chunk", name, "length", len(c.data))
			}
		}
	}

	if !seenIDAT {
		return nil, nil, errors.Wrap(gopngerr.UnsupportedParameter, "no IDAT chunk present")
	}
	if !seenIEND {
		return nil, nil, errors.Wrap(gopngerr.TruncatedInput, "no IEND chunk present")
	}
	return img, idat.Bytes(), nil
}

// handleTextErr folds a text-chunk parse error into either a hard failure
// (strict mode) or a logged skip: malformed ancillary data should not by
// itself fail the decode.
func handleTextErr(logger *slog.Logger, strict bool, name string, err error) error {
	if err == nil {
		return nil
	}
	if strict {
		return err
	}
	logger.Warn("skipping malformed text chunk", "chunk", name, "error", err)
	return nil
}
