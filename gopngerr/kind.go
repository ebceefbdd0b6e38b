// Package gopngerr defines the sentinel error kinds the core decoder
// distinguishes, so callers can classify a failure with errors.Is without
// parsing message text.
package gopngerr

import "github.com/pkg/errors"

// Kind is a sentinel error identifying one of the fatal conditions the
// decoder can report. Decode-path code wraps a Kind with errors.Wrap or
// errors.Wrapf from github.com/pkg/errors to add context such as the chunk
// type; those wrappers unwrap, so errors.Is(err, kind) keeps working.
type Kind = error

var (
	// BadSignature: the 8-byte PNG magic did not match.
	BadSignature Kind = errors.New("gopng: bad signature")

	// TruncatedInput: a read ran past the end of the supplied buffer.
	TruncatedInput Kind = errors.New("gopng: truncated input")

	// BadChunkCRC: CRC-32 over (type||data) did not match the stored CRC.
	BadChunkCRC Kind = errors.New("gopng: bad chunk crc")

	// BadChunkLength: a chunk's length violated a type-specific constraint
	// (IHDR=13, tIME=7, gAMA=4, PLTE%3=0, etc).
	BadChunkLength Kind = errors.New("gopng: bad chunk length")

	// UnknownCriticalChunk: an unrecognized chunk whose type has an
	// uppercase first letter (the critical bit per the PNG spec).
	UnknownCriticalChunk Kind = errors.New("gopng: unknown critical chunk")

	// UnsupportedParameter: a disallowed or unimplemented (color_type,
	// bit_depth) combination, compression_method != 0, or interlace_method
	// == 1 (Adam-7, unimplemented).
	UnsupportedParameter Kind = errors.New("gopng: unsupported parameter")

	// BadZlibHeader: the zlib CMF/FLG header failed validation, or a preset
	// dictionary was requested.
	BadZlibHeader Kind = errors.New("gopng: bad zlib header")

	// BadDeflateStream: a reserved BTYPE, invalid symbol, NLEN mismatch, or
	// a Huffman code that grew past the tree's height.
	BadDeflateStream Kind = errors.New("gopng: bad deflate stream")

	// BadChecksum: the zlib Adler-32 trailer did not match.
	BadChecksum Kind = errors.New("gopng: bad checksum")

	// BadFilter: a scanline's filter-type byte was not in {0,1,2,3,4}.
	BadFilter Kind = errors.New("gopng: bad filter")
)
