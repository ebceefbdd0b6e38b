package gopng

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// TextChunk is a decoded tEXt/zTXt/iTXt record. Keyword and Text are
// always present; the iTXt-only fields are zero for tEXt/zTXt.
type TextChunk struct {
	Kind                           string // "tEXt", "zTXt", or "iTXt"
	Keyword                        string
	Text                           string
	Compressed                     bool
	LanguageTag, TranslatedKeyword string // iTXt only
}

// parseTEXt splits "keyword\0text"; text is Latin-1.
func parseTEXt(data []byte) (TextChunk, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return TextChunk{}, errors.Wrap(gopngerr.BadChunkLength, "tEXt: missing null separator")
	}
	return TextChunk{
		Kind:    "tEXt",
		Keyword: string(data[:idx]),
		Text:    latin1ToUTF8(data[idx+1:]),
	}, nil
}

// parseZTXt splits "keyword\0", a one-byte compression method, and the
// compressed text that follows it directly, then inflates that text via the
// zlib wrapper. The compression method must be 0.
func parseZTXt(data []byte, inflateZlibFn func([]byte) ([]byte, error)) (TextChunk, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return TextChunk{}, errors.Wrap(gopngerr.BadChunkLength, "zTXt: missing null separator")
	}
	rest := data[idx+1:]
	if len(rest) < 1 {
		return TextChunk{}, errors.Wrap(gopngerr.BadChunkLength, "zTXt: missing compression method")
	}
	method, compressed := rest[0], rest[1:]
	if method != 0 {
		return TextChunk{}, errors.Wrapf(gopngerr.UnsupportedParameter, "zTXt: compression method %d is not supported", method)
	}
	text, err := inflateZlibFn(compressed)
	if err != nil {
		return TextChunk{}, errors.Wrap(err, "zTXt: decompressing text")
	}
	return TextChunk{
		Kind:    "zTXt",
		Keyword: string(data[:idx]),
		Text:    latin1ToUTF8(text),
	}, nil
}

// parseiTXt parses iTXt's extended textual metadata with optional inner
// compression: keyword\0 compression_flag\0 compression_method\0
// language_tag\0 translated_keyword\0 text, per the PNG extension grammar.
func parseiTXt(data []byte, inflateZlibFn func([]byte) ([]byte, error)) (TextChunk, error) {
	fields, rest, err := splitNullFields(data, 4)
	if err != nil {
		return TextChunk{}, errors.Wrap(err, "iTXt")
	}
	keyword := fields[0]
	compressionFlag := fields[1]
	compressionMethod := fields[2]
	languageTag := fields[3]

	idx := bytes.IndexByte(rest, 0)
	if idx < 0 {
		return TextChunk{}, errors.Wrap(gopngerr.BadChunkLength, "iTXt: missing translated-keyword separator")
	}
	translatedKeyword := rest[:idx]
	textBytes := rest[idx+1:]

	var text string
	compressed := len(compressionFlag) == 1 && compressionFlag[0] == 1
	if compressed {
		if len(compressionMethod) != 1 || compressionMethod[0] != 0 {
			return TextChunk{}, errors.Wrap(gopngerr.UnsupportedParameter, "iTXt: unsupported compression method")
		}
		decompressed, err := inflateZlibFn(textBytes)
		if err != nil {
			return TextChunk{}, errors.Wrap(err, "iTXt: decompressing text")
		}
		text = string(decompressed)
	} else {
		text = string(textBytes)
	}

	return TextChunk{
		Kind:              "iTXt",
		Keyword:           string(keyword),
		Text:              text,
		Compressed:        compressed,
		LanguageTag:       string(languageTag),
		TranslatedKeyword: string(translatedKeyword),
	}, nil
}

// splitNullFields splits data into n null-terminated fields, returning the
// fields and whatever bytes remain after the nth separator.
func splitNullFields(data []byte, n int) ([][]byte, []byte, error) {
	fields := make([][]byte, 0, n)
	rest := data
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(rest, 0)
		if idx < 0 {
			return nil, nil, errors.Wrap(gopngerr.BadChunkLength, "missing null separator")
		}
		fields = append(fields, rest[:idx])
		rest = rest[idx+1:]
	}
	return fields, rest, nil
}

// latin1ToUTF8 widens each Latin-1 byte to its matching Unicode code point,
// the textually correct interpretation of PNG's tEXt/zTXt encoding.
func latin1ToUTF8(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
