package gopng

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildChunk frames one chunk with a correct CRC-32 trailer, the same
// framing readChunks expects to find on the wire.
func buildChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(data)))
	buf.Write(lenBytes[:])
	buf.WriteString(typ)
	buf.Write(data)
	crc := calculateCRC32(append([]byte(typ), data...))
	var crcBytes [4]byte
	binary.BigEndian.PutUint32(crcBytes[:], crc)
	buf.Write(crcBytes[:])
	return buf.Bytes()
}

func buildPNGStream(chunks ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature[:])
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

func ihdrData(width, height uint32, bitDepth uint8, colorType ColorType) []byte {
	var data [13]byte
	binary.BigEndian.PutUint32(data[0:4], width)
	binary.BigEndian.PutUint32(data[4:8], height)
	data[8] = bitDepth
	data[9] = byte(colorType)
	return data[:]
}

func TestReadChunksRejectsBadSignature(t *testing.T) {
	_, err := readChunks([]byte("not a png"), 0)
	require.Error(t, err)
}

func TestReadChunksRejectsTruncatedHeader(t *testing.T) {
	_, err := readChunks(append(pngSignature[:], 0x00, 0x00), 0)
	require.Error(t, err)
}

func TestReadChunksRejectsBadCRC(t *testing.T) {
	chunk := buildChunk("IHDR", ihdrData(1, 1, 8, ColorTypeRGB))
	chunk[len(chunk)-1] ^= 0xFF // corrupt the trailing CRC byte
	stream := buildPNGStream(chunk)
	_, err := readChunks(stream, 0)
	require.Error(t, err)
}

func TestReadChunksRejectsOversizedChunk(t *testing.T) {
	chunk := buildChunk("IDAT", make([]byte, 100))
	stream := buildPNGStream(chunk)
	_, err := readChunks(stream, 10)
	require.Error(t, err)
}

func TestDispatchChunksRejectsNonIHDRFirst(t *testing.T) {
	chunks := []rawChunk{{typ: [4]byte{'I', 'D', 'A', 'T'}}}
	_, _, err := dispatchChunks(chunks, slog.Default(), false)
	require.Error(t, err)
}

func TestDispatchChunksRejectsUnknownCriticalChunk(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	chunks := []rawChunk{
		{typ: [4]byte{'I', 'H', 'D', 'R'}, data: ihdrData(1, 1, 8, ColorTypeRGB)},
		{typ: [4]byte{'F', 'O', 'O', 'X'}, data: nil},
	}
	_, _, err := dispatchChunks(chunks, logger, false)
	require.Error(t, err)
}

func TestDispatchChunksSkipsUnknownAncillaryChunk(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	chunks := []rawChunk{
		{typ: [4]byte{'I', 'H', 'D', 'R'}, data: ihdrData(1, 1, 8, ColorTypeRGB)},
		{typ: [4]byte{'f', 'o', 'o', 'x'}, data: []byte("whatever")},
		{typ: [4]byte{'I', 'D', 'A', 'T'}, data: []byte{0x01}},
		{typ: [4]byte{'I', 'E', 'N', 'D'}},
	}
	img, idat, err := dispatchChunks(chunks, logger, false)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, idat)
	require.Equal(t, uint32(1), img.IHDR.Width)
}

func TestDispatchChunksAccumulatesMultipleIDAT(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	chunks := []rawChunk{
		{typ: [4]byte{'I', 'H', 'D', 'R'}, data: ihdrData(1, 1, 8, ColorTypeRGB)},
		{typ: [4]byte{'I', 'D', 'A', 'T'}, data: []byte{0x01, 0x02}},
		{typ: [4]byte{'I', 'D', 'A', 'T'}, data: []byte{0x03, 0x04}},
		{typ: [4]byte{'I', 'E', 'N', 'D'}},
	}
	_, idat, err := dispatchChunks(chunks, logger, false)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, idat)
}

func TestDispatchChunksRequiresIDATAndIEND(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	chunks := []rawChunk{
		{typ: [4]byte{'I', 'H', 'D', 'R'}, data: ihdrData(1, 1, 8, ColorTypeRGB)},
	}
	_, _, err := dispatchChunks(chunks, logger, false)
	require.Error(t, err)
}
