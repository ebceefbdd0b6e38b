package gopng

import (
	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// codeLengthCodeOrder is the permuted order in which HCLEN code-length
// code lengths appear in a dynamic Huffman block (RFC 1951 §3.2.7).
var codeLengthCodeOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// baseExtra is one (base value, extra bit count) entry of the length table
// (symbols 257..285) or the distance table (codes 0..29), RFC 1951 §3.2.5.
type baseExtra struct {
	base  int
	extra int
}

var lengthTable = buildLengthTable()

func buildLengthTable() [286]baseExtra {
	var t [286]baseExtra
	base, extra := 3, 0
	// Symbols 257-264: base 3..10, 0 extra bits.
	for sym := 257; sym < 265; sym++ {
		t[sym] = baseExtra{base, 0}
		base++
	}
	// Symbols 265-284: base doubles its extra-bit span every 4 symbols,
	// extra bits increment every 4 symbols.
	extra = 1
	for sym := 265; sym < 285; sym += 4 {
		for i := 0; i < 4 && sym+i < 285; i++ {
			t[sym+i] = baseExtra{base, extra}
			base += 1 << uint(extra)
		}
		extra++
	}
	t[285] = baseExtra{258, 0}
	return t
}

var distanceTable = buildDistanceTable()

// buildDistanceTable maps distance code 0..29 to (base distance, extra
// bits), RFC 1951 §3.2.5: codes 0-3 stand alone with 0 extra bits each
// (base = d+1); from code 4 on, codes pair up and the extra-bit count rises
// by one every pair.
func buildDistanceTable() [30]baseExtra {
	var t [30]baseExtra
	for d := 0; d < 4; d++ {
		t[d] = baseExtra{d + 1, 0}
	}
	base, extra := 5, 1
	for d := 4; d < 30; d += 2 {
		t[d] = baseExtra{base, extra}
		t[d+1] = baseExtra{base + (1 << uint(extra)), extra}
		base += 1 << uint(extra+1)
		extra++
	}
	return t
}

// fixedLiteralLengthTree and fixedDistanceTree implement the predefined
// codes for BTYPE=01 (RFC 1951 §3.2.6): literal/length symbols 0-143 get
// 8-bit codes 0b00110000+v, 144-255 get 9-bit codes 0b110010000+(v-144),
// 256-279 get 7-bit codes 0b0000000+(v-256), 280-287 get 8-bit codes
// 0b11000000+(v-280); distances are a flat 5-bit code read MSB-first (so no
// tree is built for them — see decodeDistanceSymbol).
var fixedLiteralLengthTree = buildFixedLiteralLengthTree()

func buildFixedLiteralLengthTree() *huffmanTree {
	t := newHuffmanTree()
	must := func(err error) {
		if err != nil {
			panic(err) // construction of a fixed, compile-time-known table cannot fail
		}
	}
	for v := 0; v < 144; v++ {
		must(t.insert(v, uint32(0b00110000+v), 8))
	}
	for v := 144; v < 256; v++ {
		must(t.insert(v, uint32(0b110010000+v-144), 9))
	}
	for v := 256; v < 280; v++ {
		must(t.insert(v, uint32(0b0000000+v-256), 7))
	}
	for v := 280; v < 288; v++ {
		must(t.insert(v, uint32(0b11000000+v-280), 8))
	}
	return t
}

// inflate decompresses a DEFLATE bitstream (RFC 1951), block by block.
func inflate(s *bitstream) ([]byte, error) {
	var out []byte
	for {
		bfinalBit, err := s.readBit()
		if err != nil {
			return nil, err
		}
		btype, err := s.readBitsLSBFirst(2)
		if err != nil {
			return nil, err
		}

		switch btype {
		case 0b00:
			out, err = inflateStoredBlock(s, out)
		case 0b01:
			out, err = inflateCompressedBlock(s, out, fixedLiteralLengthTree, nil)
		case 0b10:
			var litTree, distTree *huffmanTree
			litTree, distTree, err = readDynamicHuffmanTrees(s)
			if err != nil {
				return nil, err
			}
			out, err = inflateCompressedBlock(s, out, litTree, distTree)
		case 0b11:
			return nil, errors.Wrap(gopngerr.BadDeflateStream, "deflate: btype 11 is reserved")
		}
		if err != nil {
			return nil, err
		}

		if bfinalBit != 0 {
			break
		}
	}
	return out, nil
}

func inflateStoredBlock(s *bitstream, out []byte) ([]byte, error) {
	lenBits, err := s.readRawBytes(2)
	if err != nil {
		return nil, err
	}
	nlenBits, err := s.readRawBytes(2)
	if err != nil {
		return nil, err
	}
	length := uint16(lenBits[0]) | uint16(lenBits[1])<<8
	nlen := uint16(nlenBits[0]) | uint16(nlenBits[1])<<8
	if nlen != ^length {
		return nil, errors.Wrapf(gopngerr.BadDeflateStream, "deflate: NLEN %#04x is not one's complement of LEN %#04x", nlen, length)
	}
	raw, err := s.readRawBytes(int(length))
	if err != nil {
		return nil, err
	}
	return append(out, raw...), nil
}

func readDynamicHuffmanTrees(s *bitstream) (lit, dist *huffmanTree, err error) {
	hlitBits, err := s.readBitsLSBFirst(5)
	if err != nil {
		return nil, nil, err
	}
	hdistBits, err := s.readBitsLSBFirst(5)
	if err != nil {
		return nil, nil, err
	}
	hclenBits, err := s.readBitsLSBFirst(4)
	if err != nil {
		return nil, nil, err
	}
	hlit := int(hlitBits) + 257
	hdist := int(hdistBits) + 1
	hclen := int(hclenBits) + 4

	codeLengthLengths := make(map[int]int, 19)
	for i := 0; i < hclen; i++ {
		l, err := s.readBitsLSBFirst(3)
		if err != nil {
			return nil, nil, err
		}
		codeLengthLengths[codeLengthCodeOrder[i]] = int(l)
	}
	codeLengthTree, err := canonicalHuffmanTree(codeLengthLengths)
	if err != nil {
		return nil, nil, err
	}

	combinedLengths, err := readCodeLengths(s, codeLengthTree, hlit+hdist)
	if err != nil {
		return nil, nil, err
	}
	litLengths := make(map[int]int, hlit)
	distLengths := make(map[int]int, hdist)
	for i := 0; i < hlit; i++ {
		litLengths[i] = combinedLengths[i]
	}
	for i := 0; i < hdist; i++ {
		distLengths[i] = combinedLengths[hlit+i]
	}

	lit, err = canonicalHuffmanTree(litLengths)
	if err != nil {
		return nil, nil, err
	}
	dist, err = canonicalHuffmanTree(distLengths)
	if err != nil {
		return nil, nil, err
	}
	return lit, dist, nil
}

// readCodeLengths decodes `count` literal/length+distance code lengths
// using the code-length code tree, honoring the 16/17/18 repeat codes
// (RFC 1951 §3.2.7).
func readCodeLengths(s *bitstream, codeLengthTree *huffmanTree, count int) ([]int, error) {
	lengths := make([]int, count)
	i := 0
	for i < count {
		symbol, err := codeLengthTree.decodeOne(s)
		if err != nil {
			return nil, err
		}
		switch symbol {
		case 16:
			if i == 0 {
				return nil, errors.Wrap(gopngerr.BadDeflateStream, "deflate: repeat code 16 with no previous length")
			}
			extra, err := s.readBitsLSBFirst(2)
			if err != nil {
				return nil, err
			}
			repeat := 3 + int(extra)
			prev := lengths[i-1]
			for r := 0; r < repeat && i < count; r++ {
				lengths[i] = prev
				i++
			}
		case 17:
			extra, err := s.readBitsLSBFirst(3)
			if err != nil {
				return nil, err
			}
			repeat := 3 + int(extra)
			for r := 0; r < repeat && i < count; r++ {
				lengths[i] = 0
				i++
			}
		case 18:
			extra, err := s.readBitsLSBFirst(7)
			if err != nil {
				return nil, err
			}
			repeat := 11 + int(extra)
			for r := 0; r < repeat && i < count; r++ {
				lengths[i] = 0
				i++
			}
		default:
			lengths[i] = symbol
			i++
		}
	}
	return lengths, nil
}

// inflateCompressedBlock decodes the symbol stream of a fixed- or
// dynamic-Huffman block: literals emitted directly, 256 ends the block,
// 257..285 are LZ77 back-references.
func inflateCompressedBlock(s *bitstream, out []byte, litTree, distTree *huffmanTree) ([]byte, error) {
	for {
		symbol, err := litTree.decodeOne(s)
		if err != nil {
			return nil, err
		}
		switch {
		case symbol < 256:
			out = append(out, byte(symbol))
		case symbol == 256:
			return out, nil
		case symbol < 286:
			out, err = decodeBackReference(s, out, symbol, distTree)
			if err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(gopngerr.BadDeflateStream, "deflate: invalid literal/length symbol %d", symbol)
		}
	}
}

func decodeBackReference(s *bitstream, out []byte, lengthSymbol int, distTree *huffmanTree) ([]byte, error) {
	if lengthSymbol < 257 || lengthSymbol > 285 {
		return nil, errors.Wrapf(gopngerr.BadDeflateStream, "deflate: invalid length symbol %d", lengthSymbol)
	}
	lb := lengthTable[lengthSymbol]
	extra, err := s.readBitsLSBFirst(lb.extra)
	if err != nil {
		return nil, err
	}
	matchLength := lb.base + int(extra)

	distSymbol, err := decodeDistanceSymbol(s, distTree)
	if err != nil {
		return nil, err
	}
	if distSymbol < 0 || distSymbol > 29 {
		return nil, errors.Wrapf(gopngerr.BadDeflateStream, "deflate: invalid distance symbol %d", distSymbol)
	}
	db := distanceTable[distSymbol]
	distExtra, err := s.readBitsLSBFirst(db.extra)
	if err != nil {
		return nil, err
	}
	matchDistance := db.base + int(distExtra)

	if matchDistance > len(out) {
		return nil, errors.Wrapf(gopngerr.BadDeflateStream, "deflate: distance %d exceeds %d bytes of output", matchDistance, len(out))
	}

	// Self-referential copy, byte by byte: distance < length is valid and
	// must see bytes this same loop just appended.
	start := len(out) - matchDistance
	for i := 0; i < matchLength; i++ {
		out = append(out, out[start+i])
	}
	return out, nil
}

// decodeDistanceSymbol reads 5 bits MSB-first for fixed-Huffman blocks
// (distance codes in a fixed block have no Huffman tree of their own),
// else decodes with the dynamic distance tree.
func decodeDistanceSymbol(s *bitstream, distTree *huffmanTree) (int, error) {
	if distTree == nil {
		v, err := s.readBitsMSBFirst(5)
		return int(v), err
	}
	return distTree.decodeOne(s)
}
