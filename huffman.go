package gopng

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// maxHuffmanCodeLength bounds the DEFLATE code length alphabet (RFC 1951
// caps literal/length and distance codes at 15 bits, code-length codes at
// 7 bits); 15 covers every tree this decoder builds.
const maxHuffmanCodeLength = 15

const huffmanNoSymbol = -1

// huffmanTree is a prefix-code structure supporting incremental search and
// canonical-code construction. Representation is a flat length-indexed
// lookup table rather than a pointer tree: codes[length] maps a length-bit
// code (left-padded into that many bits) to a symbol, so search is an O(1)
// map probe instead of a node walk.
type huffmanTree struct {
	codes  [maxHuffmanCodeLength + 1]map[uint32]int
	height int
}

func newHuffmanTree() *huffmanTree {
	t := &huffmanTree{}
	for i := range t.codes {
		t.codes[i] = make(map[uint32]int)
	}
	return t
}

// insert records a leaf at the path defined by the length most-significant
// bits of code. Inserting where the symbol or code position collides is a
// construction error.
func (t *huffmanTree) insert(symbol int, code uint32, length int) error {
	if length <= 0 || length > maxHuffmanCodeLength {
		return errors.Errorf("huffman: invalid code length %d", length)
	}
	if _, exists := t.codes[length][code]; exists {
		return errors.Errorf("huffman: code collision at length %d", length)
	}
	for _, m := range t.codes {
		for _, s := range m {
			if s == symbol {
				return errors.Errorf("huffman: symbol %d already has a code", symbol)
			}
		}
	}
	t.codes[length][code] = symbol
	if length > t.height {
		t.height = length
	}
	return nil
}

// search returns the symbol iff some leaf's code equals code padded to
// length bits; otherwise huffmanNoSymbol, "no match yet" (the caller should
// extend by one bit). Extending past the tree's height is the caller's
// responsibility to treat as fatal.
func (t *huffmanTree) search(code uint32, length int) int {
	if length < 0 || length > maxHuffmanCodeLength {
		return huffmanNoSymbol
	}
	if symbol, ok := t.codes[length][code]; ok {
		return symbol
	}
	return huffmanNoSymbol
}

// decodeOne reads MSB-first bits from s, one at a time, until a code of
// some length matches a leaf in t, or the tree's height is exceeded (which
// is a BadDeflateStream error).
func (t *huffmanTree) decodeOne(s *bitstream) (int, error) {
	var code uint32
	for length := 1; length <= t.height; length++ {
		bit, err := s.readBit()
		if err != nil {
			return 0, err
		}
		code = (code << 1) | uint32(bit)
		if symbol := t.search(code, length); symbol != huffmanNoSymbol {
			return symbol, nil
		}
	}
	return 0, errors.Wrapf(gopngerr.BadDeflateStream, "huffman: code length exceeds tree height %d", t.height)
}

// lengthSymbol pairs a symbol with its canonical code length, the input to
// canonicalHuffmanTree.
type lengthSymbol struct {
	symbol int
	length int
}

// canonicalHuffmanTree builds the canonical prefix code from a symbol
// -> length mapping: drop zero-length symbols, sort ascending by (length,
// symbol), assign the all-zeros code of the smallest length to the first
// symbol, increment by one between consecutive symbols of equal length, and
// left-shift by the length increment when moving to a longer code.
func canonicalHuffmanTree(lengths map[int]int) (*huffmanTree, error) {
	entries := make([]lengthSymbol, 0, len(lengths))
	for symbol, length := range lengths {
		if length == 0 {
			continue
		}
		entries = append(entries, lengthSymbol{symbol: symbol, length: length})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].length != entries[j].length {
			return entries[i].length < entries[j].length
		}
		return entries[i].symbol < entries[j].symbol
	})

	tree := newHuffmanTree()
	var code uint32
	var codeLength int
	for _, e := range entries {
		if e.length > codeLength {
			code <<= uint(e.length - codeLength)
			codeLength = e.length
		}
		if err := tree.insert(e.symbol, code, codeLength); err != nil {
			return nil, errors.Wrap(err, "huffman: canonical construction")
		}
		code++
	}
	return tree, nil
}
