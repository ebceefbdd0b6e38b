package gopng

const adler32Mod = 65521

// calculateAdler32 computes the zlib trailer checksum: two running sums
// modulo 65521, s1 = 1 + sum(bytes), s2 = sum(s1), result = (s2<<16)|s1.
// A pure function of the byte sequence.
func calculateAdler32(data []byte) uint32 {
	s1, s2 := uint32(1), uint32(0)
	// Accumulate in wider batches before reducing modulo, the standard
	// adler32 trick: a byte adds at most 255 to s1 each step, so s1 and s2
	// can run for thousands of bytes before overflowing uint32 headroom.
	const maxBlock = 5552 // largest n with 255*n*(n+1)/2 + (n+1)*(65520) < 2^32
	for len(data) > 0 {
		n := len(data)
		if n > maxBlock {
			n = maxBlock
		}
		for _, b := range data[:n] {
			s1 += uint32(b)
			s2 += s1
		}
		s1 %= adler32Mod
		s2 %= adler32Mod
		data = data[n:]
	}
	return (s2 << 16) | s1
}
