package gopng

import (
	"github.com/pkg/errors"

	"github.com/xc-zero/gopng/gopngerr"
)

// inflateZlib validates a zlib (RFC 1950) header, decompresses the embedded
// DEFLATE stream via inflate, and verifies the Adler-32 trailer.
func inflateZlib(data []byte) ([]byte, error) {
	s := newBitstream(data)

	cmf, err := s.readAlignedByte()
	if err != nil {
		return nil, err
	}
	flg, err := s.readAlignedByte()
	if err != nil {
		return nil, err
	}
	if err := validateZlibHeader(cmf, flg); err != nil {
		return nil, err
	}

	decompressed, err := inflate(s)
	if err != nil {
		return nil, err
	}

	storedAdler, err := s.readAlignedBytesBigEndian(4)
	if err != nil {
		return nil, err
	}
	computedAdler := calculateAdler32(decompressed)
	if uint32(storedAdler) != computedAdler {
		return nil, errors.Wrapf(gopngerr.BadChecksum, "zlib: adler-32 mismatch (stored %#08x, computed %#08x)", storedAdler, computedAdler)
	}

	return decompressed, nil
}

func validateZlibHeader(cmf, flg byte) error {
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return errors.Wrap(gopngerr.BadZlibHeader, "zlib: header check bits invalid")
	}
	cm := cmf & 0x0F
	if cm != 8 {
		return errors.Wrapf(gopngerr.BadZlibHeader, "zlib: compression method %d is not DEFLATE", cm)
	}
	cinfo := cmf >> 4
	if cinfo > 7 {
		return errors.Wrapf(gopngerr.BadZlibHeader, "zlib: window size info %d exceeds 32 KiB", cinfo)
	}
	fdict := (flg >> 5) & 1
	if fdict != 0 {
		return errors.Wrap(gopngerr.BadZlibHeader, "zlib: preset dictionary is not supported")
	}
	// FLEVEL (flg>>6) is informational only and does not affect decoding.
	return nil
}
