package plink

import (
	"io"
)

// codeReader yields the 2-bit genotype codes packed into a byte stream. BED
// packs four samples per byte starting from the least significant pair, so
// the codes of byte 0b11_10_01_00 come out as 0, 1, 2, 3.
type codeReader struct {
	reader io.ByteReader
	byte   byte
	offset byte

	errCache error
}

func newCodeReader(r io.ByteReader) *codeReader {
	return &codeReader{reader: r}
}

func (r *codeReader) ReadCode() (uint8, error) {
	if r.offset == 8 {
		r.offset = 0
	}
	if r.offset == 0 {
		if r.byte, r.errCache = r.reader.ReadByte(); r.errCache != nil {
			return 0, r.errCache
		}
	}
	code := (r.byte >> r.offset) & 0b11
	r.offset += 2
	return code, nil
}
