package plink

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// MagicNumber is the prefix of a SNP-major BED file.
var MagicNumber = []byte{0x6c, 0x1b, 0x01}

// HeaderSize is the number of bytes preceding the first variant chunk.
const HeaderSize = 3

// Dosage is the number of copies (0, 1 or 2) of a record's coded allele
// carried by one sample, or Missing.
type Dosage int8

const Missing Dosage = -1

func (d Dosage) IsMissing() bool {
	return d == Missing
}

// Float64 returns the dosage as a float, with NaN standing in for missing
// calls.
func (d Dosage) Float64() float64 {
	if d == Missing {
		return math.NaN()
	}
	return float64(d)
}

func (d Dosage) String() string {
	if d == Missing {
		return "NA"
	}
	return fmt.Sprintf("%d", int8(d))
}

// ChunkSize is the number of bytes a variant occupies in the BED file.
func ChunkSize(nSamples int) int {
	return (nSamples + 3) / 4
}

// DecodeChunk unpacks one variant's worth of 2-bit genotype codes into
// exactly nSamples dosages. Bits past the last sample in the final byte are
// padding and are never interpreted.
func DecodeChunk(chunk []byte, nSamples int) ([]Dosage, error) {
	if len(chunk) != ChunkSize(nSamples) {
		return nil, fmt.Errorf("%w: chunk holds %d bytes but %d samples need %d", ErrFormat, len(chunk), nSamples, ChunkSize(nSamples))
	}

	out := make([]Dosage, nSamples)
	cr := newCodeReader(bytes.NewReader(chunk))
	for i := range out {
		code, err := cr.ReadCode()
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d: %v", ErrFormat, i, err)
		}

		switch code {
		case 0:
			out[i] = 2 // Homozygous A1
		case 1:
			out[i] = Missing
		case 2:
			out[i] = 1
		case 3:
			out[i] = 0 // Homozygous A2
		default:
			return nil, fmt.Errorf("%w: unexpected genotype code %d for sample %d", ErrFormat, code, i)
		}
	}

	return out, nil
}

// VerifyMagicNumber checks that r begins with MagicNumber.
func VerifyMagicNumber(r io.ReaderAt) error {
	buffer := make([]byte, HeaderSize)
	if _, err := r.ReadAt(buffer, 0); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: file is shorter than the %d byte header", ErrFormat, HeaderSize)
		}
		return err
	}

	if !bytes.Equal(buffer, MagicNumber) {
		return fmt.Errorf("%w: the BED header is expected to be the magic number %v, but instead was %v", ErrFormat, MagicNumber, buffer)
	}

	return nil
}
