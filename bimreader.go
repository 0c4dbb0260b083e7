package plink

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// OrderedVariant is a Variant together with the position its first listed
// allele took in the canonical allele pair. Canonicalization can reorder the
// alleles of a row; A1Index recovers which canonical allele was in the
// Allele1 column.
type OrderedVariant struct {
	Variant Variant
	A1Index int

	line string
}

// Allele1 is the canonical allele that was listed first in the source row.
func (ov *OrderedVariant) Allele1() string {
	return ov.Variant.Alleles.Allele(ov.A1Index)
}

// DelimitedReader streams variants from a delimited text file, one per line,
// in file order. It does not skip rows it cannot parse: in a BIM file every
// row corresponds to exactly one BED chunk, so a bad row is fatal.
type DelimitedReader struct {
	RecordsSeen uint32

	source     string
	layout     FieldLayout
	scanner    *bufio.Scanner
	lineNumber int
	err        error
}

// NewDelimitedReader reads variants from r according to layout. The source
// name is used in error messages.
func NewDelimitedReader(r io.Reader, source string, layout FieldLayout) *DelimitedReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &DelimitedReader{
		source:  source,
		layout:  layout,
		scanner: scanner,
	}
}

// NewBIMReader reads a PLINK .bim file.
func NewBIMReader(r io.Reader, source string) *DelimitedReader {
	return NewDelimitedReader(r, source, BIMLayout)
}

func (dr *DelimitedReader) Error() error {
	return dr.err
}

// Read returns the next variant, or nil once the input is exhausted or an
// error has occurred. Check Error after Read returns nil.
func (dr *DelimitedReader) Read() *OrderedVariant {
	if dr.err != nil {
		return nil
	}

	for {
		if !dr.scanner.Scan() {
			if err := dr.scanner.Err(); err != nil {
				dr.err = pfx.Err(fmt.Errorf("reading %s after line %d: %w", dr.source, dr.lineNumber, err))
			}
			return nil
		}
		dr.lineNumber++

		if dr.layout.Header && dr.lineNumber == 1 {
			continue
		}

		break
	}

	ov, err := dr.parseLine(strings.TrimSuffix(dr.scanner.Text(), "\r"))
	if err != nil {
		dr.err = pfx.Err(err)
		return nil
	}
	dr.RecordsSeen++

	return ov
}

func (dr *DelimitedReader) parseLine(line string) (*OrderedVariant, error) {
	cols := strings.Split(line, string(dr.layout.Delimiter))
	if want := dr.layout.maxColumn() + 1; len(cols) < want {
		return nil, fmt.Errorf("%w: line %d of %s has %d columns, expected at least %d", ErrFormat, dr.lineNumber, dr.source, len(cols), want)
	}

	pos, err := strconv.ParseUint(cols[dr.layout.Position], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d of %s: position %q is not an unsigned 32-bit integer", ErrFormat, dr.lineNumber, dr.source, cols[dr.layout.Position])
	}

	a1 := cols[dr.layout.Allele1]
	v := NewVariant(cols[dr.layout.Name], cols[dr.layout.Chromosome], uint32(pos), a1, cols[dr.layout.Allele2])
	a1Index, _ := v.Alleles.Index(a1)

	return &OrderedVariant{
		Variant: v,
		A1Index: a1Index,
		line:    line,
	}, nil
}
