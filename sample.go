package plink

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"
)

// Sample is one row of a .fam file. The order of samples in the .fam file is
// the order of genotype calls within each BED chunk.
type Sample struct {
	SampleID string
}

// ReadSamples reads the sample identifiers (the first column) of a .fam file.
// Columns may be separated by tabs or spaces.
func ReadSamples(r io.Reader, source string) ([]Sample, error) {
	samples := make([]Sample, 0)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			return nil, pfx.Err(fmt.Errorf("%w: line %d of %s is empty", ErrFormat, line, source))
		}

		samples = append(samples, Sample{SampleID: fields[0]})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(fmt.Errorf("reading %s: %w", source, err))
	}

	return samples, nil
}
