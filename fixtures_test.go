package plink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeChunk packs dosages of allele 1 the way PLINK writes them. Padding
// bits are left as zero, which would decode as homozygous A1 if a reader
// failed to truncate.
func encodeChunk(calls []Dosage) []byte {
	chunk := make([]byte, ChunkSize(len(calls)))
	for i, d := range calls {
		var code byte
		switch d {
		case 2:
			code = 0
		case Missing:
			code = 1
		case 1:
			code = 2
		case 0:
			code = 3
		default:
			panic(fmt.Sprintf("bad dosage %d", d))
		}
		chunk[i/4] |= code << (2 * uint(i%4))
	}
	return chunk
}

type fixtureVariant struct {
	chrom  string
	name   string
	pos    uint32
	a1, a2 string
	calls  []Dosage // copies of a1
}

// writeFileset writes <dir>/test.{bed,bim,fam} and returns the prefix.
func writeFileset(t *testing.T, nSamples int, variants []fixtureVariant) string {
	t.Helper()

	prefix := filepath.Join(t.TempDir(), "test")

	var fam strings.Builder
	for i := 0; i < nSamples; i++ {
		fmt.Fprintf(&fam, "S%d\tS%d\t0\t0\t0\t-9\n", i, i)
	}
	require.NoError(t, os.WriteFile(prefix+".fam", []byte(fam.String()), 0o644))

	bed := append([]byte{}, MagicNumber...)
	for _, v := range variants {
		require.Len(t, v.calls, nSamples, "fixture %s", v.name)
		bed = append(bed, encodeChunk(v.calls)...)
	}
	writeBIM(t, prefix, variants)
	require.NoError(t, os.WriteFile(prefix+".bed", bed, 0o644))

	return prefix
}

// writeBIM (re)writes <prefix>.bim.
func writeBIM(t *testing.T, prefix string, variants []fixtureVariant) {
	t.Helper()

	var bim strings.Builder
	for _, v := range variants {
		fmt.Fprintf(&bim, "%s\t%s\t0\t%d\t%s\t%s\n", v.chrom, v.name, v.pos, v.a1, v.a2)
	}
	require.NoError(t, os.WriteFile(prefix+".bim", []byte(bim.String()), 0o644))
}

// standardFixture has two chromosomes, an unsorted BIM, an ambiguous SNP, an
// indel and a sample count that is not a multiple of four.
func standardFixture() []fixtureVariant {
	return []fixtureVariant{
		{"16", "rs1610216", 56642284, "G", "A", []Dosage{2, 1, 0, Missing, 1, 1, 0}},
		{"1", "rs12345", 12345, "G", "C", []Dosage{0, 0, 1, 2, 2, Missing, 1}},
		{"16", "rs77883301", 56647136, "A", "G", []Dosage{1, 1, 1, 1, 0, 0, 2}},
		{"1", "rs2", 20000, "T", "TCC", []Dosage{Missing, Missing, 0, 0, 0, 1, 2}},
		{"16", "rs3", 56651160, "c", "t", []Dosage{2, 2, 2, 2, 2, 2, 2}},
		{"16", "rs4", 56899006, "A", "C", []Dosage{0, 1, 2, 0, 1, 2, Missing}},
		{"1", "rs5", 500, "A", "G", []Dosage{0, 0, 0, 0, 0, 0, 1}},
	}
}
