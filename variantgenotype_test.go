package plink

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVariantGenotype(t *testing.T) {
	v := NewVariant("rs1610216", "16", 56642284, "G", "A")

	g, err := NewVariantGenotype(v, []Dosage{2, 1, 0}, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, g.CodedIndex)
	assert.Equal(t, "G", g.CodedAllele())

	g, err = NewVariantGenotype(v, []Dosage{2, 1, 0}, "A")
	require.NoError(t, err)
	assert.Equal(t, 0, g.CodedIndex)
}

func TestNewVariantGenotype_BadAllele(t *testing.T) {
	v := NewVariant("rs1610216", "16", 56642284, "G", "A")

	_, err := NewVariantGenotype(v, []Dosage{2}, "T")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCodedAllele)
	assert.ErrorContains(t, err, "chr16:56642284")
}

func TestVariantGenotype_Frequency(t *testing.T) {
	v := NewVariant("rs1", "1", 1, "A", "G")

	tests := []struct {
		name  string
		calls []Dosage
		freq  float64
		maf   float64
	}{
		{"all homozygous coded", []Dosage{2, 2, 2, 2}, 1, 0},
		{"all homozygous other", []Dosage{0, 0, 0, 0}, 0, 0},
		{"balanced", []Dosage{0, 1, 1, 2}, 0.5, 0.5},
		{"minor coded", []Dosage{1, 0, 0, 0}, 0.125, 0.125},
		{"major coded", []Dosage{2, 2, 2, 1}, 0.875, 0.125},
		// Missing calls stay in the denominator: 3 / (2*4).
		{"missing counted", []Dosage{2, 1, Missing, Missing}, 0.375, 0.375},
		{"all missing", []Dosage{Missing, Missing}, 0, 0},
		{"no samples", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewVariantGenotype(v, tt.calls, "A")
			require.NoError(t, err)
			assert.InDelta(t, tt.freq, g.CodedAlleleFrequency(), 1e-12)
			assert.InDelta(t, tt.maf, g.MAF(), 1e-12)
			assert.GreaterOrEqual(t, g.MAF(), 0.0)
			assert.LessOrEqual(t, g.MAF(), 0.5)
		})
	}
}

func TestVariantGenotype_Floats(t *testing.T) {
	g, err := NewVariantGenotype(NewVariant("", "1", 1, "A", "C"), []Dosage{0, Missing, 2}, "C")
	require.NoError(t, err)

	f := g.Floats()
	require.Len(t, f, 3)
	assert.Equal(t, 0.0, f[0])
	assert.True(t, math.IsNaN(f[1]))
	assert.Equal(t, 2.0, f[2])
	assert.Equal(t, 2, g.NonMissing())
}

func TestVariantGenotype_Equal(t *testing.T) {
	v := NewVariant("", "1", 1, "A", "C")
	a, _ := NewVariantGenotype(v, []Dosage{0, Missing, 2}, "C")
	b, _ := NewVariantGenotype(v.Complement(), []Dosage{0, Missing, 2}, "G")
	c, _ := NewVariantGenotype(v, []Dosage{0, Missing, 2}, "A")
	d, _ := NewVariantGenotype(v, []Dosage{0, 1, 2}, "C")

	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(b), "coded allele reported on the other strand")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}
