package plink

import (
	"fmt"
	"math"
)

// VariantGenotype holds the decoded calls of every sample at one variant.
// Each call counts copies of the coded allele, which is one of the two
// canonical alleles of Variant.
type VariantGenotype struct {
	Variant   Variant
	Genotypes []Dosage

	// CodedIndex is the position of the coded allele within
	// Variant.Alleles.
	CodedIndex int
}

// NewVariantGenotype binds calls to v, with coded naming the allele whose
// copies the calls count. coded must be one of v's alleles.
func NewVariantGenotype(v Variant, calls []Dosage, coded string) (*VariantGenotype, error) {
	idx, ok := v.Alleles.Index(coded)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not one of %s for %s", ErrCodedAllele, coded, v.Alleles, v)
	}

	return &VariantGenotype{
		Variant:    v,
		Genotypes:  calls,
		CodedIndex: idx,
	}, nil
}

func (g *VariantGenotype) CodedAllele() string {
	return g.Variant.Alleles.Allele(g.CodedIndex)
}

// NonMissing counts the samples with a call.
func (g *VariantGenotype) NonMissing() int {
	n := 0
	for _, d := range g.Genotypes {
		if !d.IsMissing() {
			n++
		}
	}
	return n
}

// CodedAlleleFrequency is the number of coded alleles observed divided by
// twice the number of samples. Samples with missing calls count towards the
// denominator.
func (g *VariantGenotype) CodedAlleleFrequency() float64 {
	if len(g.Genotypes) == 0 {
		return 0
	}

	var sum int
	for _, d := range g.Genotypes {
		if !d.IsMissing() {
			sum += int(d)
		}
	}

	return float64(sum) / (2 * float64(len(g.Genotypes)))
}

// MAF is the minor allele frequency, between 0 and 0.5.
func (g *VariantGenotype) MAF() float64 {
	f := g.CodedAlleleFrequency()
	return math.Min(f, 1-f)
}

// Floats returns the calls as floats with NaN for missing calls.
func (g *VariantGenotype) Floats() []float64 {
	out := make([]float64, len(g.Genotypes))
	for i, d := range g.Genotypes {
		out[i] = d.Float64()
	}
	return out
}

// Equal compares the variant, coded allele and calls of two records.
func (g *VariantGenotype) Equal(o *VariantGenotype) bool {
	if !g.Variant.Equal(o.Variant) || g.CodedAllele() != o.CodedAllele() || len(g.Genotypes) != len(o.Genotypes) {
		return false
	}
	for i := range g.Genotypes {
		if g.Genotypes[i] != o.Genotypes[i] {
			return false
		}
	}
	return true
}
