package plink

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Locus is a genomic site. Loci are compared exactly; no chromosome name or
// coordinate normalization is attempted.
type Locus struct {
	Chromosome string
	Position   uint32
}

func (l Locus) String() string {
	return fmt.Sprintf("chr%s:%d", l.Chromosome, l.Position)
}

// AllelePair is an unordered pair of uppercase alleles stored in canonical
// order: the shorter allele first or, for alleles of equal length, the
// lexicographically smaller one first. NewAllelePair(a, b) and
// NewAllelePair(b, a) produce identical values.
type AllelePair struct {
	first  string
	second string
}

func NewAllelePair(a1, a2 string) AllelePair {
	a1, a2 = strings.ToUpper(a1), strings.ToUpper(a2)
	if len(a1) == len(a2) {
		if a1 < a2 {
			return AllelePair{a1, a2}
		}
		return AllelePair{a2, a1}
	}

	if len(a1) < len(a2) {
		return AllelePair{a1, a2}
	}
	return AllelePair{a2, a1}
}

func (p AllelePair) First() string  { return p.first }
func (p AllelePair) Second() string { return p.second }

// Index reports which member of the canonical pair equals allele (compared
// case-insensitively). When both members are identical, 0 is returned.
func (p AllelePair) Index(allele string) (int, bool) {
	allele = strings.ToUpper(allele)
	switch allele {
	case p.first:
		return 0, true
	case p.second:
		return 1, true
	}
	return 0, false
}

// Allele returns the member of the pair at idx, which must be 0 or 1.
func (p AllelePair) Allele(idx int) string {
	if idx == 0 {
		return p.first
	}
	return p.second
}

// Complement returns the pair as it would be reported on the opposite
// strand.
func (p AllelePair) Complement() AllelePair {
	return NewAllelePair(Complement(p.first), Complement(p.second))
}

// Ambiguous is true for the strand-ambiguous SNPs A/T and C/G, whose
// complement is themselves.
func (p AllelePair) Ambiguous() bool {
	return (p.first == "A" && p.second == "T") || (p.first == "C" && p.second == "G")
}

func (p AllelePair) String() string {
	return fmt.Sprintf("(%s, %s)", p.first, p.second)
}

// Variant identifies a biallelic site. The Name is informational and takes
// no part in equality or hashing.
type Variant struct {
	Name    string
	Locus   Locus
	Alleles AllelePair
}

func NewVariant(name, chrom string, pos uint32, a1, a2 string) Variant {
	return Variant{
		Name:    name,
		Locus:   Locus{Chromosome: chrom, Position: pos},
		Alleles: NewAllelePair(a1, a2),
	}
}

func (v Variant) String() string {
	return fmt.Sprintf("<Variant %s_%s>", v.Locus, v.Alleles)
}

// AllelesAmbiguous is true when the variant is an A/T or C/G SNP.
func (v Variant) AllelesAmbiguous() bool {
	return v.Alleles.Ambiguous()
}

// LocusEqual compares only the chromosome and position.
func (v Variant) LocusEqual(o Variant) bool {
	return v.Locus == o.Locus
}

// Equal reports whether v and o are the same physical variant: the loci match
// and the alleles match either directly or after complementing o, so that
// variants reported on opposite strands compare equal.
func (v Variant) Equal(o Variant) bool {
	if !v.LocusEqual(o) {
		return false
	}

	return v.Alleles == o.Alleles || v.Alleles == o.Alleles.Complement()
}

// Complement returns the representation of v on the other strand.
func (v Variant) Complement() Variant {
	v.Alleles = v.Alleles.Complement()
	return v
}

// Key is a string identity for v that folds in both strands. Two variants
// have the same Key if and only if they are Equal, so Key can be used to
// index Go maps by variant.
//
// A pair and its complement form a class of at most two members, so the
// key uses whichever of the two sorts first.
func (v Variant) Key() string {
	fwd := []string{v.Alleles.first, v.Alleles.second}
	c := v.Alleles.Complement()
	rev := []string{c.first, c.second}

	strand := fwd
	if lessAlleles(rev, fwd) {
		strand = rev
	}

	return fmt.Sprintf("%s\t%d\t%s", v.Locus.Chromosome, v.Locus.Position, strings.Join(strand, ","))
}

func lessAlleles(a, b []string) bool {
	for k := range a {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}

// Hash is consistent with Equal.
func (v Variant) Hash() uint64 {
	sum := blake2b.Sum256([]byte(v.Key()))
	return binary.LittleEndian.Uint64(sum[:8])
}

// Complement substitutes each base with its pairing base (A<->T, C<->G).
// Any other character, such as N or a deletion marker, is kept as-is.
func Complement(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'A':
			return 'T'
		case 'T':
			return 'A'
		case 'C':
			return 'G'
		case 'G':
			return 'C'
		}
		return r
	}, s)
}
