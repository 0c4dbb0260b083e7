package plink

// FieldLayout maps the columns of a delimited variant file to the fields of a
// Variant. Column indices are 0-based.
type FieldLayout struct {
	Delimiter  rune
	Name       int
	Chromosome int
	Position   int
	Allele1    int
	Allele2    int

	// Header indicates that the first line holds column names and is skipped.
	Header bool
}

// Map columns in the BIM file to their positions
const (
	BIMChromosome int = iota
	BIMVariantID
	BIMMorgans
	BIMCoordinate
	BIMAllele1
	BIMAllele2
)

// BIMLayout describes a PLINK .bim file.
var BIMLayout = FieldLayout{
	Delimiter:  '\t',
	Name:       BIMVariantID,
	Chromosome: BIMChromosome,
	Position:   BIMCoordinate,
	Allele1:    BIMAllele1,
	Allele2:    BIMAllele2,
}

func (l FieldLayout) maxColumn() int {
	max := l.Name
	for _, c := range []int{l.Chromosome, l.Position, l.Allele1, l.Allele2} {
		if c > max {
			max = c
		}
	}
	return max
}
