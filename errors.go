package plink

import "errors"

var (
	// ErrFormat is returned when a file does not conform to the PLINK
	// binary fileset layout: a bad magic number, a chunk of the wrong size,
	// or a metadata row that cannot be parsed.
	ErrFormat = errors.New("invalid plink format")

	// ErrDuplicateVariant is returned when a locus query resolves to more than
	// one record. The BED layout assumes one chunk per distinct variant.
	ErrDuplicateVariant = errors.New("duplicate variant in file")

	// ErrCodedAllele is returned when a genotype record is built with a coded
	// allele that is not one of the variant's two alleles.
	ErrCodedAllele = errors.New("coded allele is not an allele of the variant")

	// ErrMisaligned is returned when the BED and BIM files do not describe the
	// same number of variants.
	ErrMisaligned = errors.New("bed and bim are misaligned")

	// ErrIndexBuild is returned when the external index tooling fails.
	ErrIndexBuild = errors.New("could not build locus index")
)
