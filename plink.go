package plink

import (
	"context"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
	"go.uber.org/zap"
)

// BED is the main object used for reading a PLINK binary fileset: the
// genotype matrix in <prefix>.bed, the variants in <prefix>.bim and the
// samples in <prefix>.fam.
//
// A BED is not safe for concurrent use. Open one per goroutine instead.
type BED struct {
	Prefix    string
	FilePath  string
	NSamples  uint32
	NVariants uint32
	ChunkSize int
	Samples   []Sample
	Index     *LocusIndex

	bimPath string
	file    byteSource
	opener  *opener
	logger  *zap.Logger
}

// Open reads the .fam file, opens or builds the locus index of the .bim file
// and verifies the .bed header. The prefix may be a local path or a
// gs://bucket/object path.
func Open(prefix string, opts ...Option) (*BED, error) {
	return OpenContext(context.Background(), prefix, opts...)
}

// OpenContext is like Open. The context is used for Cloud Storage requests
// made while the BED is open.
func OpenContext(ctx context.Context, prefix string, opts ...Option) (*BED, error) {
	o := newOptions(opts)

	b := &BED{
		Prefix:   prefix,
		FilePath: prefix + ".bed",
		bimPath:  prefix + ".bim",
		opener:   &opener{ctx: ctx, client: o.client},
		logger:   o.logger,
	}

	if err := b.open(o.builder); err != nil {
		b.Close()
		return nil, pfx.Err(err)
	}

	return b, nil
}

func (b *BED) open(builder IndexBuilder) error {
	famPath := b.Prefix + ".fam"
	fam, err := b.opener.openStream(famPath)
	if err != nil {
		return err
	}
	b.Samples, err = ReadSamples(fam, famPath)
	fam.Close()
	if err != nil {
		return err
	}
	b.NSamples = uint32(len(b.Samples))
	b.ChunkSize = ChunkSize(len(b.Samples))

	b.Index, err = openLocusIndex(b.opener, b.bimPath, builder, b.logger)
	if err != nil {
		return err
	}
	b.NVariants = b.Index.NVariants()

	b.file, err = b.opener.openReaderAt(b.FilePath)
	if err != nil {
		return err
	}

	if err := VerifyMagicNumber(b.file); err != nil {
		return fmt.Errorf("%s: %w", b.FilePath, err)
	}

	if expected := b.expectedSize(); b.file.Size() != expected {
		b.logger.Warn("bed size does not match bim and fam",
			zap.String("bed", b.FilePath),
			zap.Int64("size", b.file.Size()),
			zap.Int64("expected", expected),
			zap.Uint32("samples", b.NSamples),
			zap.Uint32("variants", b.NVariants))
	}

	b.logger.Debug("opened plink fileset",
		zap.String("prefix", b.Prefix),
		zap.Uint32("samples", b.NSamples),
		zap.Uint32("variants", b.NVariants))

	return nil
}

func (b *BED) expectedSize() int64 {
	return HeaderSize + int64(b.NVariants)*int64(b.ChunkSize)
}

// Close releases the .bed file, the locus index and any storage client that
// Open created.
func (b *BED) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if b.file != nil {
		keep(b.file.Close())
		b.file = nil
	}
	if b.Index != nil {
		keep(b.Index.Close())
		b.Index = nil
	}
	if b.opener != nil {
		keep(b.opener.Close())
		b.opener = nil
	}

	return firstErr
}

// VariantGenotypes returns the genotypes of v, which may be given on either
// strand. The record carries the variant and coded allele as listed in the
// .bim file. When the fileset has no such variant, VariantGenotypes returns
// nil and no error.
func (b *BED) VariantGenotypes(v Variant) (*VariantGenotype, error) {
	entry, ok, err := b.Index.Lookup(v)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if !ok {
		return nil, nil
	}

	return b.ReadOrdinal(entry)
}

// Region returns the genotypes of every variant on chrom with a position in
// [start, end], in position order.
func (b *BED) Region(chrom string, start, end uint32) ([]*VariantGenotype, error) {
	entries, err := b.Index.Region(chrom, start, end)
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]*VariantGenotype, 0, len(entries))
	for _, entry := range entries {
		g, err := b.ReadOrdinal(entry)
		if err != nil {
			return nil, pfx.Err(err)
		}
		out = append(out, g)
	}

	return out, nil
}

// ReadOrdinal decodes the chunk of the entry's record, located at
// HeaderSize + Ordinal*ChunkSize.
func (b *BED) ReadOrdinal(entry IndexEntry) (*VariantGenotype, error) {
	if entry.Ordinal >= b.NVariants {
		return nil, pfx.Err(fmt.Errorf("ordinal %d is out of range for %s with %d variants", entry.Ordinal, b.bimPath, b.NVariants))
	}

	buffer := make([]byte, b.ChunkSize)
	offset := HeaderSize + int64(entry.Ordinal)*int64(b.ChunkSize)
	if err := b.readChunkAt(offset, buffer); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s ordinal %d: %w", entry.Variant, entry.Ordinal, err))
	}

	return b.decode(entry.Variant, buffer, entry.CodedAllele, entry.Ordinal)
}

func (b *BED) decode(v Variant, chunk []byte, coded string, ordinal uint32) (*VariantGenotype, error) {
	calls, err := DecodeChunk(chunk, int(b.NSamples))
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s ordinal %d: %w", b.FilePath, ordinal, err))
	}

	g, err := NewVariantGenotype(v, calls, coded)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return g, nil
}

// readChunkAt fills buffer from offset. Running out of file is an
// ErrMisaligned error: the .fam or .bim describes more data than the .bed
// holds.
func (b *BED) readChunkAt(offset int64, buffer []byte) error {
	n, err := b.file.ReadAt(buffer, offset)
	if n == len(buffer) {
		return nil
	}
	if err == nil || err == io.EOF {
		return fmt.Errorf("%w: short read of %s at byte %d: got %d of %d bytes", ErrMisaligned, b.FilePath, offset, n, len(buffer))
	}

	return fmt.Errorf("reading %s at byte %d: %w", b.FilePath, offset, err)
}
