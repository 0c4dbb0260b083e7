package plink

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/carbocation/pfx"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// IndexVersion is bumped whenever the layout of index artifacts changes, so
// that artifacts written by older versions are rebuilt.
const IndexVersion = 1

// IndexEntry locates one BIM record. Ordinal is the 0-based line number of the
// record, which is also the number of BED chunks preceding its own.
type IndexEntry struct {
	Ordinal     uint32
	Variant     Variant
	CodedAllele string
}

func (e IndexEntry) otherAllele() string {
	idx, _ := e.Variant.Alleles.Index(e.CodedAllele)
	return e.Variant.Alleles.Allele(1 - idx)
}

// IndexRecord is an IndexEntry along with the BIM line it was parsed from.
type IndexRecord struct {
	IndexEntry
	Line string
}

// CacheKey identifies the exact BIM content an index artifact was built from.
// Fingerprint is the hex BLAKE2b-256 digest of the file.
type CacheKey struct {
	Source      string `toml:"source"`
	Size        int64  `toml:"size"`
	Fingerprint string `toml:"fingerprint"`
	NVariants   uint32 `toml:"n_variants"`
	Version     int    `toml:"version"`
}

// Matches reports whether an artifact built under k can serve o. The source
// path is informational: a moved file with identical content still matches.
func (k CacheKey) Matches(o CacheKey) bool {
	return k.Size == o.Size &&
		k.Fingerprint == o.Fingerprint &&
		k.NVariants == o.NVariants &&
		k.Version == o.Version
}

// LocusQuerier answers region queries against a built index artifact.
type LocusQuerier interface {
	// Query returns the entries with chromosome chrom and a position in
	// [start, end], in position order.
	Query(chrom string, start, end uint32) ([]IndexEntry, error)
	Close() error
}

// IndexBuilder creates and reopens index artifacts.
type IndexBuilder interface {
	// Open returns a querier over a previously built artifact for key, or nil
	// with no error when there is none or it is stale.
	Open(key CacheKey) (LocusQuerier, error)

	// Build writes an artifact holding records, which are sorted by
	// chromosome and position, and returns a querier over it.
	Build(key CacheKey, records []IndexRecord) (LocusQuerier, error)
}

// LocusIndex maps genomic coordinates to BIM records.
type LocusIndex struct {
	Key CacheKey

	querier LocusQuerier
}

func (li *LocusIndex) NVariants() uint32 {
	return li.Key.NVariants
}

func (li *LocusIndex) Close() error {
	return li.querier.Close()
}

// Lookup finds the record of v, matching alleles on either strand. The
// boolean is false when the BIM has no such variant. More than one match is
// an ErrDuplicateVariant error.
func (li *LocusIndex) Lookup(v Variant) (IndexEntry, bool, error) {
	candidates, err := li.querier.Query(v.Locus.Chromosome, v.Locus.Position, v.Locus.Position)
	if err != nil {
		return IndexEntry{}, false, pfx.Err(err)
	}

	var matches []IndexEntry
	for _, c := range candidates {
		if c.Variant.Equal(v) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return IndexEntry{}, false, nil
	case 1:
		return matches[0], true, nil
	}

	return IndexEntry{}, false, pfx.Err(fmt.Errorf("%w: %s matches %d records of %s", ErrDuplicateVariant, v, len(matches), li.Key.Source))
}

// Region returns the records on chrom with positions in [start, end].
func (li *LocusIndex) Region(chrom string, start, end uint32) ([]IndexEntry, error) {
	if start > end {
		return nil, nil
	}

	entries, err := li.querier.Query(chrom, start, end)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return entries, nil
}

// OpenLocusIndex opens the locus index of a .bim file on its own, building
// the artifact if needed. Close it when done.
func OpenLocusIndex(ctx context.Context, bimPath string, opts ...Option) (*LocusIndex, error) {
	o := newOptions(opts)
	op := &opener{ctx: ctx, client: o.client}
	defer op.Close()

	li, err := openLocusIndex(op, bimPath, o.builder, o.logger)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return li, nil
}

// openLocusIndex reuses the builder's artifact for bimPath when its content
// is unchanged, and builds one otherwise.
func openLocusIndex(op *opener, bimPath string, builder IndexBuilder, logger *zap.Logger) (*LocusIndex, error) {
	stream, err := op.openStream(bimPath)
	if err != nil {
		return nil, pfx.Err(err)
	}
	key, err := computeCacheKey(stream, bimPath)
	stream.Close()
	if err != nil {
		return nil, pfx.Err(err)
	}

	querier, err := builder.Open(key)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if querier != nil {
		logger.Debug("reusing locus index",
			zap.String("bim", bimPath),
			zap.Uint32("variants", key.NVariants))
		return &LocusIndex{Key: key, querier: querier}, nil
	}

	stream, err = op.openStream(bimPath)
	if err != nil {
		return nil, pfx.Err(err)
	}
	records, err := readIndexRecords(NewBIMReader(stream, bimPath))
	stream.Close()
	if err != nil {
		return nil, pfx.Err(err)
	}

	if uint32(len(records)) != key.NVariants {
		return nil, pfx.Err(fmt.Errorf("%w: %s has %d lines but %d records", ErrFormat, bimPath, key.NVariants, len(records)))
	}

	sortIndexRecords(records)

	querier, err = builder.Build(key, records)
	if err != nil {
		return nil, pfx.Err(err)
	}
	logger.Info("built locus index",
		zap.String("bim", bimPath),
		zap.Uint32("variants", key.NVariants),
		zap.String("fingerprint", key.Fingerprint))

	return &LocusIndex{Key: key, querier: querier}, nil
}

// computeCacheKey digests r and counts its lines in a single pass.
func computeCacheKey(r io.Reader, source string) (CacheKey, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return CacheKey{}, pfx.Err(err)
	}

	lc := &lineCounter{}
	size, err := io.Copy(io.MultiWriter(h, lc), r)
	if err != nil {
		return CacheKey{}, pfx.Err(fmt.Errorf("reading %s: %w", source, err))
	}

	return CacheKey{
		Source:      source,
		Size:        size,
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
		NVariants:   lc.Lines(),
		Version:     IndexVersion,
	}, nil
}

// lineCounter counts lines the way bufio.Scanner splits them: a final line
// without a trailing newline still counts.
type lineCounter struct {
	newlines uint32
	last     byte
	seen     bool
}

func (lc *lineCounter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			lc.newlines++
		}
	}
	if len(p) > 0 {
		lc.last = p[len(p)-1]
		lc.seen = true
	}
	return len(p), nil
}

func (lc *lineCounter) Lines() uint32 {
	if lc.seen && lc.last != '\n' {
		return lc.newlines + 1
	}
	return lc.newlines
}

// readIndexRecords tags every BIM record with its ordinal.
func readIndexRecords(br *DelimitedReader) ([]IndexRecord, error) {
	var records []IndexRecord
	for ov := br.Read(); ov != nil; ov = br.Read() {
		records = append(records, IndexRecord{
			IndexEntry: IndexEntry{
				Ordinal:     br.RecordsSeen - 1,
				Variant:     ov.Variant,
				CodedAllele: ov.Allele1(),
			},
			Line: ov.line,
		})
	}
	if err := br.Error(); err != nil {
		return nil, pfx.Err(err)
	}

	return records, nil
}

// sortIndexRecords orders records by chromosome, then position. Records at
// the same locus keep their file order.
func sortIndexRecords(records []IndexRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Variant.Locus, records[j].Variant.Locus
		if a.Chromosome != b.Chromosome {
			return a.Chromosome < b.Chromosome
		}
		return a.Position < b.Position
	})
}
