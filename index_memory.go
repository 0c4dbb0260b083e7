package plink

import "sort"

// MemoryBuilder keeps the locus index in memory. Nothing is cached between
// processes, so every Open rebuilds it.
type MemoryBuilder struct{}

func (MemoryBuilder) Open(CacheKey) (LocusQuerier, error) {
	return nil, nil
}

func (MemoryBuilder) Build(_ CacheKey, records []IndexRecord) (LocusQuerier, error) {
	sorted := make([]IndexRecord, len(records))
	copy(sorted, records)
	sortIndexRecords(sorted)

	entries := make([]IndexEntry, len(sorted))
	for i, r := range sorted {
		entries[i] = r.IndexEntry
	}

	return &memoryQuerier{entries: entries}, nil
}

type memoryQuerier struct {
	entries []IndexEntry
}

func (q *memoryQuerier) Query(chrom string, start, end uint32) ([]IndexEntry, error) {
	first := sort.Search(len(q.entries), func(i int) bool {
		l := q.entries[i].Variant.Locus
		if l.Chromosome != chrom {
			return l.Chromosome > chrom
		}
		return l.Position >= start
	})

	var out []IndexEntry
	for i := first; i < len(q.entries); i++ {
		l := q.entries[i].Variant.Locus
		if l.Chromosome != chrom || l.Position > end {
			break
		}
		out = append(out, q.entries[i])
	}

	return out, nil
}

func (q *memoryQuerier) Close() error {
	return nil
}
