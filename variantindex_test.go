package plink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCounter(t *testing.T) {
	cases := []struct {
		input string
		want  uint32
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{"a\r\nb\r\n", 2},
	}

	for _, tc := range cases {
		lc := &lineCounter{}
		// Split the writes to check state carries across calls.
		for i := 0; i < len(tc.input); i++ {
			lc.Write([]byte{tc.input[i]})
		}
		assert.Equal(t, tc.want, lc.Lines(), "%q", tc.input)
	}
}

func TestComputeCacheKey(t *testing.T) {
	bim := "1\trs1\t0\t100\tA\tG\n1\trs2\t0\t200\tC\tT\n"

	key, err := computeCacheKey(strings.NewReader(bim), "a.bim")
	require.NoError(t, err)
	assert.Equal(t, "a.bim", key.Source)
	assert.EqualValues(t, len(bim), key.Size)
	assert.EqualValues(t, 2, key.NVariants)
	assert.Equal(t, IndexVersion, key.Version)
	assert.Len(t, key.Fingerprint, 64)

	moved, err := computeCacheKey(strings.NewReader(bim), "elsewhere/a.bim")
	require.NoError(t, err)
	assert.True(t, key.Matches(moved))

	// Same size and line count, one byte different.
	edited, err := computeCacheKey(strings.NewReader(strings.Replace(bim, "rs2", "rs3", 1)), "a.bim")
	require.NoError(t, err)
	assert.Equal(t, key.Size, edited.Size)
	assert.False(t, key.Matches(edited))

	older := key
	older.Version = IndexVersion - 1
	assert.False(t, key.Matches(older))
}

func TestReadIndexRecords(t *testing.T) {
	bim := "2\trs1\t0\t300\tg\ta\n1\trs2\t0\t100\tTCC\tT\n"

	records, err := readIndexRecords(NewBIMReader(strings.NewReader(bim), "t.bim"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.EqualValues(t, 0, records[0].Ordinal)
	assert.Equal(t, "G", records[0].CodedAllele)
	assert.Equal(t, "A", records[0].otherAllele())
	assert.Equal(t, "2\trs1\t0\t300\tg\ta", records[0].Line)

	assert.EqualValues(t, 1, records[1].Ordinal)
	assert.Equal(t, "TCC", records[1].CodedAllele)
	assert.Equal(t, "T", records[1].otherAllele())
}

func TestSortIndexRecords(t *testing.T) {
	record := func(chrom string, pos, ordinal uint32) IndexRecord {
		return IndexRecord{IndexEntry: IndexEntry{
			Ordinal: ordinal,
			Variant: NewVariant("", chrom, pos, "A", "G"),
		}}
	}

	records := []IndexRecord{
		record("2", 5, 0),
		record("10", 1, 1),
		record("1", 9, 2),
		record("1", 3, 3),
		record("1", 9, 4),
	}
	sortIndexRecords(records)

	var ordinals []uint32
	for _, r := range records {
		ordinals = append(ordinals, r.Ordinal)
	}
	assert.Equal(t, []uint32{3, 2, 4, 1, 0}, ordinals)
}

func indexRecords(t *testing.T, bim string) (CacheKey, []IndexRecord) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "idx.bim")
	require.NoError(t, os.WriteFile(path, []byte(bim), 0o644))

	key, err := computeCacheKey(strings.NewReader(bim), path)
	require.NoError(t, err)
	records, err := readIndexRecords(NewBIMReader(strings.NewReader(bim), path))
	require.NoError(t, err)
	sortIndexRecords(records)

	return key, records
}

const builderBIM = "1\trs10\t0\t100\tA\tG\n" +
	"1\trs11\t0\t200\tC\tT\n" +
	"1\trs12\t0\t200\tA\tC\n" +
	"2\trs20\t0\t150\tG\tT\n" +
	"1\trs13\t0\t300\tA\tAT\n"

func testQuerier(t *testing.T, q LocusQuerier) {
	t.Helper()

	names := func(entries []IndexEntry) []string {
		var out []string
		for _, e := range entries {
			out = append(out, e.Variant.Name)
		}
		return out
	}

	entries, err := q.Query("1", 100, 300)
	require.NoError(t, err)
	assert.Equal(t, []string{"rs10", "rs11", "rs12", "rs13"}, names(entries))

	entries, err = q.Query("1", 200, 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"rs11", "rs12"}, names(entries))
	assert.EqualValues(t, 1, entries[0].Ordinal)
	assert.EqualValues(t, 2, entries[1].Ordinal)

	entries, err = q.Query("2", 0, 4294967295)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rs20", entries[0].Variant.Name)
	assert.Equal(t, "G", entries[0].CodedAllele)
	assert.EqualValues(t, 3, entries[0].Ordinal)

	entries, err = q.Query("1", 301, 1000)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = q.Query("3", 0, 1000)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryBuilder(t *testing.T) {
	key, records := indexRecords(t, builderBIM)

	q, err := MemoryBuilder{}.Open(key)
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = MemoryBuilder{}.Build(key, records)
	require.NoError(t, err)
	defer q.Close()
	testQuerier(t, q)
}

func TestSQLiteBuilder(t *testing.T) {
	key, records := indexRecords(t, builderBIM)
	b := &SQLiteBuilder{}

	q, err := b.Open(key)
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = b.Build(key, records)
	require.NoError(t, err)
	testQuerier(t, q)
	require.NoError(t, q.Close())

	path := strings.TrimSuffix(key.Source, ".bim") + SQLiteIndexSuffix
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")

	q, err = b.Open(key)
	require.NoError(t, err)
	require.NotNil(t, q)
	testQuerier(t, q)
	require.NoError(t, q.Close())

	stale := key
	stale.Fingerprint = strings.Repeat("0", 64)
	q, err = b.Open(stale)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestLocusIndexLookup(t *testing.T) {
	key, records := indexRecords(t, builderBIM)
	q, err := MemoryBuilder{}.Build(key, records)
	require.NoError(t, err)
	li := &LocusIndex{Key: key, querier: q}

	// C/T on the other strand.
	entry, ok, err := li.Lookup(NewVariant("", "1", 200, "G", "A"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rs11", entry.Variant.Name)

	entry, ok, err = li.Lookup(NewVariant("", "1", 200, "C", "A"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rs12", entry.Variant.Name)

	_, ok, err = li.Lookup(NewVariant("", "1", 200, "A", "T"))
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := li.Region("1", 300, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
