package plink

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// TabixIndexSuffix replaces the .bim extension to name bgzipped index
// artifacts. The tabix index and the cache key are written beside it with
// .tbi and .key appended.
const TabixIndexSuffix = ".bimidx.gz"

// TabixBuilder builds the locus index with the external bgzip and tabix
// programs. The artifact is the BIM content, sorted by locus, with the
// record ordinal appended as a seventh column.
type TabixBuilder struct {
	Dir string

	// Bgzip and Tabix are the program names or paths. They default to
	// "bgzip" and "tabix".
	Bgzip string
	Tabix string

	Logger *zap.Logger
}

func (b *TabixBuilder) bgzip() string {
	if b.Bgzip == "" {
		return "bgzip"
	}
	return b.Bgzip
}

func (b *TabixBuilder) tabix() string {
	if b.Tabix == "" {
		return "tabix"
	}
	return b.Tabix
}

func (b *TabixBuilder) path(key CacheKey) string {
	return artifactPath(key.Source, b.Dir, TabixIndexSuffix)
}

func (b *TabixBuilder) Open(key CacheKey) (LocusQuerier, error) {
	logger := nopIfNil(b.Logger)
	path := b.path(key)

	for _, p := range []string{path, path + ".tbi", path + ".key"} {
		if !fileExists(p) {
			return nil, nil
		}
	}

	var stored CacheKey
	if _, err := toml.DecodeFile(path+".key", &stored); err != nil {
		logger.Warn("discarding locus index with unreadable key", zap.String("path", path), zap.Error(err))
		return nil, nil
	}

	if !stored.Matches(key) {
		logger.Info("discarding stale locus index",
			zap.String("path", path),
			zap.String("indexed_fingerprint", stored.Fingerprint),
			zap.String("fingerprint", key.Fingerprint))
		return nil, nil
	}

	return &tabixQuerier{path: path, tabix: b.tabix(), logger: logger}, nil
}

// Build compresses the records with bgzip, indexes them with tabix and only
// then writes the cache key, which marks the artifact as complete.
func (b *TabixBuilder) Build(key CacheKey, records []IndexRecord) (LocusQuerier, error) {
	logger := nopIfNil(b.Logger)
	path := b.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, pfx.Err(err)
	}

	if err := os.Remove(path + ".key"); err != nil && !os.IsNotExist(err) {
		return nil, pfx.Err(err)
	}

	if err := b.compress(path, records, logger); err != nil {
		return nil, pfx.Err(err)
	}

	logger.Debug("running tabix", zap.String("path", path))
	out, err := exec.Command(b.tabix(), "-f", "-s", "1", "-b", "4", "-e", "4", path).CombinedOutput()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%w: %s %s: %v: %s", ErrIndexBuild, b.tabix(), path, err, bytes.TrimSpace(out)))
	}

	n, err := countGzipLines(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if n != len(records) {
		return nil, pfx.Err(fmt.Errorf("%w: %s holds %d records, expected %d", ErrIndexBuild, path, n, len(records)))
	}

	if err := writeCacheKey(path+".key", key); err != nil {
		return nil, pfx.Err(err)
	}

	return &tabixQuerier{path: path, tabix: b.tabix(), logger: logger}, nil
}

func (b *TabixBuilder) compress(path string, records []IndexRecord, logger *zap.Logger) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	var stderr bytes.Buffer
	cmd := exec.Command(b.bgzip(), "-c")
	cmd.Stdout = out
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}

	logger.Debug("running bgzip", zap.String("path", path), zap.Int("records", len(records)))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %s: %v", ErrIndexBuild, b.bgzip(), err)
	}

	w := bufio.NewWriter(stdin)
	var writeErr error
	for _, r := range records {
		if _, writeErr = fmt.Fprintf(w, "%s\t%d\n", r.Line, r.Ordinal); writeErr != nil {
			break
		}
	}
	if writeErr == nil {
		writeErr = w.Flush()
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrIndexBuild, b.bgzip(), err, bytes.TrimSpace(stderr.Bytes()))
	}
	if writeErr != nil {
		return fmt.Errorf("%w: writing to %s: %v", ErrIndexBuild, b.bgzip(), writeErr)
	}

	return out.Close()
}

// countGzipLines counts the lines of a bgzipped file. BGZF is a series of
// gzip members, which the gzip reader concatenates.
func countGzipLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer zr.Close()

	lc := &lineCounter{}
	if _, err := io.Copy(lc, zr); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	return int(lc.Lines()), nil
}

func writeCacheKey(path string, key CacheKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := toml.NewEncoder(f).Encode(key); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

type tabixQuerier struct {
	path   string
	tabix  string
	logger *zap.Logger
}

func (q *tabixQuerier) Query(chrom string, start, end uint32) ([]IndexEntry, error) {
	// Tabix regions are 1-based.
	if start == 0 {
		start = 1
	}
	if end < start {
		return nil, nil
	}
	region := fmt.Sprintf("%s:%d-%d", chrom, start, end)

	var stderr bytes.Buffer
	cmd := exec.Command(q.tabix, q.path, region)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s %s %s: %v: %s", q.tabix, q.path, region, err, bytes.TrimSpace(stderr.Bytes())))
	}

	var entries []IndexEntry
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		entry, err := parseTabixLine(scanner.Text())
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", q.path, err))
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return entries, nil
}

func (q *tabixQuerier) Close() error {
	return nil
}

func parseTabixLine(line string) (IndexEntry, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 7 {
		return IndexEntry{}, fmt.Errorf("%w: index line %q has %d columns, expected 7", ErrFormat, line, len(cols))
	}

	pos, err := strconv.ParseUint(cols[BIMCoordinate], 10, 32)
	if err != nil {
		return IndexEntry{}, fmt.Errorf("%w: index line %q: bad position", ErrFormat, line)
	}

	ordinal, err := strconv.ParseUint(cols[6], 10, 32)
	if err != nil {
		return IndexEntry{}, fmt.Errorf("%w: index line %q: bad ordinal", ErrFormat, line)
	}

	a1 := cols[BIMAllele1]
	return IndexEntry{
		Ordinal:     uint32(ordinal),
		Variant:     NewVariant(cols[BIMVariantID], cols[BIMChromosome], uint32(pos), a1, cols[BIMAllele2]),
		CodedAllele: strings.ToUpper(a1),
	}, nil
}
