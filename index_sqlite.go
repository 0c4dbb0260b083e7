package plink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SQLiteIndexSuffix replaces the .bim extension to name SQLite index
// artifacts.
const SQLiteIndexSuffix = ".bimidx"

var sqliteSchema = []string{
	`CREATE TABLE Metadata (
		filename TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		n_variants INTEGER NOT NULL,
		format_version INTEGER NOT NULL,
		index_creation_time INTEGER NOT NULL
	)`,
	`CREATE TABLE Variant (
		chromosome TEXT NOT NULL,
		position INTEGER NOT NULL,
		rsid TEXT NOT NULL,
		allele1 TEXT NOT NULL,
		allele2 TEXT NOT NULL,
		ordinal INTEGER NOT NULL
	)`,
}

// Created after the rows are loaded, which is faster than maintaining it
// during the insert.
const sqliteLocusIndex = `CREATE INDEX variant_locus ON Variant (chromosome, position)`

// IndexMetadata conforms to the single row of the "Metadata" table of a
// SQLite locus index.
type IndexMetadata struct {
	Filename          string `db:"filename"`
	FileSize          int64  `db:"file_size"`
	Fingerprint       string `db:"fingerprint"`
	NVariants         uint32 `db:"n_variants"`
	FormatVersion     int    `db:"format_version"`
	IndexCreationTime Time   `db:"index_creation_time"`
}

func (m IndexMetadata) cacheKey() CacheKey {
	return CacheKey{
		Source:      m.Filename,
		Size:        m.FileSize,
		Fingerprint: m.Fingerprint,
		NVariants:   m.NVariants,
		Version:     m.FormatVersion,
	}
}

// VariantIndex conforms to the rows of the "Variant" table. Allele1 is the
// coded allele.
type VariantIndex struct {
	Chromosome string `db:"chromosome"`
	Position   uint32 `db:"position"`
	RSID       string `db:"rsid"`
	Allele1    string `db:"allele1"`
	Allele2    string `db:"allele2"`
	Ordinal    uint32 `db:"ordinal"`
}

func (vi VariantIndex) entry() IndexEntry {
	return IndexEntry{
		Ordinal:     vi.Ordinal,
		Variant:     NewVariant(vi.RSID, vi.Chromosome, vi.Position, vi.Allele1, vi.Allele2),
		CodedAllele: vi.Allele1,
	}
}

// SQLiteBuilder stores the locus index as a SQLite database next to the .bim
// file (or in Dir), with a B-tree over (chromosome, position).
type SQLiteBuilder struct {
	Dir    string
	Logger *zap.Logger
}

func (b *SQLiteBuilder) path(key CacheKey) string {
	return artifactPath(key.Source, b.Dir, SQLiteIndexSuffix)
}

func (b *SQLiteBuilder) Open(key CacheKey) (LocusQuerier, error) {
	logger := nopIfNil(b.Logger)
	path := b.path(key)
	if !fileExists(path) {
		return nil, nil
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("opening index %s: %w", path, err))
	}

	meta := IndexMetadata{}
	if err := db.Get(&meta, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		db.Close()
		logger.Warn("discarding unreadable locus index", zap.String("path", path), zap.Error(err))
		return nil, nil
	}

	if !meta.cacheKey().Matches(key) {
		db.Close()
		logger.Info("discarding stale locus index",
			zap.String("path", path),
			zap.String("indexed_fingerprint", meta.Fingerprint),
			zap.String("fingerprint", key.Fingerprint))
		return nil, nil
	}

	return &sqliteQuerier{db: db, path: path}, nil
}

// Build writes the database to a temporary file and renames it into place
// once complete, so an interrupted build never leaves a partial index.
func (b *SQLiteBuilder) Build(key CacheKey, records []IndexRecord) (LocusQuerier, error) {
	path := b.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, pfx.Err(err)
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return nil, pfx.Err(err)
	}

	if err := writeSQLiteIndex(tmp, key, records); err != nil {
		os.Remove(tmp)
		return nil, pfx.Err(fmt.Errorf("building index %s: %w", path, err))
	}

	if err := os.Rename(tmp, path); err != nil {
		return nil, pfx.Err(err)
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("opening index %s: %w", path, err))
	}

	return &sqliteQuerier{db: db, path: path}, nil
}

func writeSQLiteIndex(path string, key CacheKey, records []IndexRecord) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert, err := tx.Preparex(`INSERT INTO Variant (chromosome, position, rsid, allele1, allele2, ordinal) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for _, r := range records {
		if _, err := insert.Exec(
			r.Variant.Locus.Chromosome,
			r.Variant.Locus.Position,
			r.Variant.Name,
			r.CodedAllele,
			r.otherAllele(),
			r.Ordinal,
		); err != nil {
			return fmt.Errorf("inserting record %d: %w", r.Ordinal, err)
		}
	}

	if _, err := tx.Exec(sqliteLocusIndex); err != nil {
		return err
	}

	meta := IndexMetadata{
		Filename:          key.Source,
		FileSize:          key.Size,
		Fingerprint:       key.Fingerprint,
		NVariants:         key.NVariants,
		FormatVersion:     key.Version,
		IndexCreationTime: Time(time.Now()),
	}
	if _, err := tx.NamedExec(`INSERT INTO Metadata (filename, file_size, fingerprint, n_variants, format_version, index_creation_time)
		VALUES (:filename, :file_size, :fingerprint, :n_variants, :format_version, :index_creation_time)`, meta); err != nil {
		return err
	}

	return tx.Commit()
}

type sqliteQuerier struct {
	db   *sqlx.DB
	path string
}

func (q *sqliteQuerier) Query(chrom string, start, end uint32) ([]IndexEntry, error) {
	rows := []VariantIndex{}
	err := q.db.Select(&rows, `SELECT chromosome, position, rsid, allele1, allele2, ordinal
		FROM Variant
		WHERE chromosome = ? AND position BETWEEN ? AND ?
		ORDER BY position ASC, ordinal ASC`, chrom, start, end)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("querying %s for %s:%d-%d: %w", q.path, chrom, start, end, err))
	}

	entries := make([]IndexEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.entry()
	}

	return entries, nil
}

func (q *sqliteQuerier) Close() error {
	return q.db.Close()
}
