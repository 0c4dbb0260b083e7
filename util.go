package plink

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// WhichSQLiteDriver names the database/sql driver used by SQLiteBuilder.
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}

// artifactPath derives the location of an index artifact from the .bim path:
// the .bim extension is replaced by suffix. Artifacts for gs:// sources, or
// any source when dir is set, are placed in dir.
func artifactPath(bimPath, dir, suffix string) string {
	base := strings.TrimSuffix(bimPath, ".bim") + suffix

	if isGCSPath(base) {
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "plink-index")
		}
		flat := strings.ReplaceAll(strings.TrimPrefix(base, gcsScheme), "/", "_")
		return filepath.Join(dir, flat)
	}

	if dir != "" {
		return filepath.Join(dir, filepath.Base(base))
	}

	return base
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
