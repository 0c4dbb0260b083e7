package plink

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/carbocation/pfx"
	"go.uber.org/zap"
)

// Config is the TOML form of the options that select and place the locus
// index. An empty Config yields the defaults.
//
//	index_dir = "/scratch/plink-index"
//	builder = "tabix"
//	bgzip = "/opt/htslib/bin/bgzip"
//	tabix = "/opt/htslib/bin/tabix"
type Config struct {
	IndexDir string `toml:"index_dir"`

	// Builder is one of "sqlite" (the default), "tabix" or "memory".
	Builder string `toml:"builder"`

	Bgzip string `toml:"bgzip"`
	Tabix string `toml:"tabix"`
}

func LoadConfig(path string) (Config, error) {
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, pfx.Err(fmt.Errorf("reading config %s: %w", path, err))
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, pfx.Err(fmt.Errorf("config %s: unknown key %s", path, undecoded[0]))
	}

	return c, nil
}

// Options converts the configuration into Open options. The logger is handed
// to the builder, which is constructed here.
func (c Config) Options(logger *zap.Logger) ([]Option, error) {
	logger = nopIfNil(logger)

	var builder IndexBuilder
	switch c.Builder {
	case "", "sqlite":
		builder = &SQLiteBuilder{Dir: c.IndexDir, Logger: logger}
	case "tabix":
		builder = &TabixBuilder{Dir: c.IndexDir, Bgzip: c.Bgzip, Tabix: c.Tabix, Logger: logger}
	case "memory":
		builder = MemoryBuilder{}
	default:
		return nil, pfx.Err(fmt.Errorf("unknown index builder %q", c.Builder))
	}

	return []Option{
		WithLogger(logger),
		WithIndexDir(c.IndexDir),
		WithIndexBuilder(builder),
	}, nil
}
