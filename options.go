package plink

import (
	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

type options struct {
	builder  IndexBuilder
	logger   *zap.Logger
	client   *storage.Client
	indexDir string
}

// Option configures Open and OpenLocusIndex.
type Option func(*options)

// WithIndexBuilder selects how the locus index artifact is built and stored.
// The default is a SQLiteBuilder.
func WithIndexBuilder(b IndexBuilder) Option {
	return func(o *options) { o.builder = b }
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStorageClient supplies the client used for gs:// paths. Without one, a
// client with default credentials is created when first needed.
func WithStorageClient(c *storage.Client) Option {
	return func(o *options) { o.client = c }
}

// WithIndexDir places the default builder's artifacts in dir rather than
// beside the .bim file.
func WithIndexDir(dir string) Option {
	return func(o *options) { o.indexDir = dir }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.builder == nil {
		o.builder = &SQLiteBuilder{Dir: o.indexDir, Logger: o.logger}
	}

	return o
}
