package plink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

const gcsScheme = "gs://"

// byteSource is a random-access view of a BED file.
type byteSource interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

type fileSource struct {
	*os.File
	size int64
}

func (f *fileSource) Size() int64 { return f.size }

// gcsSource serves ReadAt calls with ranged object reads, so a chunk lookup
// fetches only the bytes of that chunk.
type gcsSource struct {
	ctx  context.Context
	obj  *storage.ObjectHandle
	size int64
}

func (g *gcsSource) Size() int64 { return g.size }

func (g *gcsSource) Close() error { return nil }

func (g *gcsSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= g.size {
		return 0, io.EOF
	}

	length := int64(len(p))
	if off+length > g.size {
		length = g.size - off
	}

	r, err := g.obj.NewRangeReader(g.ctx, off, length)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, p[:length])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func isGCSPath(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

func parseGCSPath(path string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(path, gcsScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%q is not a gs://bucket/object path", path)
	}

	return parts[0], parts[1], nil
}

// opener resolves local and gs:// paths. A storage client is created on first
// use unless one was supplied.
type opener struct {
	ctx        context.Context
	client     *storage.Client
	ownsClient bool
}

func (o *opener) storageClient() (*storage.Client, error) {
	if o.client != nil {
		return o.client, nil
	}

	client, err := storage.NewClient(o.ctx)
	if err != nil {
		return nil, pfx.Err(err)
	}
	o.client = client
	o.ownsClient = true

	return client, nil
}

func (o *opener) object(path string) (*storage.ObjectHandle, error) {
	bucket, object, err := parseGCSPath(path)
	if err != nil {
		return nil, err
	}

	client, err := o.storageClient()
	if err != nil {
		return nil, err
	}

	return client.Bucket(bucket).Object(object), nil
}

func (o *opener) openStream(path string) (io.ReadCloser, error) {
	if !isGCSPath(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return f, nil
	}

	obj, err := o.object(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	r, err := obj.NewReader(o.ctx)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("opening %s: %w", path, err))
	}

	return r, nil
}

func (o *opener) openReaderAt(path string) (byteSource, error) {
	if !isGCSPath(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, pfx.Err(err)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, pfx.Err(err)
		}

		return &fileSource{File: f, size: info.Size()}, nil
	}

	obj, err := o.object(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	attrs, err := obj.Attrs(o.ctx)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("opening %s: %w", path, err))
	}

	return &gcsSource{ctx: o.ctx, obj: obj, size: attrs.Size}, nil
}

func (o *opener) Close() error {
	if o.ownsClient && o.client != nil {
		return o.client.Close()
	}
	return nil
}
