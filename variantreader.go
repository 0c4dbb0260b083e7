package plink

import (
	"fmt"
	"io"

	"github.com/carbocation/pfx"
)

// VariantReader scans a fileset in .bim order. It advances the .bim records
// and the .bed chunks in lock step and reports an ErrMisaligned error if
// either runs out before the other.
//
// The reader tracks its own .bed offset, so random access on the BED does not
// disturb a scan in progress. A VariantReader cannot be rewound; create a new
// one to scan again.
type VariantReader struct {
	VariantsSeen uint32

	b             *BED
	bim           *DelimitedReader
	stream        io.ReadCloser
	currentOffset int64
	done          bool
	err           error

	// Cached values
	buffer []byte
}

func (b *BED) NewVariantReader() *VariantReader {
	vr := &VariantReader{
		b:             b,
		currentOffset: HeaderSize,
		buffer:        make([]byte, b.ChunkSize),
	}

	stream, err := b.opener.openStream(b.bimPath)
	if err != nil {
		vr.err = pfx.Err(err)
		vr.done = true
		return vr
	}
	vr.stream = stream
	vr.bim = NewBIMReader(stream, b.bimPath)

	return vr
}

func (vr *VariantReader) Error() error {
	return vr.err
}

// Read returns the next variant's genotypes, or nil at the end of the scan
// or on error. Check Error after Read returns nil.
func (vr *VariantReader) Read() *VariantGenotype {
	if vr.done {
		return nil
	}

	ov := vr.bim.Read()
	if ov == nil {
		vr.finish()
		return nil
	}

	if err := vr.b.readChunkAt(vr.currentOffset, vr.buffer); err != nil {
		vr.fail(fmt.Errorf("%s is record %d of %s: %w", ov.Variant, vr.VariantsSeen, vr.b.bimPath, err))
		return nil
	}

	g, err := vr.b.decode(ov.Variant, vr.buffer, ov.Allele1(), vr.VariantsSeen)
	if err != nil {
		vr.fail(err)
		return nil
	}

	vr.currentOffset += int64(vr.b.ChunkSize)
	vr.VariantsSeen++

	return g
}

func (vr *VariantReader) finish() {
	if err := vr.bim.Error(); err != nil {
		vr.fail(err)
		return
	}

	if trailing := vr.b.file.Size() - vr.currentOffset; trailing != 0 {
		vr.fail(fmt.Errorf("%w: %s has %d bytes after the %d variants of %s", ErrMisaligned, vr.b.FilePath, trailing, vr.VariantsSeen, vr.b.bimPath))
		return
	}

	vr.Close()
}

func (vr *VariantReader) fail(err error) {
	vr.err = pfx.Err(err)
	vr.Close()
}

// Close releases the .bim stream. It is called automatically once the scan
// ends, and only needs to be called when abandoning a scan early.
func (vr *VariantReader) Close() error {
	vr.done = true
	if vr.stream == nil {
		return nil
	}

	err := vr.stream.Close()
	vr.stream = nil
	return err
}
