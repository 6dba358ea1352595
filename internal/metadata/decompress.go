package metadata

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressionCodec is the low 3 bits of a record batch's attributes field,
// Kafka's record-batch compression codec selector.
type compressionCodec int

const (
	codecNone   compressionCodec = 0
	codecGzip   compressionCodec = 1
	codecSnappy compressionCodec = 2
	codecLZ4    compressionCodec = 3
	codecZstd   compressionCodec = 4
)

// decompressRecords expands a batch's records region according to its
// codec. codecNone returns src unchanged. codecSnappy has no decoder
// available in this build and returns ErrUnknownCompressionCodec; callers
// treat that as "leave this batch's records unindexed", not fatal.
func decompressRecords(codec compressionCodec, src []byte) ([]byte, error) {
	switch codec {
	case codecNone:
		return src, nil
	case codecGzip:
		zr, err := gzip.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case codecLZ4:
		zr := lz4.NewReader(bytes.NewReader(src))
		return io.ReadAll(zr)
	case codecZstd:
		zr, err := zstd.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case codecSnappy:
		return nil, &ErrUnknownCompressionCodec{Codec: int(codec)}
	default:
		return nil, &ErrUnknownCompressionCodec{Codec: int(codec)}
	}
}
