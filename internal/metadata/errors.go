package metadata

import (
	"errors"
	"fmt"
)

// ErrTruncatedBatch is returned when the metadata log ends in the middle of
// a batch rather than cleanly at a batch boundary.
var ErrTruncatedBatch = errors.New("metadata: truncated batch")

// ErrCorruptBatch is returned when a batch's stored CRC does not match the
// CRC32C computed over its attributes-through-records region.
type ErrCorruptBatch struct {
	Expected uint32
	Got      uint32
}

func (e *ErrCorruptBatch) Error() string {
	return fmt.Sprintf("metadata: corrupt batch: expected crc %d, got %d", e.Expected, e.Got)
}

// ErrUnknownCompressionCodec is returned when a batch's attributes field
// names a compression codec this build cannot decode (currently: snappy).
type ErrUnknownCompressionCodec struct {
	Codec int
}

func (e *ErrUnknownCompressionCodec) Error() string {
	return fmt.Sprintf("metadata: unsupported compression codec %d", e.Codec)
}
