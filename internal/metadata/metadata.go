// Package metadata parses the KRaft combined-metadata log into an
// in-memory, queryable index of feature/topic/partition records. Partition
// log segments for the Fetch path are read by internal/handler, not here.
package metadata

import (
	"errors"
	"io"
	"sort"

	"github.com/ashutoshpw/kbroker/pkg/kbin"
)

// ClusterMetadata is the parsed, immutable index built once at server
// startup from the metadata log. It is safe for concurrent reads from any
// number of goroutines; nothing mutates it after Parse returns.
type ClusterMetadata struct {
	batches    map[int64]*Batch
	offsetsAsc []int64
}

// Offsets returns the batches' base offsets in ascending order.
func (m *ClusterMetadata) Offsets() []int64 {
	return m.offsetsAsc
}

// Batch returns the batch at the given base offset, or nil if absent.
func (m *ClusterMetadata) Batch(baseOffset int64) *Batch {
	return m.batches[baseOffset]
}

// FindTopicRecordsByName returns every topic record whose name matches.
func (m *ClusterMetadata) FindTopicRecordsByName(name string) []*Record {
	var out []*Record
	for _, offset := range m.offsetsAsc {
		for i := range m.batches[offset].Records {
			rec := &m.batches[offset].Records[i]
			if rec.Value.Topic != nil && rec.Value.Topic.Name == name {
				out = append(out, rec)
			}
		}
	}
	return out
}

// FindTopicRecordsByID returns every topic record whose UUID matches.
func (m *ClusterMetadata) FindTopicRecordsByID(id kbin.UUID) []*Record {
	var out []*Record
	for _, offset := range m.offsetsAsc {
		for i := range m.batches[offset].Records {
			rec := &m.batches[offset].Records[i]
			if rec.Value.Topic != nil && rec.Value.Topic.TopicUUID == id {
				out = append(out, rec)
			}
		}
	}
	return out
}

// FindPartitionRecordsByTopicUUID returns every partition record belonging
// to the given topic UUID.
func (m *ClusterMetadata) FindPartitionRecordsByTopicUUID(id kbin.UUID) []*PartitionRecordValue {
	var out []*PartitionRecordValue
	for _, offset := range m.offsetsAsc {
		for i := range m.batches[offset].Records {
			rec := &m.batches[offset].Records[i]
			if rec.Value.Partition != nil && rec.Value.Partition.TopicUUID == id {
				out = append(out, rec.Value.Partition)
			}
		}
	}
	return out
}

// FindPartitionRecordIDsByTopicUUID returns the partition ids belonging to
// the given topic UUID, in the order their records appear in the log.
func (m *ClusterMetadata) FindPartitionRecordIDsByTopicUUID(id kbin.UUID) []int32 {
	var out []int32
	for _, p := range m.FindPartitionRecordsByTopicUUID(id) {
		out = append(out, p.PartitionID)
	}
	return out
}

// logWarner receives diagnostics for non-fatal parse conditions (currently:
// a batch whose compression codec this build cannot decode). It is a
// narrow interface so this package does not depend on pkg/logger's
// concrete type.
type logWarner interface {
	Warn(format string, args ...interface{})
}

// Parse reads r to completion and builds a ClusterMetadata index from its
// concatenated record batches. log may be nil; when non-nil it receives a
// warning for each batch whose records could not be decoded due to an
// unsupported compression codec. A clean EOF at a batch boundary is
// success; anything else mid-batch is an error and the whole parse fails,
// since this is a startup-fatal operation.
func Parse(r io.Reader, log logWarner) (*ClusterMetadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m := &ClusterMetadata{batches: make(map[int64]*Batch)}

	pos := 0
	for pos < len(data) {
		if len(data)-pos < 12 {
			return nil, ErrTruncatedBatch
		}
		baseOffset := kbin.NewReader(data[pos : pos+8]).Int64()
		batchLength := kbin.NewReader(data[pos+8 : pos+12]).Int32()
		if batchLength < 0 {
			return nil, ErrTruncatedBatch
		}
		payloadStart := pos + 12
		payloadEnd := payloadStart + int(batchLength)
		if payloadEnd > len(data) {
			return nil, ErrTruncatedBatch
		}

		batch, err := decodeBatch(baseOffset, data[payloadStart:payloadEnd])
		if err != nil {
			var unsupported *ErrUnknownCompressionCodec
			if errors.As(err, &unsupported) {
				if log != nil {
					log.Warn("metadata: batch at offset %d uses unsupported codec %d, records not indexed", baseOffset, unsupported.Codec)
				}
			} else {
				return nil, err
			}
		}

		b := batch
		m.batches[baseOffset] = &b
		pos = payloadEnd
	}

	m.offsetsAsc = make([]int64, 0, len(m.batches))
	for offset := range m.batches {
		m.offsetsAsc = append(m.offsetsAsc, offset)
	}
	sort.Slice(m.offsetsAsc, func(i, j int) bool { return m.offsetsAsc[i] < m.offsetsAsc[j] })

	return m, nil
}
