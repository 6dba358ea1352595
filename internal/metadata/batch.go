package metadata

import (
	"hash/crc32"

	"github.com/ashutoshpw/kbroker/pkg/kbin"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// Batch is one CRC-framed record batch from the KRaft metadata log.
type Batch struct {
	BaseOffset           int64
	PartitionLeaderEpoch int32
	Magic                uint8
	CRC                  uint32
	Attributes           uint16
	LastOffsetDelta      int32
	BaseTimestamp        int64
	MaxTimestamp         int64
	ProducerID           int64
	ProducerEpoch        int16
	BaseSequence         int32
	Records              []Record
}

// decodeBatch reads one batch starting at a base_offset/batch_length pair
// already known to fit in src. payload is exactly batch_length bytes: the
// region from partition_leader_epoch through the end of records.
func decodeBatch(baseOffset int64, payload []byte) (Batch, error) {
	if len(payload) < 9 {
		return Batch{}, ErrTruncatedBatch
	}

	b := Batch{BaseOffset: baseOffset}
	b.PartitionLeaderEpoch = kbin.NewReader(payload[0:4]).Int32()
	b.Magic = payload[4]
	b.CRC = kbin.NewReader(payload[5:9]).Uint32()

	checksummed := payload[9:]
	got := crc32.Checksum(checksummed, castagnoliTable)
	if got != b.CRC {
		return Batch{}, &ErrCorruptBatch{Expected: b.CRC, Got: got}
	}

	r := kbin.NewReader(checksummed)
	b.Attributes = r.Uint16()
	b.LastOffsetDelta = r.Int32()
	b.BaseTimestamp = r.Int64()
	b.MaxTimestamp = r.Int64()
	b.ProducerID = r.Int64()
	b.ProducerEpoch = r.Int16()
	b.BaseSequence = r.Int32()
	recordsCount := r.Int32()
	if err := r.Err(); err != nil {
		return Batch{}, err
	}
	if recordsCount < 0 {
		return Batch{}, ErrTruncatedBatch
	}

	recordsBlob, err := decompressRecords(compressionCodec(b.Attributes&0x07), r.Span(r.Remaining()))
	if err != nil {
		// Unsupported codec: keep the batch's header but leave its
		// records unindexed rather than failing the whole log.
		return b, err
	}

	rr := kbin.NewReader(recordsBlob)
	b.Records = make([]Record, 0, recordsCount)
	for i := int32(0); i < recordsCount; i++ {
		rec, err := decodeRecord(rr)
		if err != nil {
			return Batch{}, err
		}
		b.Records = append(b.Records, rec)
	}

	return b, nil
}
