package metadata

import "github.com/ashutoshpw/kbroker/pkg/kbin"

// Record is one entry of a Batch's records array.
type Record struct {
	Attributes     int8
	TimestampDelta int32
	OffsetDelta    int32
	Key            []byte
	Value          RecordValue
	HeadersCount   uint32
}

func decodeRecord(b *kbin.Reader) (Record, error) {
	var rec Record

	b.Varint() // record_length: not used to bound decoding, per upstream
	rec.Attributes = b.Int8()
	rec.TimestampDelta = b.Varint()
	rec.OffsetDelta = b.Varint()

	keyLen := b.Varint()
	if keyLen >= 0 {
		rec.Key = b.Span(int(keyLen))
	}

	valueLen := b.Varint()
	if valueLen >= 0 {
		valueBytes := b.Span(int(valueLen))
		if b.Err() != nil {
			return rec, b.Err()
		}
		vr := kbin.NewReader(valueBytes)
		rv, err := decodeRecordValue(vr)
		if err != nil {
			return rec, err
		}
		rec.Value = rv
	}

	rec.HeadersCount = b.Uvarint()

	return rec, b.Err()
}
