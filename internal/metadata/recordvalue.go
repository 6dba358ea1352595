package metadata

import "github.com/ashutoshpw/kbroker/pkg/kbin"

// Record types carried inside a RecordValue's payload, per the KRaft
// metadata record schema. Only these three are modeled; anything else is
// kept as opaque bytes.
const (
	recordTypeTopic     int8 = 2
	recordTypePartition int8 = 3
	recordTypeFeature   int8 = 12
)

// FeatureRecordValue is record_type 12.
type FeatureRecordValue struct {
	Name         string
	FeatureLevel int16
}

// TopicRecordValue is record_type 2.
type TopicRecordValue struct {
	Name      string
	TopicUUID kbin.UUID
}

// PartitionRecordValue is record_type 3.
type PartitionRecordValue struct {
	PartitionID    int32
	TopicUUID      kbin.UUID
	Replicas       []int32
	ISR            []int32
	Removing       []int32
	Adding         []int32
	Leader         int32
	LeaderEpoch    int32
	PartitionEpoch int32
	Directories    []kbin.UUID
}

// RecordValue is the decoded payload of a Record's value bytes: a small
// versioned frame followed by a type-tagged body.
type RecordValue struct {
	FrameVersion int8
	RecordType   int8
	Version      int8

	Feature   *FeatureRecordValue
	Topic     *TopicRecordValue
	Partition *PartitionRecordValue

	// Opaque holds the raw body bytes when RecordType is none of the
	// above; such records are preserved but never surfaced by the index.
	Opaque []byte
}

func decodeRecordValue(b *kbin.Reader) (RecordValue, error) {
	var rv RecordValue
	rv.FrameVersion = b.Int8()
	rv.RecordType = b.Int8()
	rv.Version = b.Int8()

	switch rv.RecordType {
	case recordTypeFeature:
		f := &FeatureRecordValue{}
		f.Name = b.CompactString()
		f.FeatureLevel = b.Int16()
		b.Uvarint() // tagged-fields count; this core has none to read
		rv.Feature = f
	case recordTypeTopic:
		t := &TopicRecordValue{}
		t.Name = b.CompactString()
		t.TopicUUID = b.UUID()
		b.Uvarint()
		rv.Topic = t
	case recordTypePartition:
		p := &PartitionRecordValue{}
		p.PartitionID = b.Int32()
		p.TopicUUID = b.UUID()
		p.Replicas = b.CompactInt32Array()
		p.ISR = b.CompactInt32Array()
		p.Removing = b.CompactInt32Array()
		p.Adding = b.CompactInt32Array()
		p.Leader = b.Int32()
		p.LeaderEpoch = b.Int32()
		p.PartitionEpoch = b.Int32()
		dirCount := b.Uvarint()
		if dirCount > 0 {
			p.Directories = make([]kbin.UUID, dirCount-1)
			for i := range p.Directories {
				p.Directories[i] = b.UUID()
			}
		}
		b.Uvarint()
		rv.Partition = p
	default:
		rv.Opaque = b.Span(b.Remaining())
	}

	return rv, b.Err()
}
