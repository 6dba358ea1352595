package kmsg

import "github.com/ashutoshpw/kbroker/pkg/kbin"

// NoCursor is the sentinel byte meaning "no pagination cursor", used for
// both the request's cursor field and the response's next_cursor field.
// This core never produces pagination, so every response carries it.
const NoCursor uint8 = 0xFF

// DescribeTopicPartitionsRequestTopic is one element of the request's
// topics array.
type DescribeTopicPartitionsRequestTopic struct {
	Name string
}

// DescribeTopicPartitionsRequest is the v0 request body.
type DescribeTopicPartitionsRequest struct {
	Topics                 []DescribeTopicPartitionsRequestTopic
	ResponsePartitionLimit int32
	Cursor                 uint8
}

func (*DescribeTopicPartitionsRequest) Key() int16 { return DescribeTopicPartitions }

func (r *DescribeTopicPartitionsRequest) ReadFrom(src []byte) error {
	b := kbin.NewReader(src)
	n := b.CompactArrayLen()
	if n > 0 {
		r.Topics = make([]DescribeTopicPartitionsRequestTopic, n)
		for i := range r.Topics {
			r.Topics[i].Name = b.CompactString()
			b.TagBuffer()
		}
	}
	r.ResponsePartitionLimit = b.Int32()
	r.Cursor = b.Uint8()
	b.TagBuffer()
	return b.Complete()
}

// PartitionResult is one partition entry of a DescribeTopicPartitions
// TopicResult.
type PartitionResult struct {
	ErrorCode              int16
	PartitionIndex         int32
	Leader                 int32
	LeaderEpoch            int32
	Replicas               []int32
	ISR                    []int32
	EligibleLeaderReplicas int32
}

// TopicResult is one element of the DescribeTopicPartitionsResponse's
// topics array.
type TopicResult struct {
	ErrorCode            int16
	Name                 string
	ID                   kbin.UUID
	IsInternal           uint8
	Partitions           []PartitionResult
	AuthorizedOperations uint32
}

// DescribeTopicPartitionsResponse is the v0 response body.
type DescribeTopicPartitionsResponse struct {
	ThrottleTimeMs int32
	Topics         []TopicResult
	NextCursor     uint8
}

func (*DescribeTopicPartitionsResponse) Key() int16 { return DescribeTopicPartitions }

func (r *DescribeTopicPartitionsResponse) AppendTo(dst []byte) []byte {
	dst = kbin.AppendInt32(dst, r.ThrottleTimeMs)
	dst = kbin.AppendCompactArrayLen(dst, len(r.Topics))
	for _, t := range r.Topics {
		dst = kbin.AppendInt16(dst, t.ErrorCode)
		dst = kbin.AppendCompactString(dst, t.Name)
		dst = kbin.AppendUUID(dst, t.ID)
		dst = kbin.AppendUint8(dst, t.IsInternal)
		dst = kbin.AppendCompactArrayLen(dst, len(t.Partitions))
		for _, p := range t.Partitions {
			dst = kbin.AppendInt16(dst, p.ErrorCode)
			dst = kbin.AppendInt32(dst, p.PartitionIndex)
			dst = kbin.AppendInt32(dst, p.Leader)
			dst = kbin.AppendInt32(dst, p.LeaderEpoch)
			dst = kbin.AppendCompactInt32Array(dst, p.Replicas)
			dst = kbin.AppendCompactInt32Array(dst, p.ISR)
			dst = kbin.AppendVarint(dst, p.EligibleLeaderReplicas)
			dst = kbin.AppendUint8(dst, 0) // last_known_elr: empty compact array
			dst = kbin.AppendUint8(dst, 0) // offline_replicas: empty compact array
			dst = kbin.AppendTagBuffer(dst)
		}
		dst = kbin.AppendUint32(dst, t.AuthorizedOperations)
		dst = kbin.AppendTagBuffer(dst)
	}
	dst = kbin.AppendUint8(dst, r.NextCursor)
	dst = kbin.AppendTagBuffer(dst)
	return dst
}

func (r *DescribeTopicPartitionsResponse) ReadFrom(src []byte) error {
	b := kbin.NewReader(src)
	r.ThrottleTimeMs = b.Int32()
	n := b.CompactArrayLen()
	if n > 0 {
		r.Topics = make([]TopicResult, n)
		for i := range r.Topics {
			t := &r.Topics[i]
			t.ErrorCode = b.Int16()
			t.Name = b.CompactString()
			t.ID = b.UUID()
			t.IsInternal = b.Uint8()
			pn := b.CompactArrayLen()
			if pn > 0 {
				t.Partitions = make([]PartitionResult, pn)
				for j := range t.Partitions {
					p := &t.Partitions[j]
					p.ErrorCode = b.Int16()
					p.PartitionIndex = b.Int32()
					p.Leader = b.Int32()
					p.LeaderEpoch = b.Int32()
					p.Replicas = b.CompactInt32Array()
					p.ISR = b.CompactInt32Array()
					p.EligibleLeaderReplicas = b.Varint()
					b.Uint8() // last_known_elr
					b.Uint8() // offline_replicas
					b.TagBuffer()
				}
			}
			t.AuthorizedOperations = b.Uint32()
			b.TagBuffer()
		}
	}
	r.NextCursor = b.Uint8()
	b.TagBuffer()
	return b.Complete()
}
