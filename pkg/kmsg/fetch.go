package kmsg

import "github.com/ashutoshpw/kbroker/pkg/kbin"

// FetchRequestPartition is one partition entry of a FetchRequestTopic.
type FetchRequestPartition struct {
	Partition          int32
	CurrentLeaderEpoch int32
	FetchOffset        int64
	LastFetchedEpoch   int32
	LogStartOffset     int64
	PartitionMaxBytes  int32
}

// FetchRequestTopic is one element of the request's topics array.
type FetchRequestTopic struct {
	TopicID    kbin.UUID
	Partitions []FetchRequestPartition
}

// FetchRequestForgottenTopic is one element of the request's
// forgotten_topics array.
type FetchRequestForgottenTopic struct {
	TopicID    kbin.UUID
	Partitions int32
}

// FetchRequest is the v16 request body.
type FetchRequest struct {
	MaxWaitMs       int32
	MinBytes        int32
	MaxBytes        int32
	IsolationLevel  int8
	SessionID       int32
	SessionEpoch    int32
	Topics          []FetchRequestTopic
	ForgottenTopics []FetchRequestForgottenTopic
	RackID          string
}

func (*FetchRequest) Key() int16 { return Fetch }

func (r *FetchRequest) ReadFrom(src []byte) error {
	b := kbin.NewReader(src)
	r.MaxWaitMs = b.Int32()
	r.MinBytes = b.Int32()
	r.MaxBytes = b.Int32()
	r.IsolationLevel = b.Int8()
	r.SessionID = b.Int32()
	r.SessionEpoch = b.Int32()

	if n := b.CompactArrayLen(); n > 0 {
		r.Topics = make([]FetchRequestTopic, n)
		for i := range r.Topics {
			t := &r.Topics[i]
			t.TopicID = b.UUID()
			if pn := b.CompactArrayLen(); pn > 0 {
				t.Partitions = make([]FetchRequestPartition, pn)
				for j := range t.Partitions {
					p := &t.Partitions[j]
					p.Partition = b.Int32()
					p.CurrentLeaderEpoch = b.Int32()
					p.FetchOffset = b.Int64()
					p.LastFetchedEpoch = b.Int32()
					p.LogStartOffset = b.Int64()
					p.PartitionMaxBytes = b.Int32()
				}
			}
			b.TagBuffer()
		}
	}

	if n := b.CompactArrayLen(); n > 0 {
		r.ForgottenTopics = make([]FetchRequestForgottenTopic, n)
		for i := range r.ForgottenTopics {
			r.ForgottenTopics[i].TopicID = b.UUID()
			r.ForgottenTopics[i].Partitions = b.Int32()
		}
	}

	r.RackID = b.CompactString()
	b.TagBuffer()
	return b.Complete()
}

// AbortedTransaction is one entry of a FetchPartition's aborted_transactions
// array. This core never produces a non-empty list (there is no producer
// path) but the type round-trips for completeness.
type AbortedTransaction struct {
	ProducerID  int64
	FirstOffset int64
}

// FetchResponsePartition is one partition entry of a FetchResponseTopic.
type FetchResponsePartition struct {
	PartitionIndex       int32
	ErrorCode            int16
	HighWatermark        int64
	LastStableOffset     int64
	LogStartOffset       int64
	AbortedTransactions  []AbortedTransaction
	PreferredReadReplica int32
	Records              []byte
}

// FetchResponseTopic is one element of the response's responses array.
type FetchResponseTopic struct {
	TopicID    kbin.UUID
	Partitions []FetchResponsePartition
}

// FetchResponse is the v16 response body.
type FetchResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	SessionID      int32
	Responses      []FetchResponseTopic
}

func (*FetchResponse) Key() int16 { return Fetch }

func (r *FetchResponse) AppendTo(dst []byte) []byte {
	dst = kbin.AppendInt32(dst, r.ThrottleTimeMs)
	dst = kbin.AppendInt16(dst, r.ErrorCode)
	dst = kbin.AppendInt32(dst, r.SessionID)
	dst = kbin.AppendCompactArrayLen(dst, len(r.Responses))
	for _, t := range r.Responses {
		dst = kbin.AppendUUID(dst, t.TopicID)
		dst = kbin.AppendCompactArrayLen(dst, len(t.Partitions))
		for _, p := range t.Partitions {
			dst = kbin.AppendInt32(dst, p.PartitionIndex)
			dst = kbin.AppendInt16(dst, p.ErrorCode)
			dst = kbin.AppendInt64(dst, p.HighWatermark)
			dst = kbin.AppendInt64(dst, p.LastStableOffset)
			dst = kbin.AppendInt64(dst, p.LogStartOffset)
			dst = kbin.AppendCompactArrayLen(dst, len(p.AbortedTransactions))
			for _, at := range p.AbortedTransactions {
				dst = kbin.AppendInt64(dst, at.ProducerID)
				dst = kbin.AppendInt64(dst, at.FirstOffset)
				dst = kbin.AppendTagBuffer(dst)
			}
			dst = kbin.AppendInt32(dst, p.PreferredReadReplica)
			dst = kbin.AppendUvarint(dst, uint32(len(p.Records))+1)
			dst = append(dst, p.Records...)
			dst = kbin.AppendTagBuffer(dst)
		}
		dst = kbin.AppendTagBuffer(dst)
	}
	dst = kbin.AppendTagBuffer(dst)
	return dst
}

func (r *FetchResponse) ReadFrom(src []byte) error {
	b := kbin.NewReader(src)
	r.ThrottleTimeMs = b.Int32()
	r.ErrorCode = b.Int16()
	r.SessionID = b.Int32()
	if n := b.CompactArrayLen(); n > 0 {
		r.Responses = make([]FetchResponseTopic, n)
		for i := range r.Responses {
			t := &r.Responses[i]
			t.TopicID = b.UUID()
			if pn := b.CompactArrayLen(); pn > 0 {
				t.Partitions = make([]FetchResponsePartition, pn)
				for j := range t.Partitions {
					p := &t.Partitions[j]
					p.PartitionIndex = b.Int32()
					p.ErrorCode = b.Int16()
					p.HighWatermark = b.Int64()
					p.LastStableOffset = b.Int64()
					p.LogStartOffset = b.Int64()
					if an := b.CompactArrayLen(); an > 0 {
						p.AbortedTransactions = make([]AbortedTransaction, an)
						for k := range p.AbortedTransactions {
							p.AbortedTransactions[k].ProducerID = b.Int64()
							p.AbortedTransactions[k].FirstOffset = b.Int64()
							b.TagBuffer()
						}
					}
					p.PreferredReadReplica = b.Int32()
					rn := b.Uvarint()
					if rn > 0 {
						p.Records = b.Span(int(rn - 1))
					}
					b.TagBuffer()
				}
			}
			b.TagBuffer()
		}
	}
	b.TagBuffer()
	return b.Complete()
}
