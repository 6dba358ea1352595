// Package handler builds the response for a decoded request. Handle is a
// pure function of (request, metadata index) — deliberately free of
// sockets or I/O beyond the one partition-log read Fetch needs — so it is
// trivially unit-testable, the same shape the example corpus's own
// kafka-handler packages use (handler.New(cfg, topicMgr), h.handleXxx).
package handler

import (
	"os"

	"github.com/ashutoshpw/kbroker/internal/config"
	"github.com/ashutoshpw/kbroker/internal/metadata"
	"github.com/ashutoshpw/kbroker/pkg/kmsg"
	"github.com/ashutoshpw/kbroker/pkg/logger"
)

// advertisedAPIVersions is the fixed set of (key, min, max) this broker
// advertises to a compatible client.
var advertisedAPIVersions = []kmsg.SupportedAPIVersion{
	{APIKey: kmsg.ApiVersions, MinVersion: 0, MaxVersion: 4},
	{APIKey: kmsg.DescribeTopicPartitions, MinVersion: 0, MaxVersion: 0},
	{APIKey: kmsg.Fetch, MinVersion: 4, MaxVersion: 16},
}

// Handler builds responses from decoded requests against a shared,
// immutable metadata index.
type Handler struct {
	cfg   config.Config
	index *metadata.ClusterMetadata
	log   *logger.Logger
}

// New creates a Handler over the given metadata index.
func New(cfg config.Config, index *metadata.ClusterMetadata, log *logger.Logger) *Handler {
	return &Handler{cfg: cfg, index: index, log: log}
}

// Handle dispatches a decoded request to the matching per-API builder and
// returns the header kind (v0 or v1) and response body to frame and write.
func (h *Handler) Handle(req *kmsg.DecodedRequest) (headerVersion int, resp kmsg.Response) {
	switch body := req.Body.(type) {
	case *kmsg.ApiVersionsRequest:
		return 0, h.handleApiVersions(req.Header, body)
	case *kmsg.DescribeTopicPartitionsRequest:
		return 1, h.handleDescribeTopicPartitions(req.Header, body)
	case *kmsg.FetchRequest:
		return 1, h.handleFetch(req.Header, body)
	default:
		// Decode already rejects unknown API keys, so this is unreachable
		// for any request that made it through kmsg.Decode.
		return 0, &kmsg.ApiVersionsResponse{ErrorCode: kmsg.ErrCodeUnknownServerError}
	}
}

func (h *Handler) handleApiVersions(hdr kmsg.RequestHeader, _ *kmsg.ApiVersionsRequest) *kmsg.ApiVersionsResponse {
	if hdr.APIVersion < 0 || hdr.APIVersion > 4 {
		return &kmsg.ApiVersionsResponse{ErrorCode: kmsg.ErrCodeUnsupportedVersion}
	}
	return &kmsg.ApiVersionsResponse{
		ErrorCode:   kmsg.ErrCodeNone,
		APIVersions: advertisedAPIVersions,
	}
}

func (h *Handler) handleDescribeTopicPartitions(_ kmsg.RequestHeader, req *kmsg.DescribeTopicPartitionsRequest) *kmsg.DescribeTopicPartitionsResponse {
	resp := &kmsg.DescribeTopicPartitionsResponse{NextCursor: kmsg.NoCursor}

	for _, t := range req.Topics {
		topicRecs := h.index.FindTopicRecordsByName(t.Name)
		if len(topicRecs) == 0 {
			resp.Topics = append(resp.Topics, kmsg.TopicResult{
				ErrorCode: kmsg.ErrCodeUnknownTopicOrPartition,
				Name:      t.Name,
			})
			continue
		}

		topicID := topicRecs[0].Value.Topic.TopicUUID
		partRecs := h.index.FindPartitionRecordsByTopicUUID(topicID)

		tr := kmsg.TopicResult{
			ErrorCode: kmsg.ErrCodeNone,
			Name:      t.Name,
			ID:        topicID,
		}
		for _, p := range partRecs {
			tr.Partitions = append(tr.Partitions, kmsg.PartitionResult{
				ErrorCode:      kmsg.ErrCodeNone,
				PartitionIndex: p.PartitionID,
				Leader:         p.Leader,
				LeaderEpoch:    p.LeaderEpoch,
				Replicas:       p.Replicas,
				ISR:            p.ISR,
			})
		}
		resp.Topics = append(resp.Topics, tr)
	}

	return resp
}

func (h *Handler) handleFetch(_ kmsg.RequestHeader, req *kmsg.FetchRequest) *kmsg.FetchResponse {
	resp := &kmsg.FetchResponse{}

	if len(req.Topics) == 0 {
		return resp
	}

	topic := req.Topics[0]
	if topic.TopicID.IsNil() {
		return resp
	}

	topicRecs := h.index.FindTopicRecordsByID(topic.TopicID)
	if len(topicRecs) == 0 {
		resp.Responses = []kmsg.FetchResponseTopic{{
			TopicID: topic.TopicID,
			Partitions: []kmsg.FetchResponsePartition{
				{ErrorCode: kmsg.ErrCodeUnknownTopic},
			},
		}}
		return resp
	}

	topicName := topicRecs[0].Value.Topic.Name
	if topicName == "" {
		resp.Responses = []kmsg.FetchResponseTopic{{
			TopicID:    topic.TopicID,
			Partitions: []kmsg.FetchResponsePartition{{ErrorCode: kmsg.ErrCodeNone}},
		}}
		return resp
	}

	partitionIDs := h.index.FindPartitionRecordIDsByTopicUUID(topic.TopicID)
	partitionID := int32(0)
	if len(partitionIDs) > 0 {
		partitionID = partitionIDs[0]
	}

	records := h.readPartitionLog(topicName, partitionID)

	resp.Responses = []kmsg.FetchResponseTopic{{
		TopicID: topic.TopicID,
		Partitions: []kmsg.FetchResponsePartition{
			{ErrorCode: kmsg.ErrCodeNone, Records: records},
		},
	}}
	return resp
}

func (h *Handler) readPartitionLog(topic string, partition int32) []byte {
	path := h.cfg.PartitionLogPath(topic, partition)
	data, err := os.ReadFile(path)
	if err != nil {
		if h.log != nil {
			h.log.Warn("fetch: could not read partition log %s: %s", path, err)
		}
		return nil
	}
	return data
}
