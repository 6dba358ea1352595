package handler

import (
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashutoshpw/kbroker/internal/config"
	"github.com/ashutoshpw/kbroker/internal/metadata"
	"github.com/ashutoshpw/kbroker/pkg/kbin"
	"github.com/ashutoshpw/kbroker/pkg/kmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

func TestHandleApiVersions_Success(t *testing.T) {
	h := New(config.Default(), &metadata.ClusterMetadata{}, nil)

	req := &kmsg.DecodedRequest{
		Header: kmsg.RequestHeader{APIKey: kmsg.ApiVersions, APIVersion: 3, CorrelationID: 123},
		Body:   &kmsg.ApiVersionsRequest{ClientSoftwareName: "kafka-go", ClientSoftwareVersion: "1.0.0"},
	}

	_, resp := h.Handle(req)
	av, ok := resp.(*kmsg.ApiVersionsResponse)
	require.True(t, ok)
	assert.Equal(t, kmsg.ErrCodeNone, av.ErrorCode)
	assert.NotEmpty(t, av.APIVersions)

	keys := make(map[int16]kmsg.SupportedAPIVersion)
	for _, v := range av.APIVersions {
		keys[v.APIKey] = v
	}
	assert.Contains(t, keys, int16(kmsg.ApiVersions))
	assert.Contains(t, keys, int16(kmsg.Fetch))
	assert.Contains(t, keys, int16(kmsg.DescribeTopicPartitions))
}

func TestHandleApiVersions_UnsupportedVersion(t *testing.T) {
	h := New(config.Default(), &metadata.ClusterMetadata{}, nil)

	req := &kmsg.DecodedRequest{
		Header: kmsg.RequestHeader{APIKey: kmsg.ApiVersions, APIVersion: 99},
		Body:   &kmsg.ApiVersionsRequest{},
	}

	_, resp := h.Handle(req)
	av := resp.(*kmsg.ApiVersionsResponse)
	assert.Equal(t, kmsg.ErrCodeUnsupportedVersion, av.ErrorCode)
	assert.Empty(t, av.APIVersions)
}

func buildIndexWithOneTopic(t *testing.T, topicName string, topicID kbin.UUID, partitionID, leader int32) *metadata.ClusterMetadata {
	t.Helper()

	var val []byte
	val = kbin.AppendInt8(val, 1)
	val = kbin.AppendInt8(val, 2) // recordTypeTopic
	val = kbin.AppendInt8(val, 0)
	val = kbin.AppendCompactString(val, topicName)
	val = kbin.AppendUUID(val, topicID)
	val = kbin.AppendUvarint(val, 0)

	var rec []byte
	rec = kbin.AppendInt8(rec, 0)
	rec = kbin.AppendVarint(rec, 0)
	rec = kbin.AppendVarint(rec, 0)
	rec = kbin.AppendVarint(rec, -1)
	rec = kbin.AppendVarint(rec, int32(len(val)))
	rec = append(rec, val...)
	rec = kbin.AppendUvarint(rec, 0)
	topicRec := kbin.AppendVarint(nil, int32(len(rec)))
	topicRec = append(topicRec, rec...)

	var pval []byte
	pval = kbin.AppendInt8(pval, 1)
	pval = kbin.AppendInt8(pval, 3) // recordTypePartition
	pval = kbin.AppendInt8(pval, 0)
	pval = kbin.AppendInt32(pval, partitionID)
	pval = kbin.AppendUUID(pval, topicID)
	pval = kbin.AppendCompactInt32Array(pval, []int32{leader})
	pval = kbin.AppendCompactInt32Array(pval, []int32{leader})
	pval = kbin.AppendCompactInt32Array(pval, nil)
	pval = kbin.AppendCompactInt32Array(pval, nil)
	pval = kbin.AppendInt32(pval, leader)
	pval = kbin.AppendInt32(pval, 0)
	pval = kbin.AppendInt32(pval, 0)
	pval = kbin.AppendUvarint(pval, 0)
	pval = kbin.AppendUvarint(pval, 0)

	var prec []byte
	prec = kbin.AppendInt8(prec, 0)
	prec = kbin.AppendVarint(prec, 0)
	prec = kbin.AppendVarint(prec, 0)
	prec = kbin.AppendVarint(prec, -1)
	prec = kbin.AppendVarint(prec, int32(len(pval)))
	prec = append(prec, pval...)
	prec = kbin.AppendUvarint(prec, 0)
	partitionRec := kbin.AppendVarint(nil, int32(len(prec)))
	partitionRec = append(partitionRec, prec...)

	recordsBlob := append(append([]byte{}, topicRec...), partitionRec...)

	var checksummed []byte
	checksummed = kbin.AppendUint16(checksummed, 0)
	checksummed = kbin.AppendInt32(checksummed, 0)
	checksummed = kbin.AppendInt64(checksummed, 0)
	checksummed = kbin.AppendInt64(checksummed, 0)
	checksummed = kbin.AppendInt64(checksummed, -1)
	checksummed = kbin.AppendInt16(checksummed, -1)
	checksummed = kbin.AppendInt32(checksummed, -1)
	checksummed = kbin.AppendInt32(checksummed, 2)
	checksummed = append(checksummed, recordsBlob...)

	crc := crc32.Checksum(checksummed, castagnoliTable)

	var payload []byte
	payload = kbin.AppendInt32(payload, 0)
	payload = kbin.AppendUint8(payload, 2)
	payload = kbin.AppendUint32(payload, crc)
	payload = append(payload, checksummed...)

	var log []byte
	log = kbin.AppendInt64(log, 0)
	log = kbin.AppendInt32(log, int32(len(payload)))
	log = append(log, payload...)

	m, err := metadata.Parse(bytes.NewReader(log), nil)
	require.NoError(t, err)
	return m
}

func TestHandleDescribeTopicPartitions_KnownTopic(t *testing.T) {
	topicID := kbin.UUID{1, 2, 3}
	idx := buildIndexWithOneTopic(t, "foo", topicID, 0, 1)
	h := New(config.Default(), idx, nil)

	req := &kmsg.DecodedRequest{
		Header: kmsg.RequestHeader{APIKey: kmsg.DescribeTopicPartitions},
		Body:   &kmsg.DescribeTopicPartitionsRequest{Topics: []kmsg.DescribeTopicPartitionsRequestTopic{{Name: "foo"}}},
	}

	_, resp := h.Handle(req)
	dr := resp.(*kmsg.DescribeTopicPartitionsResponse)
	require.Len(t, dr.Topics, 1)
	assert.Equal(t, kmsg.ErrCodeNone, dr.Topics[0].ErrorCode)
	assert.Equal(t, topicID, dr.Topics[0].ID)
	require.Len(t, dr.Topics[0].Partitions, 1)
	assert.Equal(t, int32(1), dr.Topics[0].Partitions[0].Leader)
}

func TestHandleDescribeTopicPartitions_UnknownTopic(t *testing.T) {
	h := New(config.Default(), &metadata.ClusterMetadata{}, nil)

	req := &kmsg.DecodedRequest{
		Body: &kmsg.DescribeTopicPartitionsRequest{Topics: []kmsg.DescribeTopicPartitionsRequestTopic{{Name: "ghost"}}},
	}

	_, resp := h.Handle(req)
	dr := resp.(*kmsg.DescribeTopicPartitionsResponse)
	require.Len(t, dr.Topics, 1)
	assert.Equal(t, kmsg.ErrCodeUnknownTopicOrPartition, dr.Topics[0].ErrorCode)
	assert.Equal(t, "ghost", dr.Topics[0].Name)
}

func TestHandleFetch_UnknownTopicID(t *testing.T) {
	h := New(config.Default(), &metadata.ClusterMetadata{}, nil)

	req := &kmsg.DecodedRequest{
		Body: &kmsg.FetchRequest{Topics: []kmsg.FetchRequestTopic{{TopicID: kbin.UUID{7, 7}}}},
	}

	_, resp := h.Handle(req)
	fr := resp.(*kmsg.FetchResponse)
	require.Len(t, fr.Responses, 1)
	require.Len(t, fr.Responses[0].Partitions, 1)
	assert.Equal(t, kmsg.ErrCodeUnknownTopic, fr.Responses[0].Partitions[0].ErrorCode)
}

func TestHandleFetch_ReadsPartitionLog(t *testing.T) {
	topicID := kbin.UUID{4, 5, 6}
	idx := buildIndexWithOneTopic(t, "orders", topicID, 0, 1)

	dir := t.TempDir()
	cfg := config.Config{LogSegmentRoot: dir}
	partDir := filepath.Join(dir, "orders-0")
	require.NoError(t, os.MkdirAll(partDir, 0o755))
	logPath := filepath.Join(partDir, "00000000000000000000.log")
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, os.WriteFile(logPath, want, 0o644))

	h := New(cfg, idx, nil)
	req := &kmsg.DecodedRequest{
		Body: &kmsg.FetchRequest{Topics: []kmsg.FetchRequestTopic{{TopicID: topicID}}},
	}

	_, resp := h.Handle(req)
	fr := resp.(*kmsg.FetchResponse)
	require.Len(t, fr.Responses, 1)
	require.Len(t, fr.Responses[0].Partitions, 1)
	assert.Equal(t, kmsg.ErrCodeNone, fr.Responses[0].Partitions[0].ErrorCode)
	assert.Equal(t, want, fr.Responses[0].Partitions[0].Records)
}
