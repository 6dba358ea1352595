// Package kmsg composes pkg/kbin primitives into the request and response
// wire types for the three Kafka APIs this broker façade understands:
// ApiVersions (18), DescribeTopicPartitions (75), and Fetch (1, v16).
//
// Most of this package is hand-written rather than generated, unlike a full
// Kafka client's kmsg: there are only three APIs to cover, each with a
// single pinned version, so a generator would buy little.
package kmsg

import (
	"errors"
	"fmt"

	"github.com/ashutoshpw/kbroker/pkg/kbin"
)

// API keys this core accepts.
const (
	Fetch                   int16 = 1
	ApiVersions             int16 = 18
	DescribeTopicPartitions int16 = 75
)

// Error codes used by this core. Names follow the Kafka protocol's own
// error registry; only the subset this broker actually returns is defined.
const (
	ErrCodeNone                    int16 = 0
	ErrCodeUnknownTopicOrPartition int16 = 3
	ErrCodeUnsupportedVersion      int16 = 35
	ErrCodeUnknownTopic            int16 = 100
	ErrCodeUnknownServerError      int16 = -1
)

// ErrUnsupportedAPIKey is returned by Decode when request_api_key is not one
// of {1, 18, 75}. Per this core's source lineage, an unsupported API key
// terminates the connection rather than producing a framed response.
type ErrUnsupportedAPIKey struct {
	Key int16
}

func (e *ErrUnsupportedAPIKey) Error() string {
	return fmt.Sprintf("kmsg: unsupported api key %d", e.Key)
}

// Request is implemented by every request body this core decodes.
type Request interface {
	Key() int16
	ReadFrom(src []byte) error
}

// Response is implemented by every response body this core encodes.
type Response interface {
	Key() int16
	AppendTo(dst []byte) []byte
}

// RequestHeader is the common RequestHeaderV2 prefix shared by every
// request this core accepts.
type RequestHeader struct {
	APIKey        int16
	APIVersion    int16
	CorrelationID int32
	ClientID      *string
}

func (h *RequestHeader) readFrom(r *kbin.Reader) {
	h.APIKey = r.Int16()
	h.APIVersion = r.Int16()
	h.CorrelationID = r.Int32()
	h.ClientID = r.NullableString()
	r.TagBuffer()
}

// DecodedRequest pairs a parsed header with its typed body.
type DecodedRequest struct {
	Header RequestHeader
	Body   Request
}

// Decode consumes exactly one framed request from src: a four-byte
// message_size prefix, the RequestHeaderV2, and an API-specific body. It
// returns the decoded request and the number of bytes of src consumed, or
// an error if src does not yet contain a complete frame.
//
// ErrNeedMoreData signals the caller should read more bytes and retry; any
// other error is a malformed frame or an unsupported API key and should
// terminate the connection.
func Decode(src []byte) (*DecodedRequest, int, error) {
	if len(src) < 4 {
		return nil, 0, ErrNeedMoreData
	}
	size := int(kbin.NewReader(src[:4]).Int32())
	if size < 0 {
		return nil, 0, fmt.Errorf("%w: negative message_size %d", kbin.ErrMalformedFrame, size)
	}
	total := 4 + size
	if len(src) < total {
		return nil, 0, ErrNeedMoreData
	}

	r := kbin.NewReader(src[4:total])
	var hdr RequestHeader
	hdr.readFrom(r)
	if err := r.Err(); err != nil {
		return nil, 0, err
	}

	body, err := newRequestForKey(hdr.APIKey)
	if err != nil {
		return nil, 0, err
	}
	if err := body.ReadFrom(r.Src); err != nil {
		return nil, 0, err
	}

	return &DecodedRequest{Header: hdr, Body: body}, total, nil
}

// ErrNeedMoreData is returned by Decode when src does not yet hold a
// complete frame; it is not a protocol error.
var ErrNeedMoreData = errors.New("kmsg: need more data")

func newRequestForKey(key int16) (Request, error) {
	switch key {
	case ApiVersions:
		return &ApiVersionsRequest{}, nil
	case DescribeTopicPartitions:
		return &DescribeTopicPartitionsRequest{}, nil
	case Fetch:
		return &FetchRequest{}, nil
	default:
		return nil, &ErrUnsupportedAPIKey{Key: key}
	}
}

// EncodeResponseV0 frames a response using ResponseHeader v0 (correlation_id
// only, no tag buffer) — used for ApiVersions.
func EncodeResponseV0(correlationID int32, body Response) []byte {
	hdr := kbin.AppendInt32(nil, correlationID)
	payload := append(hdr, body.AppendTo(nil)...)
	return frame(payload)
}

// EncodeResponseV1 frames a response using ResponseHeader v1 (correlation_id
// plus a tag buffer) — used for DescribeTopicPartitions and Fetch.
func EncodeResponseV1(correlationID int32, body Response) []byte {
	hdr := kbin.AppendInt32(nil, correlationID)
	hdr = kbin.AppendTagBuffer(hdr)
	payload := append(hdr, body.AppendTo(nil)...)
	return frame(payload)
}

func frame(payload []byte) []byte {
	out := kbin.AppendInt32(nil, int32(len(payload)))
	return append(out, payload...)
}
