package kmsg

import "github.com/ashutoshpw/kbroker/pkg/kbin"

// ApiVersionsRequest is the v4 request body: two compact strings identifying
// the client, then a tag buffer.
type ApiVersionsRequest struct {
	ClientSoftwareName    string
	ClientSoftwareVersion string
}

func (*ApiVersionsRequest) Key() int16 { return ApiVersions }

func (r *ApiVersionsRequest) ReadFrom(src []byte) error {
	b := kbin.NewReader(src)
	r.ClientSoftwareName = b.CompactString()
	r.ClientSoftwareVersion = b.CompactString()
	b.TagBuffer()
	return b.Complete()
}

// SupportedAPIVersion is one entry of the ApiVersionsResponse's advertised
// API list.
type SupportedAPIVersion struct {
	APIKey     int16
	MinVersion int16
	MaxVersion int16
}

// ApiVersionsResponse is the v4 response body.
type ApiVersionsResponse struct {
	ErrorCode      int16
	APIVersions    []SupportedAPIVersion
	ThrottleTimeMs int32
}

func (*ApiVersionsResponse) Key() int16 { return ApiVersions }

func (r *ApiVersionsResponse) AppendTo(dst []byte) []byte {
	dst = kbin.AppendInt16(dst, r.ErrorCode)
	if len(r.APIVersions) == 0 {
		// An empty list (the UnsupportedVersion reply) is the 0x00 sentinel.
		dst = kbin.AppendUvarint(dst, 0)
	} else {
		dst = kbin.AppendCompactArrayLen(dst, len(r.APIVersions))
	}
	for _, v := range r.APIVersions {
		dst = kbin.AppendInt16(dst, v.APIKey)
		dst = kbin.AppendInt16(dst, v.MinVersion)
		dst = kbin.AppendInt16(dst, v.MaxVersion)
		dst = kbin.AppendTagBuffer(dst)
	}
	dst = kbin.AppendInt32(dst, r.ThrottleTimeMs)
	dst = kbin.AppendTagBuffer(dst)
	return dst
}

func (r *ApiVersionsResponse) ReadFrom(src []byte) error {
	b := kbin.NewReader(src)
	r.ErrorCode = b.Int16()
	n := b.CompactArrayLen()
	if n > 0 {
		r.APIVersions = make([]SupportedAPIVersion, n)
		for i := range r.APIVersions {
			r.APIVersions[i] = SupportedAPIVersion{
				APIKey:     b.Int16(),
				MinVersion: b.Int16(),
				MaxVersion: b.Int16(),
			}
			b.TagBuffer()
		}
	}
	r.ThrottleTimeMs = b.Int32()
	b.TagBuffer()
	return b.Complete()
}
