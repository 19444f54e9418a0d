package upstream

import (
	"encoding/json"
	"mime"
	"strings"
	"time"
)

// BodyKind tags how an upstream body was interpreted.
type BodyKind string

const (
	BodyJSON BodyKind = "json"
	BodyText BodyKind = "text"
)

// Response is the relayed upstream outcome. Exactly one of JSON or Text is
// meaningful, selected by Kind.
type Response struct {
	Status      int
	ContentType string
	Kind        BodyKind
	JSON        json.RawMessage
	Text        string
	Duration    time.Duration
}

// OK reports a 2xx upstream status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Body returns the raw bytes to relay.
func (r *Response) Body() []byte {
	if r.Kind == BodyJSON {
		return r.JSON
	}
	return []byte(r.Text)
}

// newResponse classifies body by content type. A JSON content type with an
// unparseable body degrades to text.
func newResponse(status int, contentType string, body []byte, took time.Duration) *Response {
	resp := &Response{
		Status:      status,
		ContentType: contentType,
		Duration:    took,
	}
	if isJSONMediaType(contentType) && json.Valid(body) {
		resp.Kind = BodyJSON
		resp.JSON = json.RawMessage(body)
		return resp
	}
	resp.Kind = BodyText
	resp.Text = string(body)
	return resp
}

func isJSONMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
