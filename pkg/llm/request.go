// Package llm holds the OpenAI-shaped wire types the relay inspects or
// produces itself. Request and response bodies are otherwise forwarded
// verbatim.
package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidBody is returned by ParseRelayRequest for bodies that are not
// valid JSON.
var ErrInvalidBody = errors.New("request body is not valid JSON")

// RelayRequest is the subset of an OpenAI request body the relay reads to
// route the request. The rest of the body is forwarded untouched.
type RelayRequest struct {
	// Model is the public model name (e.g., "gpt-4"), resolved to an Azure
	// deployment before forwarding.
	Model string `json:"model"`

	// Stream selects the streaming relay when explicitly true.
	Stream *bool `json:"stream,omitempty"`

	// Body is the compacted JSON document to forward upstream.
	Body []byte `json:"-"`
}

// Streaming reports whether the client asked for a streamed response.
func (r *RelayRequest) Streaming() bool {
	return r != nil && r.Stream != nil && *r.Stream
}

// ParseRelayRequest validates body as JSON and extracts the routing fields.
//
// Any valid JSON document is accepted. Documents that are not objects, or
// whose model is not a string, yield an empty Model so the caller rejects
// them as unmapped. A stream field that is not a boolean counts as absent.
func ParseRelayRequest(body []byte) (*RelayRequest, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	req := &RelayRequest{Body: compact.Bytes()}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(req.Body, &fields); err != nil {
		// Arrays, strings, numbers and null carry no routing fields.
		return req, nil
	}

	if raw, ok := fields["model"]; ok {
		_ = json.Unmarshal(raw, &req.Model)
	}
	if raw, ok := fields["stream"]; ok {
		var stream bool
		if err := json.Unmarshal(raw, &stream); err == nil && !bytes.Equal(raw, []byte("null")) {
			req.Stream = &stream
		}
	}

	return req, nil
}
