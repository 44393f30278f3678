// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// reframer for use in the azrelay proxy. It regroups an upstream byte stream
// into whole, blank-line-terminated frames and re-emits them downstream at a
// paced rate, regardless of how the network chunked the upstream bytes.
//
// This package intentionally does NOT provide an SSE server.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// DoneSentinel is the data payload OpenAI-compatible upstreams send as the
// final event of a stream.
const DoneSentinel = "[DONE]"

// IsDone reports whether the event is the end-of-stream sentinel.
func (e *Event) IsDone() bool {
	return e != nil && e.Data == DoneSentinel
}
