package sse

import (
	"strings"
)

// ParseEvent parses a single frame (one blank-line-terminated block) into an
// Event. It returns nil when the frame carries no event fields, e.g. a
// keep-alive comment or a bare "\n\n".
//
// Lines may be terminated by "\n" or "\r\n". Lines starting with ':' are
// comments and are skipped.
func ParseEvent(frame []byte) *Event {
	var (
		ev      Event
		hasData bool
	)

	for _, raw := range strings.Split(string(frame), "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if raw == "" || strings.HasPrefix(raw, ":") {
			continue
		}

		if parseLine(&ev, raw) {
			hasData = true
		}
	}

	if !hasData {
		return nil
	}
	return &ev
}

// parseLine processes a single non-empty, non-comment SSE line and
// accumulates the field into ev. It reports whether the line was a known
// event field.
//
// Per the SSE spec, a line has the form "field:value" where the first
// space after the colon is optional and stripped if present.
func parseLine(ev *Event, line string) bool {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		// Strip a single leading space after the colon, per spec.
		value = strings.TrimPrefix(after, " ")
	} else {
		// Line with no colon: the entire line is the field name with
		// an empty value.
		field = line
	}

	switch field {
	case "data":
		if ev.Data != "" {
			// Multiple data fields are joined with "\n".
			ev.Data += "\n"
		}
		ev.Data += value
		return true
	case "event":
		ev.Type = value
		return true
	case "id":
		ev.ID = value
		return true
	default:
		// "retry" and unknown fields are ignored per the SSE spec.
		return false
	}
}
