package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// Kind is the route classification of one inbound request buffer.
type Kind int

const (
	// KindUnknown means the buffer matched neither route; answered with 404.
	KindUnknown Kind = iota
	// KindStats is a read of the current aggregate statistics.
	KindStats
	// KindEvent is a write carrying one event body.
	KindEvent
)

const (
	// InitialReadSize caps the first read taken from a fresh connection.
	// Large enough to hold the request line, headers, and any realistic
	// event body in one read.
	InitialReadSize = 2048

	// MaxBodyBytes bounds the declared Content-Length of an event body.
	// An event carries a user identifier and one number; a declaration
	// beyond this limit is treated as malformed, not buffered.
	MaxBodyBytes = 1 << 20
)

var (
	statsMarker = []byte("GET /stats ")
	eventMarker = []byte("POST /event ")
	headerSep   = []byte("\r\n\r\n")

	// Matches the Content-Length header case-insensitively at a line start,
	// capturing the numeric value.
	contentLengthRe = regexp.MustCompile(`(?mi)^Content-Length:\s*(\d+)`)
)

var (
	// ErrNoHeaderTerminator is returned when an event request buffer has no
	// blank-line sequence separating headers from body.
	ErrNoHeaderTerminator = errors.New("protocol: missing header terminator")

	// ErrBodyTooLarge is returned when the declared Content-Length exceeds
	// MaxBodyBytes.
	ErrBodyTooLarge = errors.New("protocol: declared body length exceeds limit")
)

// Event is one ingested write-request body. UserID is treated as an opaque
// string; Value defaults to 0 when the field is absent.
type Event struct {
	UserID string  `json:"userId"`
	Value  float64 `json:"value"`
}

// Classify inspects a raw request buffer for the two recognized route
// markers. Anything else, including unparseable noise, is KindUnknown.
func Classify(buf []byte) Kind {
	switch {
	case bytes.Contains(buf, statsMarker):
		return KindStats
	case bytes.Contains(buf, eventMarker):
		return KindEvent
	default:
		return KindUnknown
	}
}

// ReadEventBody extracts the complete body of an event request. buf is the
// bytes already read from the connection; conn supplies the remainder when
// the declared Content-Length exceeds what buf already holds, which happens
// whenever TCP delivers the request across more than one read.
//
// The returned body is never shorter than the declared length: if the
// shortfall cannot be read the transport error is returned instead. A missing
// Content-Length header is treated as length 0.
func ReadEventBody(buf []byte, conn io.Reader) ([]byte, error) {
	i := bytes.Index(buf, headerSep)
	if i < 0 {
		return nil, ErrNoHeaderTerminator
	}
	head, body := buf[:i], buf[i+len(headerSep):]

	var length int
	if m := contentLengthRe.FindSubmatch(head); m != nil {
		n, err := strconv.Atoi(string(m[1]))
		if err != nil {
			// Captured digits too large to fit an int
			return nil, fmt.Errorf("protocol: bad content length %q: %w", m[1], err)
		}
		length = n
	}
	if length > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}

	remaining := length - len(body)
	if remaining <= 0 {
		return body, nil
	}

	rest := make([]byte, remaining)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return nil, fmt.Errorf("protocol: short body read: %w", err)
	}
	return append(body, rest...), nil
}

// ParseEvent decodes a completed event body. Structural errors and wrong
// field types fail the parse; a missing value field is simply 0.
func ParseEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("protocol: bad event body: %w", err)
	}
	return e, nil
}
