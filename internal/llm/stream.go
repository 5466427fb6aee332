package llm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	initialLineBuffer = 64 << 10
	maxLineBuffer     = 4 << 20
)

// Stream iterates over the text deltas of a server-sent-event response.
//
//	for stream.Next() {
//		w.Write([]byte(stream.Text()))
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	text    string
	err     error
	done    bool
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBuffer)
	return &Stream{body: body, scanner: scanner}
}

// NewStream wraps an event-stream body. Exposed for tests in other packages.
func NewStream(body io.ReadCloser) *Stream {
	return newStream(body)
}

// Next advances to the next non-empty delta. It returns false at [DONE],
// end of body, or on error.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	for s.scanner.Scan() {
		data, ok := strings.CutPrefix(s.scanner.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)

		if data == "[DONE]" {
			s.done = true
			return false
		}
		if !gjson.Valid(data) {
			continue
		}

		event := gjson.Parse(data)
		if errEvent := event.Get("error"); errEvent.IsObject() || errEvent.Type == gjson.String {
			s.err = inBandError(errEvent)
			s.done = true
			return false
		}

		delta := event.Get("choices.0.delta.content").String()
		if delta == "" {
			continue
		}
		s.text = delta
		return true
	}

	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("read stream: %w", err)
	}
	s.done = true
	return false
}

// Text returns the delta produced by the last successful Next.
func (s *Stream) Text() string {
	return s.text
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the upstream connection.
func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}

func inBandError(v gjson.Result) error {
	msg := v.Get("message").String()
	if msg == "" && v.Type == gjson.String {
		msg = v.String()
	}
	if msg == "" {
		msg = "upstream reported an error"
	}

	code := int(v.Get("code").Int())
	if code < 400 || code > 599 {
		code = 0
	}
	return &APIError{StatusCode: code, Message: msg}
}
