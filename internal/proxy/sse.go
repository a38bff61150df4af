package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SSEWriter writes Server-Sent Events and flushes after every event so each
// one reaches the client as soon as it is produced.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewSSEWriter returns an SSEWriter for w. It fails if w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Start writes the event stream headers. It is called implicitly by the
// first write.
func (s *SSEWriter) Start() {
	if s.started {
		return
	}
	s.started = true

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

// WriteEvent writes an "event:" line naming the next data payload.
func (s *SSEWriter) WriteEvent(name string) error {
	s.Start()
	if _, err := fmt.Fprintf(s.w, "event: %s\n", name); err != nil {
		return fmt.Errorf("write event name: %w", err)
	}
	return nil
}

// WriteData writes v as JSON in a "data:" line and ends the event.
func (s *SSEWriter) WriteData(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	return s.WriteRaw(string(data))
}

// WriteRaw writes payload verbatim in a "data:" line and ends the event.
func (s *SSEWriter) WriteRaw(payload string) error {
	s.Start()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event data: %w", err)
	}
	s.flusher.Flush()
	return nil
}
