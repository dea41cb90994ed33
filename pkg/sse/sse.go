// Package sse streams broker events to browsers as Server-Sent Events.
//
//	stream, err := sse.New(w)
//	if err != nil { ... }
//	broker.Register(stream)
//	defer broker.Unregister(stream)
//	stream.Serve(r.Context())
package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

var (
	// ErrClosed is returned by writes after Close.
	ErrClosed     = errors.New("sse: stream closed")
	ErrSlowClient = errors.New("sse: send buffer full")
)

type frame struct {
	event string
	data  []byte
}

// Stream is one client connection. Write only queues; Serve, run by the
// handler goroutine, owns the ResponseWriter.
type Stream struct {
	w    http.ResponseWriter
	rc   *http.ResponseController
	send chan frame
	done chan struct{}
	once sync.Once
}

// New sets the event-stream headers and flushes them.
func New(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("sse: response writer cannot flush")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{
		w:    w,
		rc:   http.NewResponseController(w),
		send: make(chan frame, sendBuffer),
		done: make(chan struct{}),
	}, nil
}

// Write queues one named event without blocking. A full queue means the
// client stopped reading: the stream is closed and the broker drops it.
func (s *Stream) Write(event string, data []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.send <- frame{event: event, data: data}:
		return nil
	case <-s.done:
		return ErrClosed
	default:
		s.Close()
		return ErrSlowClient
	}
}

// Serve writes queued events until ctx ends, Close is called or a write
// misses its deadline. The handler must not return before Serve does.
func (s *Stream) Serve(ctx context.Context) {
	defer s.Close()
	for {
		select {
		case f := <-s.send:
			if err := s.writeFrame(f); err != nil {
				return
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) writeFrame(f frame) error {
	if err := s.rc.SetWriteDeadline(time.Now().Add(writeWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", f.event, f.data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *Stream) Close() {
	s.once.Do(func() { close(s.done) })
}
