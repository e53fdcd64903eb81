// Package llmtest provides a scripted llm.Completer for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// Completer replays a fixed list of fragments for every request and records
// the requests it receives.
type Completer struct {
	// Fragments are yielded in order by every stream.
	Fragments []string

	// OpenErr is returned from Stream without producing a stream.
	OpenErr error

	// StreamErr ends the stream after FailAfter fragments.
	StreamErr error
	FailAfter int

	// Gate, when set, blocks each fragment until a value is received or the
	// request context is done.
	Gate chan struct{}

	mu       sync.Mutex
	requests []*llm.ChatRequest
}

// New returns a Completer yielding fragments.
func New(fragments ...string) *Completer {
	return &Completer{Fragments: fragments}
}

// Stream implements llm.Completer.
func (c *Completer) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.OpenErr != nil {
		return nil, c.OpenErr
	}

	fragments := c.Fragments
	var failErr error
	if c.StreamErr != nil {
		if c.FailAfter < len(fragments) {
			fragments = fragments[:c.FailAfter]
		}
		failErr = c.StreamErr
	}

	return &stream{
		ctx:       ctx,
		fragments: fragments,
		failErr:   failErr,
		gate:      c.Gate,
		index:     -1,
	}, nil
}

// Requests returns the requests received so far.
func (c *Completer) Requests() []*llm.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*llm.ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (c *Completer) LastRequest() *llm.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}

type stream struct {
	ctx       context.Context
	fragments []string
	failErr   error
	gate      chan struct{}
	index     int
	err       error
	closed    bool
}

func (s *stream) Next() bool {
	if s.err != nil || s.closed {
		return false
	}

	if s.gate != nil {
		select {
		case <-s.gate:
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		}
	}

	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}

	s.index++
	if s.index >= len(s.fragments) {
		s.err = s.failErr
		return false
	}
	return true
}

func (s *stream) Current() string {
	if s.index < 0 || s.index >= len(s.fragments) {
		return ""
	}
	return s.fragments[s.index]
}

func (s *stream) Err() error {
	return s.err
}

func (s *stream) Close() error {
	s.closed = true
	return nil
}
