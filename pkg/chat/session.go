// Package chat manages farm guru conversations. A Session owns one ordered
// conversation history; a Manager mediates a single outstanding exchange
// between a session and an llm.Completer, streaming the reply back through a
// Handler and appending it to history once complete.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// State is the exchange state of a session.
type State int

const (
	// StateIdle means no exchange is outstanding.
	StateIdle State = iota

	// StateAwaitingResponse means a reply is being streamed.
	StateAwaitingResponse

	// StateFailed means the last exchange failed. The next submission moves
	// the session back through idle.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is one user's interactive lifetime with the chat feature. Its
// history is only mutated through a Manager.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	config   Config
	history  []llm.Message
	state    State
	lastErr  error
	inflight *Exchange
	closed   bool
}

// NewSession creates an empty session. An empty id is replaced by a random
// UUID. The session has no history until a Manager initializes it.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	return &Session{
		id:        id,
		createdAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// History returns a copy of the conversation, oldest first.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.history)
}

// State returns the current exchange state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Err returns the error of the last failed exchange, or nil when the last
// exchange succeeded or none has run.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close ends the session. An in-flight exchange is cancelled and will not
// append its reply. The history is discarded. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
	s.history = nil
}

// initialize seeds the history with the system persona if it is empty.
func (s *Session) initialize(config Config) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.history) > 0 {
		return false
	}

	s.config = config
	s.history = []llm.Message{llm.SystemMessage(config.Persona)}
	return true
}

// begin appends the user message and marks the exchange outstanding.
func (s *Session) begin(ex *Exchange, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state == StateAwaitingResponse {
		return ErrConcurrentSubmit
	}

	s.history = append(s.history, llm.UserMessage(text))
	s.state = StateAwaitingResponse
	s.lastErr = nil
	s.inflight = ex

	ex.config = s.config
	ex.request = llm.NewChatRequest(s.config.Model, s.history, s.config.Options)
	return nil
}

// finish settles the outstanding exchange. On success reply is appended; on
// failure the session moves to StateFailed and the wrapped error is returned.
func (s *Session) finish(ex *Exchange, reply *llm.Message, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight == ex {
		s.inflight = nil
	}
	if s.closed {
		return ErrSessionClosed
	}

	if cause != nil {
		err := &RequestError{Err: cause}
		s.state = StateFailed
		s.lastErr = err
		return err
	}

	s.history = append(s.history, *reply)
	s.state = StateIdle
	return nil
}
