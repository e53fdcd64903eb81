package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// Config selects the model, persona and generation parameters a session is
// initialized with.
type Config struct {
	Provider string
	Model    string
	Persona  string
	Options  llm.Options
}

// DefaultConfig returns the farm guru defaults.
func DefaultConfig() Config {
	return Config{
		Model:   DefaultModel,
		Persona: DefaultPersona,
		Options: llm.DefaultOptions(),
	}
}

// Handler receives a reply as it streams.
type Handler interface {
	// OnFragment is called after every fragment with the reply so far.
	OnFragment(partial string)

	// OnComplete is called once with the complete reply, after it has been
	// appended to history.
	OnComplete(final string)
}

// HandlerFuncs adapts plain functions to Handler. Nil funcs are skipped.
type HandlerFuncs struct {
	Fragment func(partial string)
	Complete func(final string)
}

// OnFragment implements Handler.
func (h HandlerFuncs) OnFragment(partial string) {
	if h.Fragment != nil {
		h.Fragment(partial)
	}
}

// OnComplete implements Handler.
func (h HandlerFuncs) OnComplete(final string) {
	if h.Complete != nil {
		h.Complete(final)
	}
}

// Manager mediates exchanges between sessions and a completion provider.
type Manager struct {
	completer llm.Completer
	config    Config
	logger    *zap.Logger
}

// NewManager creates a new Manager. Empty model and persona fall back to the
// defaults.
func NewManager(completer llm.Completer, config Config, logger *zap.Logger) *Manager {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Persona == "" {
		config.Persona = DefaultPersona
	}

	return &Manager{
		completer: completer,
		config:    config,
		logger:    logger,
	}
}

// Config returns the configuration new sessions are initialized with.
func (m *Manager) Config() Config {
	return m.config
}

// NewSession creates and initializes a session.
func (m *Manager) NewSession() *Session {
	s := NewSession("")
	m.Initialize(s)
	return s
}

// Initialize seeds an empty session with the system persona. Calling it on a
// session that already has history, or has been closed, is a no-op.
func (m *Manager) Initialize(s *Session) {
	if s.initialize(m.config) {
		m.logger.Debug("session initialized",
			zap.String("session_id", s.ID()),
			zap.String("model", m.config.Model),
		)
	}
}

// Submit sends userText and streams the reply to h. It is Begin followed by
// Run.
func (m *Manager) Submit(ctx context.Context, s *Session, userText string, h Handler) (*llm.ConversationTurn, error) {
	ex, err := m.Begin(ctx, s, userText)
	if err != nil {
		return nil, err
	}
	return ex.Run(h)
}

// Begin validates userText, appends it to the session history and reserves
// the session for one exchange. The returned Exchange must be Run or
// Abandoned. Rejections leave the history unchanged.
func (m *Manager) Begin(ctx context.Context, s *Session, userText string) (*Exchange, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrInputRejected
	}

	m.Initialize(s)

	exCtx, cancel := context.WithCancel(ctx)
	ex := &Exchange{
		manager: m,
		session: s,
		ctx:     exCtx,
		cancel:  cancel,
	}

	if err := s.begin(ex, userText); err != nil {
		cancel()
		return nil, err
	}

	m.logger.Debug("exchange started",
		zap.String("session_id", s.ID()),
		zap.Int("message_count", len(ex.request.Messages)),
		zap.String("content_preview", truncate(userText, 50)),
	)

	return ex, nil
}

// Exchange is one in-flight request/response against a session.
type Exchange struct {
	manager *Manager
	session *Session
	config  Config
	request *llm.ChatRequest
	ctx     context.Context
	cancel  context.CancelFunc

	once sync.Once
}

// Request returns the request the exchange sends.
func (e *Exchange) Request() *llm.ChatRequest {
	return e.request
}

// Run streams the reply. Fragments are concatenated in arrival order and the
// partial reply is passed to h.OnFragment after each one. When the stream is
// exhausted the reply is appended to history as one assistant message and
// passed to h.OnComplete. On failure nothing is appended, partial text is
// discarded and a *RequestError is returned. If the session is closed while
// streaming, ErrSessionClosed is returned.
func (e *Exchange) Run(h Handler) (*llm.ConversationTurn, error) {
	ran := true
	e.once.Do(func() { ran = false })
	if ran {
		return nil, errors.New("exchange already run")
	}
	defer e.cancel()

	if h == nil {
		h = HandlerFuncs{}
	}

	logger := e.manager.logger.With(zap.String("session_id", e.session.ID()))
	start := time.Now()

	stream, err := e.manager.completer.Stream(e.ctx, e.request)
	if err != nil {
		return nil, e.fail(logger, err)
	}
	defer stream.Close()

	var reply strings.Builder
	fragments := 0
	for stream.Next() {
		reply.WriteString(stream.Current())
		fragments++
		h.OnFragment(reply.String())
	}

	if err := stream.Err(); err != nil {
		return nil, e.fail(logger, err)
	}
	if err := e.ctx.Err(); err != nil {
		return nil, e.fail(logger, err)
	}

	final := reply.String()
	if final == "" {
		return nil, e.fail(logger, ErrEmptyReply)
	}

	msg := llm.AssistantMessage(final)
	if err := e.session.finish(e, &msg, nil); err != nil {
		logger.Debug("discarding reply for closed session")
		return nil, err
	}

	h.OnComplete(final)

	duration := time.Since(start)
	logger.Info("reply complete",
		zap.Int("fragments", fragments),
		zap.Duration("duration", duration),
		zap.String("content_preview", truncate(final, 100)),
	)

	return &llm.ConversationTurn{
		Provider: e.config.Provider,
		Request:  e.request,
		Response: &llm.ChatResponse{
			Model:     e.request.Model,
			CreatedAt: time.Now(),
			Message:   msg,
			Fragments: fragments,
			Duration:  duration,
		},
	}, nil
}

// Abandon gives up an exchange that will not be Run. The user message stays
// in history and the session moves to StateFailed.
func (e *Exchange) Abandon() {
	e.once.Do(func() {
		e.cancel()
		_ = e.session.finish(e, nil, context.Canceled)
	})
}

func (e *Exchange) fail(logger *zap.Logger, cause error) error {
	err := e.session.finish(e, nil, cause)
	if errors.Is(err, ErrSessionClosed) {
		logger.Debug("exchange abandoned, session closed", zap.Error(cause))
		return err
	}

	logger.Warn("exchange failed", zap.Error(cause))
	return err
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
