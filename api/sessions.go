package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/transcript"
)

// Stream event types written by POST /sessions/:id/messages.
const (
	EventFragment = "fragment"
	EventComplete = "complete"
	EventError    = "error"
)

// SessionResponse describes a session and its conversation so far.
type SessionResponse struct {
	ID         string                 `json:"id"`
	State      string                 `json:"state"`
	Error      string                 `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	Transcript *transcript.Transcript `json:"transcript"`
}

// MessageRequest is the body of POST /sessions/:id/messages.
type MessageRequest struct {
	Content string `json:"content"`
}

// StreamEvent is one line of a streamed reply.
type StreamEvent struct {
	Type string `json:"type"`

	// Content is the reply so far for fragments, and the full reply on
	// completion
	Content string `json:"content,omitempty"`

	Error string `json:"error,omitempty"`

	// Set on completion
	HeadHash  string `json:"head_hash,omitempty"`
	Fragments int    `json:"fragments,omitempty"`
}

func newSessionResponse(sess *chat.Session) (SessionResponse, *transcript.Transcript) {
	t := transcript.Build(sess.History())
	resp := SessionResponse{
		ID:         sess.ID(),
		State:      sess.State().String(),
		CreatedAt:  sess.CreatedAt(),
		Transcript: t,
	}
	if err := sess.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp, t
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess := s.manager.Load().NewSession()
	s.store.Add(sess)

	s.logger.Info("session started",
		zap.String("session_id", sess.ID()),
		zap.Int("live_sessions", s.store.Len()),
	)

	resp, t := newSessionResponse(sess)
	c.Set(fiber.HeaderETag, etag(t))
	c.Set(fiber.HeaderLocation, "/sessions/"+sess.ID())
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}

	resp, t := newSessionResponse(sess)
	tag := etag(t)
	c.Set(fiber.HeaderETag, tag)

	if match := c.Get(fiber.HeaderIfNoneMatch); match != "" && match == tag {
		return c.SendStatus(fiber.StatusNotModified)
	}

	// ?since=<hash> trims the transcript to the messages after a head the
	// client already has
	if since := c.Query("since"); since != "" {
		entries, ok := t.Since(since)
		if !ok {
			return errorJSON(c, fiber.StatusConflict, "unknown transcript hash")
		}
		resp.Transcript = &transcript.Transcript{
			Messages: entries,
			HeadHash: t.HeadHash,
			Depth:    t.Depth,
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.store.End(id); err != nil {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}

	s.logger.Info("session ended",
		zap.String("session_id", id),
		zap.Int("live_sessions", s.store.Len()),
	)
	return c.SendStatus(fiber.StatusNoContent)
}

// handlePostMessage submits a user message and streams the reply. Rejections
// are reported with a status code before anything is streamed; once the
// stream starts, failures arrive as an error event.
func (s *Server) handlePostMessage(c *fiber.Ctx) error {
	if !s.limiter.allow(c.IP()) {
		return errorJSON(c, fiber.StatusTooManyRequests, "rate limit exceeded")
	}

	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}

	var req MessageRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Debug("failed to parse message", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	s.logger.Debug("received message",
		zap.String("session_id", sess.ID()),
		zap.String("client", c.IP()),
		zap.String("content_preview", truncate(req.Content, 50)),
	)

	// The reply outlives this handler, so it is bound to its own context
	// which is cancelled when the client goes away.
	ctx, cancel := context.WithCancel(context.Background())

	ex, err := s.manager.Load().Begin(ctx, sess, req.Content)
	if err != nil {
		cancel()
		return s.rejectMessage(c, sess, err)
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderTransferEncoding, "chunked")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		write := func(ev StreamEvent) {
			if ctx.Err() != nil {
				return
			}
			line, _ := json.Marshal(ev)
			w.Write(line)
			w.Write([]byte("\n"))
			if err := w.Flush(); err != nil {
				s.logger.Debug("client went away", zap.String("session_id", sess.ID()), zap.Error(err))
				cancel()
			}
		}

		turn, err := ex.Run(chat.HandlerFuncs{
			Fragment: func(partial string) {
				write(StreamEvent{Type: EventFragment, Content: partial})
			},
		})
		if err != nil {
			write(StreamEvent{Type: EventError, Error: err.Error()})
			return
		}

		write(StreamEvent{
			Type:      EventComplete,
			Content:   turn.Response.Message.Content,
			HeadHash:  transcript.Build(sess.History()).HeadHash,
			Fragments: turn.Response.Fragments,
		})
	}))

	return nil
}

func (s *Server) rejectMessage(c *fiber.Ctx, sess *chat.Session, err error) error {
	s.logger.Debug("message rejected",
		zap.String("session_id", sess.ID()),
		zap.Error(err),
	)

	switch {
	case errors.Is(err, chat.ErrInputRejected):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrConcurrentSubmit):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrSessionClosed):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	default:
		return errorJSON(c, fiber.StatusInternalServerError, "internal error")
	}
}

// etag quotes the transcript head. An empty history still gets a valid tag.
func etag(t *transcript.Transcript) string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(t.HeadHash)
	b.WriteByte('"')
	return b.String()
}
