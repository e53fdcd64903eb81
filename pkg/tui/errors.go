package tui

import (
	"context"
	"errors"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/llm"
)

var errStreamClosed = errors.New("the reply ended without an answer")

// describeError turns chat errors into a line for the error display.
func describeError(err error) string {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, chat.ErrInputRejected):
		return "Type a question first."
	case errors.Is(err, chat.ErrConcurrentSubmit):
		return "Farm Guru is still answering."
	case errors.Is(err, context.Canceled):
		return "Reply cancelled. Your question is kept, ask again to retry."
	case errors.Is(err, llm.ErrRateLimited):
		return "The assistant is busy (rate limited). Try again in a moment."
	case errors.As(err, &apiErr) && apiErr.StatusCode == 401:
		return "The API key was rejected. Check FARMGURU_API_KEY."
	case errors.Is(err, chat.ErrEmptyReply):
		return "Farm Guru had nothing to say. Try rephrasing."
	default:
		return err.Error()
	}
}
