package ollama

import (
	"time"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// chatRequest is the Ollama /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   *bool         `json:"stream,omitempty"` // Ollama defaults to streaming

	// Generation options
	Options *options `json:"options,omitempty"`
}

// options contains Ollama's model inference parameters.
type options struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"` // Max tokens to generate
	Stop        []string `json:"stop,omitempty"`
}

// streamChunk represents a single line in a streaming response.
type streamChunk struct {
	Model     string      `json:"model"`
	CreatedAt time.Time   `json:"created_at"`
	Message   llm.Message `json:"message"`
	Done      bool        `json:"done"`
	Error     string      `json:"error,omitempty"`

	// Final chunk includes metrics
	TotalDuration int64 `json:"total_duration,omitempty"`
	EvalCount     int   `json:"eval_count,omitempty"`
}

func newChatRequest(req *llm.ChatRequest) *chatRequest {
	stream := true
	out := &chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   &stream,
	}

	if req.Temperature != nil || req.TopP != nil || req.MaxTokens != nil || len(req.Stop) > 0 {
		out.Options = &options{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			NumPredict:  req.MaxTokens,
			Stop:        req.Stop,
		}
	}

	return out
}
