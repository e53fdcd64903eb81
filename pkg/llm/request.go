package llm

// ChatRequest represents a chat completion request (OpenAI-compatible).
// Options are flattened onto the request body on the wire.
type ChatRequest struct {
	Model    string    `json:"model"`    // Model name (e.g., "gpt-4-0613")
	Messages []Message `json:"messages"` // Conversation history, oldest first
	Stream   bool      `json:"stream"`   // Whether to stream responses

	// Generation options
	Options
}

// NewChatRequest builds a streaming request for the given history. The history
// is copied so later appends by the caller do not alter the request.
func NewChatRequest(model string, history []Message, opts Options) *ChatRequest {
	messages := make([]Message, len(history))
	copy(messages, history)

	return &ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
		Options:  opts,
	}
}
