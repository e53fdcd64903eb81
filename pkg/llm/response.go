package llm

import "time"

// ChatResponse represents a completed, fully accumulated streamed reply.
type ChatResponse struct {
	Model     string    `json:"model"`      // Model that generated the response
	CreatedAt time.Time `json:"created_at"` // Time the stream finished
	Message   Message   `json:"message"`    // The assistant's response

	// Metrics
	Fragments int           `json:"fragments"` // Number of streamed fragments
	Duration  time.Duration `json:"duration"`  // Time from request to last fragment
}
