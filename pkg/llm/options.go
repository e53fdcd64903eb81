package llm

const (
	// DefaultTemperature is the sampling temperature used for farm guru replies.
	DefaultTemperature = 0.75

	// DefaultMaxTokens caps the length of a single reply.
	DefaultMaxTokens = 225
)

// Options contains model inference parameters.
type Options struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold

	// Length parameters
	MaxTokens *int `json:"max_tokens,omitempty"` // Max tokens to generate

	// Stop sequences
	Stop []string `json:"stop,omitempty"` // Stop generation at these sequences
}

// DefaultOptions returns the generation parameters replies are produced with
// unless configuration says otherwise.
func DefaultOptions() Options {
	return Options{
		Temperature: Float(DefaultTemperature),
		MaxTokens:   Int(DefaultMaxTokens),
	}
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}
