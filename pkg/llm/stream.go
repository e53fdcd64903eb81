package llm

import "context"

// Completer opens streaming chat completions against a provider.
type Completer interface {
	// Stream sends the request and returns the reply as a stream of fragments.
	// An error returned here means no request was made or it was refused
	// before any content was produced; errors during streaming are reported
	// by Stream.Err.
	Stream(ctx context.Context, req *ChatRequest) (Stream, error)
}

// Stream is a finite, non-restartable sequence of text fragments.
//
//	for s.Next() {
//		fmt.Print(s.Current())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream interface {
	// Next advances to the next fragment. It returns false when the stream
	// is exhausted or failed.
	Next() bool

	// Current returns the fragment Next advanced to.
	Current() string

	// Err returns the error that ended the stream, if any.
	Err() error

	// Close releases the underlying connection.
	Close() error
}
