package guidecmder

import (
	"context"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// unavailable fails every request with the reason chat cannot be used.
type unavailable struct {
	err error
}

func (u unavailable) Stream(context.Context, *llm.ChatRequest) (llm.Stream, error) {
	return nil, u.err
}
