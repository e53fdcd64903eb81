// Package openai streams chat completions from the OpenAI API (or any
// OpenAI-compatible endpoint) using the official SDK.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// ProviderName identifies this provider in turns and errors.
const ProviderName = "openai"

// Config holds connection settings for the OpenAI API.
type Config struct {
	APIKey       string
	Organization string

	// BaseURL overrides the API endpoint, e.g. for a compatible gateway.
	BaseURL string

	// HTTPClient is used for requests when set.
	HTTPClient *http.Client

	// RequestOptions are appended after the options derived from the fields
	// above.
	RequestOptions []option.RequestOption
}

// Client implements llm.Completer on top of openai-go.
type Client struct {
	client *openai.Client
	logger *zap.Logger
}

var _ llm.Completer = (*Client)(nil)

// New creates a new Client.
func New(config Config, logger *zap.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.Organization != "" {
		opts = append(opts, option.WithOrganization(config.Organization))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	opts = append(opts, config.RequestOptions...)

	return &Client{
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

// Stream implements llm.Completer.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	params := newParams(req)

	c.logger.Debug("opening completion stream",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)

	return &stream{
		upstream: c.client.Chat.Completions.NewStreaming(ctx, params),
	}, nil
}

func newParams(req *llm.ChatRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: openai.F(toMessages(req.Messages)),
		Model:    openai.F(req.Model),
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}
	if len(req.Stop) > 0 {
		params.Stop = openai.F[openai.ChatCompletionNewParamsStopUnion](openai.ChatCompletionNewParamsStopArray(req.Stop))
	}

	return params
}

func toMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// stream adapts the SDK's server-sent event stream to llm.Stream. Chunks
// without content (role announcements, finish markers) are skipped.
type stream struct {
	upstream *ssestream.Stream[openai.ChatCompletionChunk]
	current  string
}

func (s *stream) Next() bool {
	for s.upstream.Next() {
		chunk := s.upstream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		s.current = chunk.Choices[0].Delta.Content
		return true
	}
	return false
}

func (s *stream) Current() string {
	return s.current
}

func (s *stream) Err() error {
	err := s.upstream.Err()
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &llm.APIError{
			Provider:   ProviderName,
			StatusCode: apiErr.StatusCode,
			Message:    errorMessage(apiErr),
		}
	}
	return err
}

// errorMessage returns the provider's reason for a failed request. OpenAI
// nests it under "error", which the SDK leaves in the raw body.
func errorMessage(apiErr *openai.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(apiErr.JSON.RawJSON()), &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return http.StatusText(apiErr.StatusCode)
}

func (s *stream) Close() error {
	return s.upstream.Close()
}
