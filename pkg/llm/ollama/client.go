// Package ollama streams chat completions from an Ollama server's /api/chat
// endpoint, which replies with newline-delimited JSON chunks.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/llm"
)

// ProviderName identifies this provider in turns and errors.
const ProviderName = "ollama"

// DefaultURL is where a local Ollama listens.
const DefaultURL = "http://localhost:11434"

// Config is the Ollama client configuration.
type Config struct {
	// Upstream Ollama URL (e.g., "http://localhost:11434")
	URL string

	// HTTPClient is used for requests when set.
	HTTPClient *http.Client
}

// Client implements llm.Completer against Ollama.
type Client struct {
	url        string
	logger     *zap.Logger
	httpClient *http.Client
}

var _ llm.Completer = (*Client)(nil)

// New creates a new Client.
func New(config Config, logger *zap.Logger) *Client {
	url := strings.TrimRight(config.URL, "/")
	if url == "" {
		url = DefaultURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			// Local models can be slow to load before the first token
			Timeout: 5 * time.Minute,
		}
	}

	return &Client{
		url:        url,
		logger:     logger,
		httpClient: httpClient,
	}
}

// Stream implements llm.Completer.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	reqBody, err := json.Marshal(newChatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	upstreamURL := c.url + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, upstreamURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("opening completion stream",
		zap.String("url", upstreamURL),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		body, _ := io.ReadAll(httpResp.Body)
		return nil, &llm.APIError{
			Provider:   ProviderName,
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	return &stream{
		body:    httpResp.Body,
		scanner: bufio.NewScanner(httpResp.Body),
		logger:  c.logger,
	}, nil
}

// stream reads one JSON chunk per line until a chunk reports done.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *zap.Logger
	current string
	done    bool
	err     error
}

func (s *stream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.logger.Warn("failed to parse chunk", zap.Error(err), zap.String("line", string(line)))
			continue
		}

		if chunk.Error != "" {
			s.err = &llm.APIError{Provider: ProviderName, Message: chunk.Error}
			return false
		}

		if chunk.Done {
			s.done = true
		}

		if chunk.Message.Content == "" {
			if s.done {
				return false
			}
			continue
		}

		s.current = chunk.Message.Content
		return true
	}

	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("read stream: %w", err)
		return false
	}

	if !s.done {
		s.err = errors.New("stream ended before completion")
	}
	return false
}

func (s *stream) Current() string {
	return s.current
}

func (s *stream) Err() error {
	return s.err
}

func (s *stream) Close() error {
	return s.body.Close()
}

func errorMessage(body []byte) string {
	var resp llm.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(string(body))
}
