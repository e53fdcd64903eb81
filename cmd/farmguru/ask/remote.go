package askcmder

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

	"github.com/papercomputeco/farmguru/api"
	"github.com/papercomputeco/farmguru/pkg/llm"
	"github.com/papercomputeco/farmguru/pkg/transcript"
)

var (
	// errRemote is an error event received from the server.
	errRemote = errors.New("server reported an error")

	// errTranscriptMismatch means the server's history does not extend the
	// one this client has seen.
	errTranscriptMismatch = errors.New("server transcript does not match")
)

// remoteAsker holds one session on a farmguru server.
type remoteAsker struct {
	serverURL  string
	sessionID  string
	httpClient *http.Client

	// transcript mirrors the server's history as of the last reply
	transcript *transcript.Transcript
}

func newRemoteAsker(serverURL string) (*remoteAsker, error) {
	a := &remoteAsker{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			// Replies stream for a while, especially from local models
			Timeout: 5 * time.Minute,
		},
	}

	resp, err := a.httpClient.Post(a.serverURL+"/sessions", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}

	var session api.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	a.sessionID = session.ID

	if session.Transcript == nil || !session.Transcript.Verify() {
		return nil, errTranscriptMismatch
	}
	a.transcript = session.Transcript

	return a, nil
}

func (a *remoteAsker) ask(ctx context.Context, question string, out io.Writer) error {
	body, err := json.Marshal(api.MessageRequest{Content: question})
	if err != nil {
		return fmt.Errorf("could not marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.serverURL+"/sessions/"+a.sessionID+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	p := &printer{out: out}
	defer p.finish()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev api.StreamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("could not decode event: %w", err)
		}

		switch ev.Type {
		case api.EventFragment:
			p.partial(ev.Content)
		case api.EventComplete:
			p.partial(ev.Content)
			return a.sync(ctx, ev.HeadHash)
		case api.EventError:
			return fmt.Errorf("%w: %s", errRemote, ev.Error)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not read reply: %w", err)
	}
	return fmt.Errorf("%w: reply ended before completion", errRemote)
}

// sync fetches the messages added since the last known head and checks that
// they chain onto it and end at head.
func (a *remoteAsker) sync(ctx context.Context, head string) error {
	url := a.serverURL + "/sessions/" + a.sessionID + "?since=" + a.transcript.HeadHash
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w", errTranscriptMismatch, statusError(resp))
	}

	var session api.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	if session.Transcript == nil {
		return errTranscriptMismatch
	}

	a.transcript.Append(session.Transcript.Messages...)
	if !a.transcript.Verify() || a.transcript.HeadHash != head || a.transcript.Depth != session.Transcript.Depth {
		return errTranscriptMismatch
	}
	return nil
}

func (a *remoteAsker) close(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.serverURL+"/sessions/"+a.sessionID, nil)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func statusError(resp *http.Response) error {
	respBody, _ := io.ReadAll(resp.Body)

	var e llm.ErrorResponse
	if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}
