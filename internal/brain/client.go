// Package brain provides the HTTP client for the language-model service.
package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrEmptyReply is returned when the service answers with no text.
var ErrEmptyReply = errors.New("brain returned an empty reply")

// ClientConfig configures the brain client.
type ClientConfig struct {
	ServerURL string        // e.g. "http://localhost:8080"
	Timeout   time.Duration // HTTP request timeout
	UserID    string        // User ID for requests
	PersonaID string        // Persona ID for requests
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
		UserID:    "default-user",
		PersonaID: "luma",
	}
}

// askRequest is the wire envelope for a chat turn.
type askRequest struct {
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	PersonaID string `json:"persona_id"`
	Text      string `json:"text"`
	Context   string `json:"context,omitempty"`
}

// askResponse is the wire envelope for a reply.
type askResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Client manages communication with the brain service. One Client holds one
// session ID for its lifetime.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	sessionID  string
	logger     zerolog.Logger

	mu        sync.RWMutex
	connected bool

	onStatusChange func(connected bool)
	onError        func(err error)
}

// NewClient creates a brain client with a fresh session ID.
func NewClient(cfg *ClientConfig, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sessionID:  uuid.NewString(),
		logger:     logger.With().Str("component", "brain-client").Logger(),
	}
}

// SessionID returns the client's session identifier.
func (c *Client) SessionID() string {
	return c.sessionID
}

// SetStatusHandler sets the callback for connection status changes.
func (c *Client) SetStatusHandler(handler func(connected bool)) {
	c.onStatusChange = handler
}

// SetErrorHandler sets the callback for transport errors.
func (c *Client) SetErrorHandler(handler func(err error)) {
	c.onError = handler
}

// IsConnected returns the last known connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Ask sends the transcript (with optional conversation context) and returns
// the raw reply text. The call is aborted when ctx is cancelled; transport
// failures surface to the caller, which owns the error path.
func (c *Client) Ask(ctx context.Context, transcript, convContext string) (string, error) {
	reqBody := askRequest{
		SessionID: c.sessionID,
		RequestID: uuid.NewString(),
		UserID:    c.config.UserID,
		PersonaID: c.config.PersonaID,
		Text:      transcript,
		Context:   convContext,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.ServerURL + "/v1/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("requestId", reqBody.RequestID).Int("chars", len(transcript)).Msg("sending transcript")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setConnected(false)
		c.reportError(err)
		return "", fmt.Errorf("brain request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("brain request failed: %d - %s", resp.StatusCode, string(raw))
		c.reportError(err)
		return "", err
	}

	var parsed askResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode reply: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("brain error: %s", parsed.Error)
	}
	if parsed.Text == "" {
		return "", ErrEmptyReply
	}

	c.setConnected(true)
	return parsed.Text, nil
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	changed := c.connected != connected
	c.connected = connected
	c.mu.Unlock()

	if changed && c.onStatusChange != nil {
		c.onStatusChange(connected)
	}
}

func (c *Client) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}
