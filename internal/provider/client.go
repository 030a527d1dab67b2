// ABOUTME: HTTP client for the remote conversational-AI provider
// ABOUTME: Wraps agent provisioning, de-provisioning, and outbound call dispatch

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the provider API endpoint used when none is configured.
const DefaultBaseURL = "https://api.elevenlabs.io"

// ErrProvider is the sentinel wrapped by every provider-side failure.
var ErrProvider = errors.New("provider request failed")

// Config holds provider client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the conversational-AI provider's REST API.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a provider client from config.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "provider"),
	}
}

// createAgentRequest is the JSON body for agent provisioning.
// The conversation config nests the system prompt the way the provider expects.
type createAgentRequest struct {
	Name               string             `json:"name"`
	ConversationConfig conversationConfig `json:"conversation_config"`
}

type conversationConfig struct {
	Agent agentConfig `json:"agent"`
}

type agentConfig struct {
	Prompt promptConfig `json:"prompt"`
}

type promptConfig struct {
	Prompt string `json:"prompt"`
}

// createAgentResponse is the JSON response from agent provisioning.
type createAgentResponse struct {
	AgentID string `json:"agent_id"`
}

// outboundCallRequest is the JSON body for dispatching an outbound call.
type outboundCallRequest struct {
	AgentID string `json:"agent_id"`
}

// CreateAgent provisions a remote agent and returns the provider-assigned ID.
func (c *Client) CreateAgent(ctx context.Context, name, systemPrompt string) (string, error) {
	reqBody := createAgentRequest{
		Name: name,
		ConversationConfig: conversationConfig{
			Agent: agentConfig{
				Prompt: promptConfig{Prompt: systemPrompt},
			},
		},
	}

	var resp createAgentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/convai/agents/create", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.AgentID == "" {
		return "", fmt.Errorf("%w: response missing agent_id", ErrProvider)
	}

	c.logger.Info("provisioned remote agent", "agent_id", resp.AgentID, "name", name)
	return resp.AgentID, nil
}

// DeleteAgent de-provisions a remote agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	path := "/v1/convai/agents/" + url.PathEscape(agentID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}

	c.logger.Info("de-provisioned remote agent", "agent_id", agentID)
	return nil
}

// StartOutboundCall asks the provider to place an outbound call through the agent.
func (c *Client) StartOutboundCall(ctx context.Context, agentID string) error {
	reqBody := outboundCallRequest{AgentID: agentID}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/convai/twilio/outbound-call", reqBody, nil); err != nil {
		return err
	}

	c.logger.Info("dispatched outbound call", "agent_id", agentID)
	return nil
}

// doJSON issues a request with the API key header, encoding body and decoding
// the response into out when non-nil. Non-2xx statuses wrap ErrProvider.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrProvider, method, path, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrProvider, err)
		}
	}

	return nil
}
