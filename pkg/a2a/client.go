package a2a

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientConfig holds configuration for the A2A client
type ClientConfig struct {
	// Timeout for HTTP requests
	Timeout time.Duration
	// Custom HTTP client (optional)
	HTTPClient *http.Client
	// Base URL for the A2A server
	BaseURL string
	// Additional headers to include in requests
	Headers map[string]string
	// RetryCount retries requests that failed at the transport level
	RetryCount int
}

// DefaultClientConfig returns a default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout: 30 * time.Second,
		Headers: make(map[string]string),
	}
}

// Client is an A2A client for communicating with remote agents
type Client struct {
	http      *resty.Client
	agentCard *AgentCard
	baseURL   string
}

// NewClient creates a new A2A client
func NewClient(agentCard *AgentCard, config *ClientConfig) (*Client, error) {
	if agentCard == nil {
		return nil, fmt.Errorf("agent card cannot be nil")
	}
	if config == nil {
		config = DefaultClientConfig()
	}

	// Use URL from agent card if not overridden
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = agentCard.URL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("agent card has no url and no base url was configured")
	}

	return &Client{
		http:      newRestyClient(config),
		agentCard: agentCard,
		baseURL:   baseURL,
	}, nil
}

func newRestyClient(config *ClientConfig) *resty.Client {
	var r *resty.Client
	if config.HTTPClient != nil {
		r = resty.NewWithClient(config.HTTPClient)
	} else {
		r = resty.New()
		r.SetTimeout(config.Timeout)
	}
	r.SetRetryCount(config.RetryCount)
	r.SetHeaders(config.Headers)
	r.SetJSONMarshaler(json.Marshal)
	r.SetJSONUnmarshaler(json.Unmarshal)
	return r
}

// AgentCard returns the card the client was built from.
func (c *Client) AgentCard() *AgentCard {
	return c.agentCard
}

// SendMessage calls message/send. The result is a *Message or a *Task.
func (c *Client) SendMessage(ctx context.Context, params *MessageSendParams) (any, error) {
	raw, err := c.call(ctx, MethodSendMessage, params)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return UnmarshalEvent(raw)
}

// SendMessageStream calls message/stream and hands each event to eventHandler
// until the stream ends.
func (c *Client) SendMessageStream(ctx context.Context, params *MessageSendParams, eventHandler func(event any) error) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetBody(newRequest(MethodStreamMessage, params)).
		SetDoNotParseResponse(true).
		Post(c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		data, _ := io.ReadAll(body)
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), string(data))
	}

	// A protocol error raised before the first event comes back as plain JSON.
	if !strings.Contains(resp.Header().Get("Content-Type"), "text/event-stream") {
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		raw, err := decodeResponse(data)
		if err != nil {
			return err
		}
		event, err := UnmarshalEvent(raw)
		if err != nil {
			return err
		}
		return eventHandler(event)
	}

	return processSSEStream(body, eventHandler)
}

// processSSEStream dispatches each SSE event's data as a JSON-RPC response.
func processSSEStream(body io.Reader, eventHandler func(event any) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var data strings.Builder
	dispatch := func() error {
		if data.Len() == 0 {
			return nil
		}
		payload := data.String()
		data.Reset()

		raw, err := decodeResponse([]byte(payload))
		if err != nil {
			return err
		}
		event, err := UnmarshalEvent(raw)
		if err != nil {
			slog.Warn("Failed to parse SSE data", "data", payload, "error", err)
			return nil
		}
		if err := eventHandler(event); err != nil {
			return fmt.Errorf("event handler error: %w", err)
		}
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := dispatch(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read SSE stream: %w", err)
	}
	return dispatch()
}

// GetTask retrieves task details by ID
func (c *Client) GetTask(ctx context.Context, params *TaskQueryParams) (*Task, error) {
	raw, err := c.call(ctx, MethodGetTask, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	return &task, nil
}

// CancelTask cancels a task by ID
func (c *Client) CancelTask(ctx context.Context, params *TaskIdParams) (*Task, error) {
	raw, err := c.call(ctx, MethodCancelTask, params)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel task: %w", err)
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	return &task, nil
}

// call sends a JSON-RPC request and returns the raw result. A JSON-RPC error
// in the response is returned as a *JSONRPCError.
func (c *Client) call(ctx context.Context, method string, params any) (jsoniter.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(newRequest(method, params)).
		Post(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), resp.String())
	}
	return decodeResponse(resp.Body())
}

func newRequest(method string, params any) *JSONRPCRequest {
	return &JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      generateRequestID(),
		Method:  method,
		Params:  params,
	}
}

func decodeResponse(data []byte) (jsoniter.RawMessage, error) {
	var response struct {
		Result jsoniter.RawMessage `json:"result"`
		Error  *JSONRPCError       `json:"error"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if response.Error != nil {
		return nil, response.Error
	}
	return response.Result, nil
}

// UnmarshalEvent decodes a message/send result or stream event according to
// its kind.
func UnmarshalEvent(data []byte) (any, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	var event any
	switch probe.Kind {
	case KindMessage:
		event = &Message{}
	case KindTask:
		event = &Task{}
	case KindStatusUpdate:
		event = &TaskStatusUpdateEvent{}
	case KindArtifactUpdate:
		event = &TaskArtifactUpdateEvent{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", probe.Kind)
	}
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", probe.Kind, err)
	}
	return event, nil
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return "req_" + uuid.NewString()
}

// AgentCardResolver helps resolve agent cards from URLs
type AgentCardResolver struct {
	http    *resty.Client
	baseURL string
}

// NewAgentCardResolver creates a new agent card resolver
func NewAgentCardResolver(baseURL string, httpClient *http.Client) *AgentCardResolver {
	config := DefaultClientConfig()
	config.HTTPClient = httpClient
	return &AgentCardResolver{
		http:    newRestyClient(config),
		baseURL: baseURL,
	}
}

// errCardNotFound marks a 404 on a discovery path.
var errCardNotFound = errors.New("agent card not found")

// GetAgentCard fetches an agent card from a relative path
func (r *AgentCardResolver) GetAgentCard(ctx context.Context, relativePath string) (*AgentCard, error) {
	fullURL, err := url.JoinPath(r.baseURL, relativePath)
	if err != nil {
		return nil, fmt.Errorf("failed to construct URL: %w", err)
	}

	resp, err := r.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(fullURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w at %s", errCardNotFound, fullURL)
	default:
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), resp.String())
	}

	var agentCard AgentCard
	if err := json.Unmarshal(resp.Body(), &agentCard); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	return &agentCard, nil
}

// GetWellKnownAgentCard fetches the agent card from the well-known path,
// falling back to the legacy agent.json path when the server lacks it.
func (r *AgentCardResolver) GetWellKnownAgentCard(ctx context.Context) (*AgentCard, error) {
	card, err := r.GetAgentCard(ctx, WellKnownAgentCardPath)
	if errors.Is(err, errCardNotFound) {
		return r.GetAgentCard(ctx, LegacyWellKnownAgentCardPath)
	}
	return card, err
}
