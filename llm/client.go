// llm/client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/metrics"
	"github.com/sammcj/promptlab/types"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 5 * time.Minute
	errorBodyLimit = 2048
)

// Client talks to an OpenAI-compatible /chat/completions endpoint
type Client struct {
	params  config.ModelParams
	http    *resty.Client
	tools   []mcp.Tool
	names   toolNames
	onToken StreamHandler
	logger  *logrus.Entry
}

// NewClient creates a new chat completions client
func NewClient(params config.ModelParams, opts ...Option) *Client {
	s := newSettings(opts)

	baseURL := params.APIBase
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := params.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	if params.APIKey != "" {
		client.SetAuthToken(params.APIKey)
	}

	if params.MaxRetries > 0 {
		client.SetRetryCount(params.MaxRetries).
			SetRetryWaitTime(time.Second).
			SetRetryMaxWaitTime(30 * time.Second)

		client.AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return isRetryableError(err)
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

		logger := s.logger
		client.AddRetryHook(func(resp *resty.Response, err error) {
			entry := logger.WithError(err)
			if resp != nil && resp.Request != nil {
				entry = entry.WithField("attempt", resp.Request.Attempt)
			}
			entry.Warn("retrying chat completion")
		})
	}

	return &Client{
		params:  params,
		http:    client,
		names:   toolNames{},
		onToken: s.onToken,
		logger:  s.logger.WithField("provider", config.ProviderOpenAI),
	}
}

// BindTools returns a copy of the client that offers tools on every request
func (c *Client) BindTools(tools []mcp.Tool) ChatModel {
	cp := *c
	cp.tools = append([]mcp.Tool(nil), tools...)
	cp.names = newToolNames(tools, c.logger)
	return &cp
}

// Generate sends the conversation and returns the reply
func (c *Client) Generate(ctx context.Context, messages []types.Message) (*types.LLMResponse, error) {
	start := time.Now()
	resp, err := c.generate(ctx, messages)
	metrics.RecordModelRequest(config.ProviderOpenAI, err, time.Since(start))
	return resp, err
}

func (c *Client) generate(ctx context.Context, messages []types.Message) (*types.LLMResponse, error) {
	wireMsgs, err := toWireMessages(messages, c.names)
	if err != nil {
		return nil, &types.LLMError{Operation: "encode_request", Message: "failed to encode messages", Err: err}
	}

	temperature := c.params.Temperature
	req := chatRequest{
		Model:       c.params.Model,
		Messages:    wireMsgs,
		Tools:       convertTools(c.tools, c.names),
		Temperature: &temperature,
		MaxTokens:   c.params.MaxTokens,
	}

	c.logger.WithFields(logrus.Fields{
		"model":     c.params.Model,
		"messages":  len(messages),
		"tools":     len(c.tools),
		"streaming": c.params.Streaming,
	}).Debug("sending chat completion")

	if c.params.Streaming {
		req.Stream = true
		req.StreamOptions = &streamOptions{IncludeUsage: true}
		return c.stream(ctx, req)
	}
	return c.complete(ctx, req)
}

func (c *Client) complete(ctx context.Context, req chatRequest) (*types.LLMResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return nil, &types.LLMError{Operation: "chat_completion", Message: "request failed", Err: err}
	}
	if resp.IsError() {
		return nil, errorFromStatus(resp.StatusCode(), resp.Body())
	}

	var body chatResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &types.LLMError{
			Operation: "chat_completion",
			Message:   "failed to decode response: " + truncate(string(resp.Body()), 200),
			Err:       err,
		}
	}
	if len(body.Choices) == 0 {
		return nil, &types.LLMError{Operation: "chat_completion", Message: "response has no choices"}
	}

	choice := body.Choices[0]
	result := &types.LLMResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        body.Usage,
	}
	for _, call := range choice.Message.ToolCalls {
		tc, err := decodeToolCall(call, c.names)
		if err != nil {
			return nil, err
		}
		result.ToolCalls = append(result.ToolCalls, tc)
	}

	c.logger.WithFields(logrus.Fields{
		"finish_reason": result.FinishReason,
		"tool_calls":    len(result.ToolCalls),
	}).Debug("received chat completion")
	return result, nil
}

func (c *Client) stream(ctx context.Context, req chatRequest) (*types.LLMResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetHeader("Accept", "text/event-stream").
		SetDoNotParseResponse(true).
		Post("/chat/completions")
	if err != nil {
		return nil, &types.LLMError{Operation: "chat_completion_stream", Message: "request failed", Err: err}
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(body, errorBodyLimit))
		return nil, errorFromStatus(resp.StatusCode(), data)
	}

	acc := newStreamAccumulator(c.names)
	if err := readEvents(body, func(chunk chatResponse) {
		if token := acc.add(chunk); token != "" && c.onToken != nil {
			c.onToken(token)
		}
	}); err != nil {
		return nil, &types.LLMError{Operation: "chat_completion_stream", Message: "failed to read stream", Err: err}
	}

	return acc.response()
}

// errorFromStatus builds an LLMError from a non-2xx reply, preferring the API's own message
func errorFromStatus(status int, body []byte) error {
	message := truncate(string(body), errorBodyLimit)
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}
	return &types.LLMError{
		Operation:  "chat_completion",
		Message:    message,
		StatusCode: status,
	}
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func (c *Client) String() string {
	return fmt.Sprintf("Client(model=%s, temperature=%.1f, streaming=%t)", c.params.Model, c.params.Temperature, c.params.Streaming)
}
