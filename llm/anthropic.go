// llm/anthropic.go
package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/metrics"
	"github.com/sammcj/promptlab/types"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient talks to the Anthropic Messages API
type AnthropicClient struct {
	client  *anthropic.Client
	params  config.ModelParams
	tools   []mcp.Tool
	names   toolNames
	onToken StreamHandler
	logger  *logrus.Entry
}

// NewAnthropicClient creates a Messages API client
func NewAnthropicClient(params config.ModelParams, opts ...Option) *AnthropicClient {
	s := newSettings(opts)

	reqOpts := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
		option.WithMaxRetries(params.MaxRetries),
	}
	if params.APIBase != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(params.APIBase))
	}
	if params.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(params.Timeout))
	}

	return &AnthropicClient{
		client:  anthropic.NewClient(reqOpts...),
		params:  params,
		names:   toolNames{},
		onToken: s.onToken,
		logger:  s.logger.WithField("provider", config.ProviderAnthropic),
	}
}

// BindTools returns a copy of the client that offers tools on every request
func (c *AnthropicClient) BindTools(tools []mcp.Tool) ChatModel {
	cp := *c
	cp.tools = append([]mcp.Tool(nil), tools...)
	cp.names = newToolNames(tools, c.logger)
	return &cp
}

// Generate sends the conversation and returns the reply
func (c *AnthropicClient) Generate(ctx context.Context, messages []types.Message) (*types.LLMResponse, error) {
	start := time.Now()
	resp, err := c.generate(ctx, messages)
	metrics.RecordModelRequest(config.ProviderAnthropic, err, time.Since(start))
	return resp, err
}

func (c *AnthropicClient) generate(ctx context.Context, messages []types.Message) (*types.LLMResponse, error) {
	system, msgs := toAnthropicMessages(messages, c.names)

	maxTokens := int64(c.params.MaxTokens)
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(c.params.Model)),
		MaxTokens:   anthropic.F(maxTokens),
		Messages:    anthropic.F(msgs),
		Temperature: anthropic.F(c.params.Temperature),
	}
	if len(system) > 0 {
		params.System = anthropic.F(system)
	}
	if len(c.tools) > 0 {
		params.Tools = anthropic.F(c.toolParams())
	}

	c.logger.WithFields(logrus.Fields{
		"model":     c.params.Model,
		"messages":  len(msgs),
		"tools":     len(c.tools),
		"streaming": c.params.Streaming,
	}).Debug("sending message")

	if !c.params.Streaming {
		message, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, &types.LLMError{Operation: "messages", Message: "request failed", Err: err}
		}
		return c.fromMessage(message)
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			c.logger.WithError(err).Warn("dropping malformed stream event")
			continue
		}

		if delta, ok := event.AsUnion().(anthropic.ContentBlockDeltaEvent); ok && c.onToken != nil {
			if delta.Delta.Type == anthropic.ContentBlockDeltaEventDeltaTypeTextDelta {
				c.onToken(delta.Delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, &types.LLMError{Operation: "messages_stream", Message: "streaming error", Err: err}
	}
	return c.fromMessage(&message)
}

func (c *AnthropicClient) toolParams() []anthropic.ToolParam {
	params := make([]anthropic.ToolParam, 0, len(c.tools))
	for _, tool := range c.tools {
		params = append(params, anthropic.ToolParam{
			Name:        anthropic.F(c.names.wireName(tool.Name)),
			Description: anthropic.F(tool.Description),
			InputSchema: anthropic.F(interface{}(inputSchema(tool))),
		})
	}
	return params
}

func (c *AnthropicClient) fromMessage(message *anthropic.Message) (*types.LLMResponse, error) {
	resp := &types.LLMResponse{
		FinishReason: string(message.StopReason),
		Usage: &types.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}

	for _, block := range message.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			var input map[string]interface{}
			inputBytes, _ := json.Marshal(block.Input)
			if err := json.Unmarshal(inputBytes, &input); err != nil {
				return nil, &types.LLMError{Operation: "decode_tool_call", Message: "failed to parse tool input for " + block.Name, Err: err}
			}
			resp.ToolCalls = append(resp.ToolCalls, types.NewToolCall(block.ID, c.names.original(block.Name), input))
		}
	}
	return resp, nil
}

// toAnthropicMessages splits out system text and folds consecutive tool results into one user turn
func toAnthropicMessages(messages []types.Message, names toolNames) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var out []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pendingResults) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range messages {
		if m.Role == types.RoleTool {
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
			continue
		}
		flush()

		switch m.Role {
		case types.RoleSystem:
			system = append(system, anthropic.NewTextBlock(m.Content))
		case types.RoleAI:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlockParam(call.ID, names.wireName(call.Function.Name), call.Function.Arguments))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()
	return system, out
}
