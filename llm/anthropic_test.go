package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/types"
)

type anthropicRequest struct {
	Model     string  `json:"model"`
	MaxTokens int     `json:"max_tokens"`
	Stream    bool    `json:"stream"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string                   `json:"role"`
		Content []map[string]interface{} `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Name        string                 `json:"name"`
		InputSchema map[string]interface{} `json:"input_schema"`
	} `json:"tools"`
}

func anthropicParams(url string, streaming bool) config.ModelParams {
	p := testParams(url, streaming)
	p.Provider = config.ProviderAnthropic
	return p
}

// anthropicServer answers /v1/messages with reply and records the decoded request
func anthropicServer(t *testing.T, got *anthropicRequest, contentType, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", contentType)
		fmt.Fprint(w, reply)
	}))
}

func TestAnthropicGenerateDecodesToolUse(t *testing.T) {
	var got anthropicRequest
	server := anthropicServer(t, &got, "application/json", `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "test-model",
		"content": [
			{"type": "text", "text": "Let me look."},
			{"type": "tool_use", "id": "toolu_1", "name": "list_files", "input": {"path": "/tmp"}}
		],
		"stop_reason": "tool_use", "stop_sequence": null,
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`)
	defer server.Close()

	prior := types.NewToolCall("toolu_0", "list-files", map[string]interface{}{"path": "/"})
	model := NewAnthropicClient(anthropicParams(server.URL, false)).BindTools([]mcp.Tool{listFilesTool()})
	resp, err := model.Generate(context.Background(), []types.Message{
		types.System("be brief"),
		types.Human("what is in /tmp?"),
		{Role: types.RoleAI, ToolCalls: []types.ToolCall{prior}},
		types.ToolResult("toolu_0", "tmp"),
	})
	require.NoError(t, err)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, defaultAnthropicMaxTokens, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.System, 1)
	assert.Equal(t, "be brief", got.System[0].Text)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "list_files", got.Tools[0].Name)
	assert.Equal(t, []interface{}{"path"}, got.Tools[0].InputSchema["required"])

	// replayed tool calls go out under the same wire name
	require.Len(t, got.Messages, 3)
	require.Len(t, got.Messages[1].Content, 1)
	assert.Equal(t, "tool_use", got.Messages[1].Content[0]["type"])
	assert.Equal(t, "list_files", got.Messages[1].Content[0]["name"])
	assert.Equal(t, "tool_result", got.Messages[2].Content[0]["type"])

	assert.Equal(t, "Let me look.", resp.Content)
	assert.Equal(t, "tool_use", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "list-files", resp.ToolCalls[0].Function.Name)
	assert.Equal(t, map[string]interface{}{"path": "/tmp"}, resp.ToolCalls[0].Function.Arguments)
}

func TestAnthropicGenerateStreaming(t *testing.T) {
	events := []struct{ name, data string }{
		{"message_start", `{"type":"message_start","message":{"id":"msg_2","type":"message","role":"assistant","model":"test-model","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":7,"output_tokens":1}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"ping", `{"type":"ping"}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":", world"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_2","name":"list_files","input":{}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"path\": "}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"/srv\"}"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":1}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":9}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}
	var body strings.Builder
	for _, e := range events {
		fmt.Fprintf(&body, "event: %s\ndata: %s\n\n", e.name, e.data)
	}

	var got anthropicRequest
	server := anthropicServer(t, &got, "text/event-stream", body.String())
	defer server.Close()

	var tokens []string
	model := NewAnthropicClient(anthropicParams(server.URL, true), WithStreamHandler(func(tok string) {
		tokens = append(tokens, tok)
	})).BindTools([]mcp.Tool{listFilesTool()})

	resp, err := model.Generate(context.Background(), []types.Message{types.Human("hi")})
	require.NoError(t, err)

	assert.True(t, got.Stream)
	assert.Equal(t, []string{"Hello", ", world"}, tokens)
	assert.Equal(t, "Hello, world", resp.Content)
	assert.Equal(t, "tool_use", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_2", resp.ToolCalls[0].ID)
	assert.Equal(t, "list-files", resp.ToolCalls[0].Function.Name)
	assert.Equal(t, map[string]interface{}{"path": "/srv"}, resp.ToolCalls[0].Function.Arguments)
}

func TestAnthropicGenerateErrorStatus(t *testing.T) {
	for _, streaming := range []bool{false, true} {
		t.Run(fmt.Sprintf("streaming=%t", streaming), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`)
			}))
			defer server.Close()

			_, err := NewAnthropicClient(anthropicParams(server.URL, streaming)).Generate(context.Background(), []types.Message{types.Human("hi")})
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrLLMResponse))

			var llmErr *types.LLMError
			require.ErrorAs(t, err, &llmErr)
		})
	}
}

func TestAnthropicBindToolsKeepsCollidingNamesDistinct(t *testing.T) {
	var got anthropicRequest
	server := anthropicServer(t, &got, "application/json", `{
		"id": "msg_3", "type": "message", "role": "assistant", "model": "test-model",
		"content": [{"type": "tool_use", "id": "toolu_3", "name": "a_b_2", "input": {}}],
		"stop_reason": "tool_use", "stop_sequence": null,
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`)
	defer server.Close()

	model := NewAnthropicClient(anthropicParams(server.URL, false)).BindTools([]mcp.Tool{{Name: "a-b"}, {Name: "a_b"}})
	resp, err := model.Generate(context.Background(), []types.Message{types.Human("hi")})
	require.NoError(t, err)

	require.Len(t, got.Tools, 2)
	assert.Equal(t, "a_b", got.Tools[0].Name)
	assert.Equal(t, "a_b_2", got.Tools[1].Name)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "a_b", resp.ToolCalls[0].Function.Name)
}
