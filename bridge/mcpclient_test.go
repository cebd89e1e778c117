package bridge

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/types"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestMCPClientSession(t *testing.T) {
	ctx := testContext(t)

	err := WithSession(ctx, fakeServerConfig(), nil, func(ctx context.Context, client *MCPClient) error {
		tools, err := client.ListTools(ctx)
		require.NoError(t, err)

		names := make([]string, len(tools))
		for i, tool := range tools {
			names[i] = tool.Name
		}
		assert.Equal(t, []string{"echo", "fail", "ping-back", "env"}, names)
		assert.Equal(t, []string{"text"}, tools[0].InputSchema.Required)

		out, err := client.CallTool(ctx, "echo", map[string]interface{}{"text": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", out)

		_, err = client.CallTool(ctx, "fail", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrToolExecution))
		assert.Contains(t, err.Error(), "boom")

		out, err = client.CallTool(ctx, "ping-back", nil)
		require.NoError(t, err)
		assert.Equal(t, "pong", out)

		out, err = client.CallTool(ctx, "env", nil)
		require.NoError(t, err)
		assert.Equal(t, "from-config", out)

		_, err = client.CallTool(ctx, "missing", nil)
		assert.True(t, errors.Is(err, types.ErrToolExecution))
		return nil
	})
	require.NoError(t, err)
}

func TestInitializeReportsServerInfo(t *testing.T) {
	ctx := testContext(t)
	client, err := NewMCPClient(fakeServerConfig(), nil)
	require.NoError(t, err)
	defer client.Close()

	info, err := client.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fake", info.ServerInfo.Name)
	assert.Equal(t, "2024-11-05", info.ProtocolVersion)

	require.NoError(t, client.Close())
	// second close is a no-op
	require.NoError(t, client.Close())

	_, err = client.ListTools(ctx)
	assert.True(t, errors.Is(err, types.ErrSession))
}

func TestWithSessionReleasesOnError(t *testing.T) {
	sentinel := errors.New("demo failed")
	var seen *MCPClient

	err := WithSession(testContext(t), fakeServerConfig(), nil, func(ctx context.Context, client *MCPClient) error {
		seen = client
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	require.NotNil(t, seen)
	assert.NotNil(t, seen.cmd.ProcessState, "process must be reaped")
}

func TestNewMCPClientBadCommand(t *testing.T) {
	_, err := NewMCPClient(config.MCPServerConfig{Name: "nope", Command: "/nonexistent/mcp-server"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSession))
}

func TestLoadMCPToolsProxies(t *testing.T) {
	ctx := testContext(t)
	err := WithSession(ctx, fakeServerConfig(), nil, func(ctx context.Context, client *MCPClient) error {
		tools, err := LoadMCPTools(ctx, client)
		require.NoError(t, err)
		require.Len(t, tools, 4)

		out, err := tools[0].Invoke(ctx, map[string]interface{}{"text": "via proxy"})
		require.NoError(t, err)
		assert.Equal(t, "via proxy", out)
		assert.Equal(t, "echo", Specs(tools)[0].Name)
		return nil
	})
	require.NoError(t, err)
}

func TestRelayOverMCP(t *testing.T) {
	ctx := testContext(t)
	err := WithSession(ctx, fakeServerConfig(), nil, func(ctx context.Context, client *MCPClient) error {
		tools, err := LoadMCPTools(ctx, client)
		require.NoError(t, err)

		model := &scriptedModel{replies: []*types.LLMResponse{
			toolCallReply(types.NewToolCall("call_1", "echo", map[string]interface{}{"text": "project-a\nproject-b"})),
			textReply("project-a, project-b"),
		}}

		final, err := NewRelay(model, tools, nil).Ask(ctx, "List the projects I take part in")
		require.NoError(t, err)
		assert.Equal(t, "project-a, project-b", final.Content)

		require.Len(t, model.calls, 2)
		last := model.calls[1][len(model.calls[1])-1]
		assert.Equal(t, types.ToolResult("call_1", "project-a\nproject-b"), last)
		return nil
	})
	require.NoError(t, err)
}

func TestLineCodecSkipsNoise(t *testing.T) {
	input := "Installed 12 packages in 30ms\n\n[1, 2]\n{\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{}}\n"
	var msg map[string]interface{}
	require.NoError(t, lineCodec{}.ReadObject(bufio.NewReader(strings.NewReader(input)), &msg))
	assert.Equal(t, "2.0", msg["jsonrpc"])

	var buf bytes.Buffer
	require.NoError(t, lineCodec{}.WriteObject(&buf, map[string]int{"id": 2}))
	assert.Equal(t, "{\"id\":2}\n", buf.String())
}

func TestDevelopmentModeWarning(t *testing.T) {
	assert.True(t, isDevelopmentModeWarning("WARN: Running in development mode"))
	assert.False(t, isDevelopmentModeWarning("ready"))
}
