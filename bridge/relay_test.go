package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/promptlab/types"
)

var question = []types.Message{types.Human("List the projects I take part in, names only")}

func TestRelayWithoutToolCallsReturnsFirstResponse(t *testing.T) {
	reply := textReply("no tools needed")
	model := &scriptedModel{replies: []*types.LLMResponse{reply}}
	tool := newCountingTool("list_projects", "unused")

	got, err := NewRelay(model, []Tool{tool}, nil).Run(context.Background(), question)
	require.NoError(t, err)

	assert.Same(t, reply, got)
	assert.Len(t, model.calls, 1)
	assert.Equal(t, 0, tool.count())
}

func TestRelayWithOneMatchingCall(t *testing.T) {
	call := types.NewToolCall("call_1", "list_projects", map[string]interface{}{"q": "mine"})
	model := &scriptedModel{replies: []*types.LLMResponse{toolCallReply(call), textReply("Alpha, Beta")}}
	tool := newCountingTool("list_projects", "Alpha\nBeta")

	got, err := NewRelay(model, []Tool{tool}, nil).Run(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, "Alpha, Beta", got.Content)

	require.Equal(t, 1, tool.count())
	assert.Equal(t, map[string]interface{}{"q": "mine"}, tool.calls[0])

	require.Len(t, model.calls, 2)
	second := model.calls[1]
	require.Len(t, second, len(question)+2)
	assert.Equal(t, question[0], second[0])
	assert.Equal(t, types.RoleAI, second[1].Role)
	assert.Equal(t, []types.ToolCall{call}, second[1].ToolCalls)
	assert.Equal(t, types.ToolResult("call_1", "Alpha\nBeta"), second[2])
}

func TestRelayWithUnmatchedCallSkipsSecondRound(t *testing.T) {
	reply := toolCallReply(types.NewToolCall("call_1", "no_such_tool", nil))
	model := &scriptedModel{replies: []*types.LLMResponse{reply}}
	tool := newCountingTool("list_projects", "unused")

	got, err := NewRelay(model, []Tool{tool}, nil).Run(context.Background(), question)
	require.NoError(t, err)

	assert.Same(t, reply, got)
	assert.Len(t, model.calls, 1)
	assert.Equal(t, 0, tool.count())
}

func TestRelaySendsOnlyFirstResultKeyedToFirstCall(t *testing.T) {
	model := &scriptedModel{replies: []*types.LLMResponse{
		toolCallReply(
			types.NewToolCall("call_1", "no_such_tool", nil),
			types.NewToolCall("call_2", "projects", nil),
			types.NewToolCall("call_3", "stories", nil),
		),
		textReply("done"),
	}}
	projects := newCountingTool("projects", "P")
	stories := newCountingTool("stories", "S")

	_, err := NewRelay(model, []Tool{projects, stories}, nil).Run(context.Background(), question)
	require.NoError(t, err)

	assert.Equal(t, 1, projects.count())
	assert.Equal(t, 1, stories.count())

	second := model.calls[1]
	require.Len(t, second, len(question)+2)
	assert.Equal(t, types.ToolResult("call_1", "P"), second[2])
}

func TestRelayFirstMatchWins(t *testing.T) {
	model := &scriptedModel{replies: []*types.LLMResponse{
		toolCallReply(types.NewToolCall("call_1", "dup", nil)),
		textReply("ok"),
	}}
	first := newCountingTool("dup", "first")
	second := newCountingTool("dup", "second")

	_, err := NewRelay(model, []Tool{first, second}, nil).Run(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 0, second.count())
}

func TestRelayPropagatesToolError(t *testing.T) {
	model := &scriptedModel{replies: []*types.LLMResponse{toolCallReply(types.NewToolCall("call_1", "projects", nil))}}
	tool := newCountingTool("projects", "")
	tool.err = &types.ToolError{Tool: "projects", Message: "token rejected"}

	_, err := NewRelay(model, []Tool{tool}, nil).Run(context.Background(), question)
	assert.True(t, errors.Is(err, types.ErrToolExecution))
	assert.Len(t, model.calls, 1)
}

func TestRelayPropagatesModelError(t *testing.T) {
	model := &scriptedModel{err: &types.LLMError{Operation: "chat_completion", Message: "unauthorized", StatusCode: 401}}
	_, err := NewRelay(model, nil, nil).Ask(context.Background(), "hi")
	assert.True(t, errors.Is(err, types.ErrLLMResponse))
}

func TestRelayBindsToolSpecs(t *testing.T) {
	model := &scriptedModel{}
	NewRelay(model, []Tool{newCountingTool("a", ""), newCountingTool("b", "")}, nil)
	require.Len(t, model.bound, 2)
	assert.Equal(t, "a", model.bound[0].Name)
	assert.Equal(t, "b", model.bound[1].Name)
}

func TestRelayHook(t *testing.T) {
	model := &scriptedModel{replies: []*types.LLMResponse{
		toolCallReply(types.NewToolCall("call_1", "projects", nil)),
		textReply("ok"),
	}}
	relay := NewRelay(model, []Tool{newCountingTool("projects", "P")}, nil)
	var seen []string
	relay.OnToolCall = func(call types.ToolCall) { seen = append(seen, call.Function.Name) }

	_, err := relay.Run(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, []string{"projects"}, seen)
}
