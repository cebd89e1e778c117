package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/promptlab/types"
)

func TestAgentLoopsUntilAnswer(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			model := &scriptedModel{replies: []*types.LLMResponse{
				toolCallReply(
					types.NewToolCall("a", "projects", map[string]interface{}{"q": "mine"}),
					types.NewToolCall("b", "stories", nil),
				),
				toolCallReply(types.NewToolCall("c", "projects", nil)),
				textReply("Alpha has 2 stories"),
			}}
			projects := newCountingTool("projects", "Alpha")
			stories := newCountingTool("stories", "2 stories")

			res, err := NewAgent(model, []Tool{projects, stories}, WithParallelTools(parallel)).Ask(context.Background(), "how many stories?")
			require.NoError(t, err)

			assert.Equal(t, "Alpha has 2 stories", res.Final.Content)
			assert.Equal(t, 3, res.Iterations)
			assert.Equal(t, 3, res.ToolCalls)
			assert.Equal(t, 2, projects.count())
			assert.Equal(t, 1, stories.count())

			// human, ai(a,b), tool a, tool b, ai(c), tool c, ai
			require.Len(t, res.Messages, 7)
			assert.Equal(t, types.ToolResult("a", "Alpha"), res.Messages[2])
			assert.Equal(t, types.ToolResult("b", "2 stories"), res.Messages[3])
			assert.Equal(t, types.ToolResult("c", "Alpha"), res.Messages[5])
			assert.Equal(t, types.AI("Alpha has 2 stories"), res.Messages[6])

			// each model call sees everything before it
			require.Len(t, model.calls, 3)
			assert.Len(t, model.calls[1], 4)
			assert.Len(t, model.calls[2], 6)
		})
	}
}

func TestAgentTurnsFailuresIntoToolMessages(t *testing.T) {
	failing := newCountingTool("flaky", "")
	failing.err = errors.New("upstream timeout")

	model := &scriptedModel{replies: []*types.LLMResponse{
		toolCallReply(
			types.NewToolCall("u", "nope", nil),
			types.NewToolCall("v", "flaky", map[string]interface{}{"q": 7}),
			types.NewToolCall("w", "flaky", map[string]interface{}{"q": "ok"}),
		),
		textReply("sorry"),
	}}

	res, err := NewAgent(model, []Tool{failing}).Ask(context.Background(), "try")
	require.NoError(t, err)

	msgs := res.Messages
	require.Len(t, msgs, 6)
	assert.Equal(t, "u", msgs[2].ToolCallID)
	assert.True(t, strings.HasPrefix(msgs[2].Content, "Error: unknown tool"))
	assert.Equal(t, "v", msgs[3].ToolCallID)
	assert.Contains(t, msgs[3].Content, "invalid arguments")
	assert.Equal(t, "w", msgs[4].ToolCallID)
	assert.Contains(t, msgs[4].Content, "upstream timeout")

	// only the valid call reached the tool
	assert.Equal(t, 1, failing.count())
}

func TestAgentStopsAtMaxIterations(t *testing.T) {
	replies := make([]*types.LLMResponse, 5)
	for i := range replies {
		replies[i] = toolCallReply(types.NewToolCall("x", "projects", nil))
	}
	model := &scriptedModel{replies: replies}

	res, err := NewAgent(model, []Tool{newCountingTool("projects", "P")}, WithMaxIterations(3)).Ask(context.Background(), "loop")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMaxIterations))
	assert.Equal(t, 3, res.Iterations)
	assert.Len(t, model.calls, 3)
}

func TestAgentDefaults(t *testing.T) {
	a := NewAgent(&scriptedModel{}, nil, WithMaxIterations(0))
	assert.Equal(t, DefaultMaxIterations, a.maxIterations)
	assert.False(t, a.parallel)
}

func TestAgentPropagatesModelError(t *testing.T) {
	model := &scriptedModel{err: &types.LLMError{Operation: "chat_completion", Message: "down"}}
	res, err := NewAgent(model, nil).Ask(context.Background(), "hi")
	assert.True(t, errors.Is(err, types.ErrLLMResponse))
	assert.Equal(t, 0, res.Iterations)
}

func TestAgentHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &scriptedModel{replies: []*types.LLMResponse{toolCallReply(types.NewToolCall("x", "projects", nil))}}
	tool := newCountingTool("projects", "P")
	cancel()

	_, err := NewAgent(model, []Tool{tool}).Run(ctx, question)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tool.count())
}
