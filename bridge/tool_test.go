package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/promptlab/tools"
	"github.com/sammcj/promptlab/types"
)

func TestLocalToolsThroughAgent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# demo"), 0o600))

	set, closer, err := tools.Default(root, "")
	require.NoError(t, err)
	defer closer()

	local := LocalTools(set)
	require.Len(t, local, 2)
	assert.Equal(t, []string{"current_time", "filesystem"}, []string{local[0].Name(), local[1].Name()})

	model := &scriptedModel{replies: []*types.LLMResponse{
		toolCallReply(types.NewToolCall("1", "filesystem", map[string]interface{}{"operation": "read", "path": "README.md"})),
		textReply("The README is a heading."),
	}}
	res, err := NewAgent(model, local).Ask(context.Background(), "what is in the README?")
	require.NoError(t, err)

	assert.Equal(t, types.ToolResult("1", "# demo"), res.Messages[2])
	assert.Equal(t, "The README is a heading.", res.Final.Content)
}

func TestLocalToolRendersStructuredResults(t *testing.T) {
	set, closer, err := tools.Default(t.TempDir(), "")
	require.NoError(t, err)
	defer closer()

	fs := LocalTools(set)[1]
	out, err := fs.Invoke(context.Background(), map[string]interface{}{"operation": "list", "path": ""})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	_, err = fs.Invoke(context.Background(), map[string]interface{}{"operation": "bogus"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fs.Invoke(ctx, map[string]interface{}{"operation": "list"})
	assert.ErrorIs(t, err, context.Canceled)
}
