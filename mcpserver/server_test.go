package mcpserver

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/promptlab/logging"
	"github.com/sammcj/promptlab/tools"
)

type stubTool struct {
	out interface{}
	err error
}

func (s stubTool) GetToolSpec() mcp.Tool {
	return mcp.Tool{Name: "stub", InputSchema: mcp.ToolInputSchema{Type: "object"}}
}

func (s stubTool) Execute(map[string]interface{}) (interface{}, error) { return s.out, s.err }

func TestNewRegistersDefaultTools(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, tools.SeedExampleDB(db))
	set, closer, err := tools.Default(t.TempDir(), db)
	require.NoError(t, err)

	s := New(set, closer, logging.Discard())
	names := []string{}
	for _, spec := range s.Tools() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"current_time", "filesystem", "query_database"}, names)
	assert.NoError(t, s.Close())
}

func TestHandlerRendersResult(t *testing.T) {
	s := New(nil, nil, logging.Discard())

	res, err := s.handler(stubTool{out: map[string]interface{}{"rows": 2}})(nil)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "text", text.Type)
	assert.JSONEq(t, `{"rows": 2}`, text.Text)
}

func TestHandlerWrapsToolError(t *testing.T) {
	s := New(nil, nil, logging.Discard())

	_, err := s.handler(stubTool{err: errors.New("boom")})(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stub: boom")
}

func TestCloseReportsCloserError(t *testing.T) {
	s := New(nil, func() error { return errors.New("locked") }, logging.Discard())
	assert.Error(t, s.Close())
}
