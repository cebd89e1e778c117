// bridge/mcpclient.go
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/logging"
	"github.com/sammcj/promptlab/types"
)

const (
	protocolVersion = "2024-11-05"
	clientName      = "promptlab"
	clientVersion   = "0.1.0"

	shutdownGrace = 2 * time.Second
)

// MCPClient is a session with a tool server subprocess speaking JSON-RPC over stdio
type MCPClient struct {
	name      string
	cmd       *exec.Cmd
	conn      *jsonrpc2.Conn
	stderr    *stderrLogger
	logger    *logrus.Entry
	closeOnce sync.Once
	closeErr  error
}

// isDevelopmentModeWarning checks if a message is a development mode warning
func isDevelopmentModeWarning(msg string) bool {
	return strings.Contains(msg, "Running in development mode")
}

// NewMCPClient starts the server process and connects to it. Call Initialize before use.
func NewMCPClient(cfg config.MCPServerConfig, logger logrus.FieldLogger) (*MCPClient, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	log := logging.Component(logger, "mcp").WithField("server", cfg.Name)
	log.WithField("command", cfg.Command).WithField("args", cfg.Arguments).Debug("starting MCP server")

	cmd := exec.Command(cfg.Command, cfg.Arguments...)
	cmd.Env = buildEnv(cfg.Env)

	stderr := &stderrLogger{logger: log}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &types.BridgeError{Operation: "start", Message: "failed to create stdin pipe", Err: err}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, &types.BridgeError{Operation: "start", Message: "failed to create stdout pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, &types.BridgeError{Operation: "start", Message: fmt.Sprintf("failed to start %s", cfg.Command), Err: err}
	}

	c := &MCPClient{
		name:   cfg.Name,
		cmd:    cmd,
		stderr: stderr,
		logger: log,
	}

	rwc := &streamReadWriteCloser{stdin: stdin, stdout: stdout}
	stream := jsonrpc2.NewBufferedStream(rwc, lineCodec{})
	c.conn = jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(c.handle))

	log.WithField("pid", cmd.Process.Pid).Debug("MCP server process started")
	return c, nil
}

// buildEnv layers the server's env mapping over the current environment
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// handle answers requests and notifications sent by the server
func (c *MCPClient) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "ping":
		return map[string]interface{}{}, nil
	case "notifications/message":
		var params struct {
			Level  string      `json:"level"`
			Logger string      `json:"logger"`
			Data   interface{} `json:"data"`
		}
		if req.Params != nil {
			_ = json.Unmarshal(*req.Params, &params)
		}
		if !isDevelopmentModeWarning(fmt.Sprint(params.Data)) {
			c.logger.WithField("level", params.Level).Infof("server log: %v", params.Data)
		}
		return nil, nil
	}

	if req.Notif {
		c.logger.WithField("method", req.Method).Debug("notification received")
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
}

// Initialize performs the protocol handshake
func (c *MCPClient) Initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	params := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    clientName,
			"version": clientVersion,
		},
	}

	var result mcp.InitializeResult
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return nil, c.wrap("initialize", "handshake failed", err)
	}

	if err := c.conn.Notify(ctx, "notifications/initialized", map[string]interface{}{}); err != nil {
		return nil, c.wrap("initialize", "failed to send initialized notification", err)
	}

	c.logger.WithFields(logrus.Fields{
		"server_name":    result.ServerInfo.Name,
		"server_version": result.ServerInfo.Version,
		"protocol":       result.ProtocolVersion,
	}).Info("MCP session initialized")
	return &result, nil
}

// ListTools returns every tool the server exposes, following pagination cursors
func (c *MCPClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	var tools []mcp.Tool
	cursor := ""
	for {
		params := map[string]interface{}{}
		if cursor != "" {
			params["cursor"] = cursor
		}

		var result mcp.ListToolsResult
		if err := c.conn.Call(ctx, "tools/list", params, &result); err != nil {
			return nil, c.wrap("list_tools", "request failed", err)
		}
		tools = append(tools, result.Tools...)

		cursor = string(result.NextCursor)
		if cursor == "" {
			break
		}
	}

	c.logger.WithField("count", len(tools)).Debug("listed tools")
	return tools, nil
}

type callToolResult struct {
	Content []struct {
		Type     string `json:"type"`
		Text     string `json:"text,omitempty"`
		MimeType string `json:"mimeType,omitempty"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}

func (r callToolResult) text() string {
	parts := make([]string, 0, len(r.Content))
	for _, item := range r.Content {
		if item.Type == "text" || item.Text != "" {
			parts = append(parts, item.Text)
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s content %s]", item.Type, item.MimeType))
	}
	return strings.Join(parts, "\n")
}

// CallTool invokes a tool and returns its text content. A result flagged isError is a ToolError.
func (c *MCPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}

	c.logger.WithField("tool", name).Debug("calling tool")

	var result callToolResult
	if err := c.conn.Call(ctx, "tools/call", params, &result); err != nil {
		return "", &types.ToolError{Tool: name, Message: "call failed", Err: err}
	}

	text := result.text()
	if result.IsError {
		return "", &types.ToolError{Tool: name, Message: text}
	}
	return text, nil
}

// Close ends the session: the connection is closed, then the process gets a grace period before being killed
func (c *MCPClient) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Debug("closing MCP client")

		if err := c.conn.Close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
			c.logger.WithError(err).Debug("failed to close connection")
		}

		done := make(chan error, 1)
		go func() { done <- c.cmd.Wait() }()

		select {
		case err := <-done:
			c.closeErr = exitError(err)
		case <-time.After(shutdownGrace):
			if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				c.logger.WithError(err).Warn("failed to kill MCP server")
			}
			<-done
		}
		c.stderr.flush()
	})
	return c.closeErr
}

// exitError ignores exits caused by the closed stdin or a kill signal
func exitError(err error) error {
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return nil
	}
	return &types.BridgeError{Operation: "close", Message: "failed to wait for process", Err: err}
}

func (c *MCPClient) wrap(op, msg string, err error) error {
	return &types.BridgeError{Operation: op, Message: fmt.Sprintf("%s (server %s)", msg, c.name), Err: err}
}

// WithSession starts a server, initializes it, runs fn and always tears the session down
func WithSession(ctx context.Context, cfg config.MCPServerConfig, logger logrus.FieldLogger, fn func(ctx context.Context, client *MCPClient) error) (err error) {
	client, err := NewMCPClient(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := client.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, client)
}

// stderrLogger forwards the server's stderr to the logger line by line
type stderrLogger struct {
	mu     sync.Mutex
	logger *logrus.Entry
	buf    bytes.Buffer
}

func (s *stderrLogger) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Write(p)
	for {
		idx := bytes.IndexByte(s.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(s.buf.Next(idx + 1))
		s.log(line)
	}
	return len(p), nil
}

func (s *stderrLogger) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Len() > 0 {
		s.log(s.buf.String())
		s.buf.Reset()
	}
}

func (s *stderrLogger) log(line string) {
	line = strings.TrimSpace(line)
	if line == "" || isDevelopmentModeWarning(line) {
		return
	}
	s.logger.WithField("stream", "stderr").Debug(line)
}
