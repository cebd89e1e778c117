// tools/filesystem.go
package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const maxReadBytes = 64 * 1024

// FileSystemTool provides read-only file system operations under a base directory
type FileSystemTool struct {
	basePath string
}

// NewFileSystemTool creates a new file system tool
func NewFileSystemTool(basePath string) (*FileSystemTool, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base path: %w", err)
	}

	return &FileSystemTool{basePath: absPath}, nil
}

// GetToolSpec returns the MCP tool descriptor
func (t *FileSystemTool) GetToolSpec() mcp.Tool {
	return mcp.Tool{
		Name:        "filesystem",
		Description: "List, read and inspect files within the working directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"operation": map[string]interface{}{
					"type": "string",
					"enum": []string{"list", "read", "exists", "info"},
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Relative path within the base directory",
				},
			},
			Required: []string{"operation"},
		},
	}
}

// Execute handles file system operations
func (t *FileSystemTool) Execute(params map[string]interface{}) (interface{}, error) {
	fullPath, err := t.resolve(stringParam(params, "path"))
	if err != nil {
		return nil, err
	}

	switch op := stringParam(params, "operation"); op {
	case "list":
		return t.list(fullPath)
	case "read":
		return t.read(fullPath)
	case "exists":
		_, err := os.Stat(fullPath)
		return err == nil, nil
	case "info":
		return t.info(fullPath)
	default:
		return nil, fmt.Errorf("unknown operation: %s", op)
	}
}

func (t *FileSystemTool) resolve(path string) (string, error) {
	fullPath := filepath.Join(t.basePath, path)
	if fullPath != t.basePath && !strings.HasPrefix(fullPath, t.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside base directory")
	}
	return fullPath, nil
}

func (t *FileSystemTool) list(path string) (interface{}, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	files := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		files = append(files, map[string]interface{}{
			"name":  entry.Name(),
			"isDir": entry.IsDir(),
			"size":  size,
		})
	}
	return files, nil
}

func (t *FileSystemTool) read(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > maxReadBytes {
		return string(data[:maxReadBytes]) + "\n...[truncated]", nil
	}
	return string(data), nil
}

func (t *FileSystemTool) info(path string) (interface{}, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"name":    info.Name(),
		"size":    info.Size(),
		"mode":    info.Mode().String(),
		"modTime": info.ModTime(),
		"isDir":   info.IsDir(),
	}, nil
}
