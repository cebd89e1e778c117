package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sammcj/promptlab/types"
)

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// readEvents reads server-sent events and hands each decoded data payload to fn
func readEvents(r io.Reader, fn func(chatResponse)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSpace(line)
			if bytes.HasPrefix(line, dataPrefix) {
				payload := bytes.TrimSpace(line[len(dataPrefix):])
				if bytes.Equal(payload, doneMarker) {
					return nil
				}
				if len(payload) > 0 {
					var chunk chatResponse
					if jsonErr := json.Unmarshal(payload, &chunk); jsonErr != nil {
						return fmt.Errorf("error unmarshaling stream chunk: %w\nline: %s", jsonErr, truncate(string(payload), 200))
					}
					fn(chunk)
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

type partialCall struct {
	id   string
	name string
	args strings.Builder
}

// streamAccumulator rebuilds a full response from deltas. Tool-call fragments are merged by index.
type streamAccumulator struct {
	names        toolNames
	content      strings.Builder
	calls        map[int]*partialCall
	finishReason string
	usage        *types.Usage
}

func newStreamAccumulator(names toolNames) *streamAccumulator {
	return &streamAccumulator{names: names, calls: make(map[int]*partialCall)}
}

// add merges one chunk and returns any new text
func (a *streamAccumulator) add(chunk chatResponse) string {
	if chunk.Usage != nil {
		a.usage = chunk.Usage
	}
	var token string
	for _, choice := range chunk.Choices {
		if choice.Index != 0 {
			continue
		}
		delta := choice.Delta
		if delta.Content == "" && delta.Role == "" && len(delta.ToolCalls) == 0 {
			// some servers send a full message in the final chunk
			delta = choice.Message
		}
		if delta.Content != "" {
			a.content.WriteString(delta.Content)
			token += delta.Content
		}
		for i, tc := range delta.ToolCalls {
			idx := i
			if tc.Index != nil {
				idx = *tc.Index
			}
			pc, ok := a.calls[idx]
			if !ok {
				pc = &partialCall{}
				a.calls[idx] = pc
			}
			if tc.ID != "" {
				pc.id = tc.ID
			}
			if tc.Function.Name != "" && pc.name == "" {
				pc.name = tc.Function.Name
			}
			pc.args.WriteString(tc.Function.Arguments)
		}
		if choice.FinishReason != "" {
			a.finishReason = choice.FinishReason
		}
	}
	return token
}

func (a *streamAccumulator) response() (*types.LLMResponse, error) {
	resp := &types.LLMResponse{
		Content:      a.content.String(),
		FinishReason: a.finishReason,
		Usage:        a.usage,
	}

	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		pc := a.calls[idx]
		call, err := decodeToolCall(wireToolCall{
			ID:       pc.id,
			Function: wireToolCallFunc{Name: pc.name, Arguments: pc.args.String()},
		}, a.names)
		if err != nil {
			return nil, err
		}
		resp.ToolCalls = append(resp.ToolCalls, call)
	}
	return resp, nil
}
