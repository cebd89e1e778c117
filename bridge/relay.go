// bridge/relay.go
package bridge

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sammcj/promptlab/llm"
	"github.com/sammcj/promptlab/logging"
	"github.com/sammcj/promptlab/metrics"
	"github.com/sammcj/promptlab/types"
)

// Relay performs at most two model calls: one with tools bound, and one more after
// relaying tool output back. It never loops.
type Relay struct {
	model  llm.ChatModel
	tools  []Tool
	logger *logrus.Entry

	// OnToolCall is called before each matched tool is invoked
	OnToolCall func(call types.ToolCall)
}

// NewRelay binds tools to the model
func NewRelay(model llm.ChatModel, tools []Tool, logger logrus.FieldLogger) *Relay {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Relay{
		model:  model.BindTools(Specs(tools)),
		tools:  tools,
		logger: logging.Component(logger, "relay"),
	}
}

// Ask runs the relay for a single human question
func (r *Relay) Ask(ctx context.Context, question string) (*types.LLMResponse, error) {
	return r.Run(ctx, []types.Message{types.Human(question)})
}

// Run sends messages to the model. When the reply asks for tools, each call is
// dispatched to the first tool with a matching name; calls naming no known tool are
// skipped. If any tool produced output, the reply and a single tool message carrying
// the first output (keyed to the first call's id) are appended and the model is called
// once more. Otherwise the first reply is returned unchanged.
func (r *Relay) Run(ctx context.Context, messages []types.Message) (*types.LLMResponse, error) {
	first, err := r.model.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	if !first.HasToolCalls() {
		metrics.RecordRelayRounds(1)
		return first, nil
	}

	r.logger.WithField("tool_calls", len(first.ToolCalls)).Info("model requested tools")

	var results []string
	for _, call := range first.ToolCalls {
		tool, ok := find(r.tools, call.Function.Name)
		if !ok {
			r.logger.WithField("tool", call.Function.Name).Warn("no tool matches call, skipping")
			metrics.RecordToolInvocation(call.Function.Name, metrics.OutcomeUnknownTool)
			continue
		}

		if r.OnToolCall != nil {
			r.OnToolCall(call)
		}
		out, err := tool.Invoke(ctx, call.Function.Arguments)
		metrics.RecordToolInvocation(tool.Name(), metrics.Outcome(err))
		if err != nil {
			return nil, err
		}
		results = append(results, out)
	}

	if len(results) == 0 {
		metrics.RecordRelayRounds(1)
		return first, nil
	}

	next := make([]types.Message, 0, len(messages)+2)
	next = append(next, messages...)
	next = append(next, first.Message(), types.ToolResult(first.ToolCalls[0].ID, results[0]))

	r.logger.Debug("sending tool result back to model")
	final, err := r.model.Generate(ctx, next)
	if err != nil {
		return nil, err
	}
	metrics.RecordRelayRounds(2)
	return final, nil
}
