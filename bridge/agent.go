// bridge/agent.go
package bridge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sammcj/promptlab/llm"
	"github.com/sammcj/promptlab/logging"
	"github.com/sammcj/promptlab/metrics"
	"github.com/sammcj/promptlab/types"
)

// DefaultMaxIterations caps model calls per Agent run
const DefaultMaxIterations = 10

// Agent repeats model call and tool dispatch until the model answers without tools
type Agent struct {
	model         llm.ChatModel
	tools         []Tool
	validator     *llm.Validator
	maxIterations int
	parallel      bool
	logger        *logrus.Entry

	// OnToolCall is called before each tool call is dispatched
	OnToolCall func(call types.ToolCall)
}

// AgentOption configures an Agent
type AgentOption func(*Agent)

// WithMaxIterations sets the cap on model calls. Values below 1 keep the default.
func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithParallelTools dispatches the tool calls of one reply concurrently
func WithParallelTools(parallel bool) AgentOption {
	return func(a *Agent) {
		a.parallel = parallel
	}
}

// WithAgentLogger sets the agent's logger
func WithAgentLogger(logger logrus.FieldLogger) AgentOption {
	return func(a *Agent) {
		a.logger = logging.Component(logger, "agent")
	}
}

// Result is the outcome of an Agent run
type Result struct {
	Messages   []types.Message
	Final      *types.LLMResponse
	Iterations int
	ToolCalls  int
}

// NewAgent binds tools to the model
func NewAgent(model llm.ChatModel, tools []Tool, opts ...AgentOption) *Agent {
	specs := Specs(tools)
	a := &Agent{
		model:         model.BindTools(specs),
		tools:         tools,
		validator:     llm.NewValidator(specs),
		maxIterations: DefaultMaxIterations,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask runs the agent for a single human question
func (a *Agent) Ask(ctx context.Context, question string) (*Result, error) {
	return a.Run(ctx, []types.Message{types.Human(question)})
}

// Run loops until the model stops requesting tools. Every tool call gets its own
// result message keyed by its id, in call order. Hitting the iteration cap returns
// the partial result with ErrMaxIterations.
func (a *Agent) Run(ctx context.Context, messages []types.Message) (*Result, error) {
	res := &Result{Messages: append([]types.Message(nil), messages...)}

	for res.Iterations < a.maxIterations {
		resp, err := a.model.Generate(ctx, res.Messages)
		if err != nil {
			return res, err
		}
		res.Iterations++
		res.Final = resp
		res.Messages = append(res.Messages, resp.Message())

		if !resp.HasToolCalls() {
			metrics.RecordRelayRounds(res.Iterations)
			return res, nil
		}

		a.logger.WithFields(logrus.Fields{
			"iteration":  res.Iterations,
			"tool_calls": len(resp.ToolCalls),
		}).Info("dispatching tool calls")

		results, err := a.dispatch(ctx, resp.ToolCalls)
		if err != nil {
			return res, err
		}
		res.ToolCalls += len(resp.ToolCalls)
		res.Messages = append(res.Messages, results...)
	}

	metrics.RecordRelayRounds(res.Iterations)
	return res, fmt.Errorf("%w (%d)", types.ErrMaxIterations, a.maxIterations)
}

func (a *Agent) dispatch(ctx context.Context, calls []types.ToolCall) ([]types.Message, error) {
	results := make([]types.Message, len(calls))

	if !a.parallel {
		for i, call := range calls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = a.invoke(ctx, call)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = a.invoke(gctx, call)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// invoke runs one call. Failures become the tool message text so the model can react to them.
func (a *Agent) invoke(ctx context.Context, call types.ToolCall) types.Message {
	name := call.Function.Name
	log := a.logger.WithField("tool", name).WithField("call_id", call.ID)

	tool, ok := find(a.tools, name)
	if !ok {
		log.Warn("unknown tool requested")
		metrics.RecordToolInvocation(name, metrics.OutcomeUnknownTool)
		return types.ToolResult(call.ID, fmt.Sprintf("Error: unknown tool %q", name))
	}

	if err := a.validator.ValidateToolCall(call); err != nil {
		log.WithError(err).Warn("invalid tool call")
		metrics.RecordToolInvocation(name, metrics.OutcomeInvalidArgs)
		return types.ToolResult(call.ID, "Error: "+err.Error())
	}

	if a.OnToolCall != nil {
		a.OnToolCall(call)
	}
	out, err := tool.Invoke(ctx, call.Function.Arguments)
	metrics.RecordToolInvocation(name, metrics.Outcome(err))
	if err != nil {
		log.WithError(err).Warn("tool failed")
		return types.ToolResult(call.ID, "Error: "+err.Error())
	}
	return types.ToolResult(call.ID, out)
}
