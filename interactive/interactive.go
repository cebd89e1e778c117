// interactive/interactive.go
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/promptlab/bridge"
	"github.com/sammcj/promptlab/history"
	"github.com/sammcj/promptlab/llm"
	"github.com/sammcj/promptlab/prompt"
	"github.com/sammcj/promptlab/types"
)

const defaultSystemPrompt = "You are a helpful assistant. Answer concisely."

var (
	promptColor = color.New(color.FgGreen)
	answerColor = color.New(color.FgCyan)
	toolColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
)

// Interactive is a multi-turn chat session whose transcript lives in a history store
type Interactive struct {
	model   llm.ChatModel
	store   history.Store
	session string
	tmpl    *prompt.ChatTemplate
	agent   *bridge.Agent
	logger  *logrus.Entry
	out     io.Writer
}

// Option configures an Interactive session
type Option func(*Interactive)

// WithTools answers through a bounded agent that may call the given tools
func WithTools(tools []bridge.Tool, opts ...bridge.AgentOption) Option {
	return func(i *Interactive) {
		if len(tools) > 0 {
			i.agent = bridge.NewAgent(i.model, tools, opts...)
		}
	}
}

// WithSession resumes an existing transcript instead of starting a new one
func WithSession(id string) Option {
	return func(i *Interactive) { i.session = id }
}

// WithSystemPrompt replaces the default system message
func WithSystemPrompt(text string) Option {
	return func(i *Interactive) { i.tmpl = chatTemplate(text) }
}

// WithOutput redirects console output, mainly for tests
func WithOutput(w io.Writer) Option {
	return func(i *Interactive) { i.out = w }
}

func chatTemplate(system string) *prompt.ChatTemplate {
	return prompt.FromMessages(
		prompt.Literal(types.System(system)),
		prompt.Placeholder("history"),
		prompt.HumanMessage("{question}"),
	)
}

func New(model llm.ChatModel, store history.Store, logger *logrus.Entry, opts ...Option) *Interactive {
	i := &Interactive{
		model:   model,
		store:   store,
		session: history.NewSessionID(),
		tmpl:    chatTemplate(defaultSystemPrompt),
		logger:  logger,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Session returns the id the transcript is stored under
func (i *Interactive) Session() string { return i.session }

// Respond answers one question in the context of the stored transcript and records the exchange
func (i *Interactive) Respond(ctx context.Context, question string) (string, error) {
	past, err := i.store.Messages(ctx, i.session)
	if err != nil {
		return "", err
	}

	msgs, err := i.tmpl.FormatMessages(map[string]interface{}{
		"history":  past,
		"question": question,
	})
	if err != nil {
		return "", err
	}

	var (
		turn   []types.Message
		answer string
	)
	if i.agent != nil {
		res, err := i.agent.Run(ctx, msgs)
		if err != nil {
			return "", err
		}
		for _, m := range res.Messages[len(msgs):] {
			for _, call := range m.ToolCalls {
				toolColor.Fprintf(i.out, "  [tool] %s %v\n", call.Function.Name, call.Function.Arguments)
			}
		}
		turn = append([]types.Message{types.Human(question)}, res.Messages[len(msgs):]...)
		answer = res.Final.Content
	} else {
		resp, err := i.model.Generate(ctx, msgs)
		if err != nil {
			return "", err
		}
		turn = []types.Message{types.Human(question), resp.Message()}
		answer = resp.Content
	}

	if err := i.store.Append(ctx, i.session, turn...); err != nil {
		return "", err
	}
	return answer, nil
}

// Command handles a slash command. It reports false when line is not one.
func (i *Interactive) Command(ctx context.Context, line string) (bool, error) {
	switch line {
	case "/clear":
		if err := i.store.Clear(ctx, i.session); err != nil {
			return true, err
		}
		fmt.Fprintln(i.out, "History cleared.")
		return true, nil
	case "/history":
		msgs, err := i.store.Messages(ctx, i.session)
		if err != nil {
			return true, err
		}
		for _, m := range msgs {
			if m.Content == "" {
				continue
			}
			fmt.Fprintf(i.out, "%s: %s\n", m.Role.Label(), m.Content)
		}
		return true, nil
	case "/session":
		fmt.Fprintln(i.out, i.session)
		return true, nil
	}
	return false, nil
}

// Start runs the read-respond loop until quit, exit or EOF
func (i *Interactive) Start(ctx context.Context, historyFile string) error {
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            promptColor.Sprint("➤ "),
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(i.out, "Type 'quit' or press Ctrl+D to exit. Commands: /clear /history /session")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(i.out, "Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			fmt.Fprintln(i.out, "Goodbye!")
			return nil
		}

		if handled, err := i.Command(ctx, input); handled {
			if err != nil {
				errorColor.Fprintf(i.out, "Error: %v\n", err)
			}
			continue
		}

		answer, err := i.Respond(ctx, input)
		if err != nil {
			i.logger.WithError(err).Debug("turn failed")
			errorColor.Fprintf(i.out, "\nError: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if answer == "" {
			fmt.Fprintln(i.out, "\nNo response received.")
			continue
		}
		answerColor.Fprintf(i.out, "\n%s\n\n", answer)
	}
}
