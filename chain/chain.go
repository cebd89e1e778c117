// chain/chain.go
package chain

import (
	"context"
	"fmt"

	"github.com/sammcj/promptlab/llm"
	"github.com/sammcj/promptlab/parser"
	"github.com/sammcj/promptlab/prompt"
	"github.com/sammcj/promptlab/types"
)

// Formatter is anything that renders variables into a prompt value
type Formatter interface {
	FormatPrompt(vars map[string]interface{}) (prompt.Value, error)
}

// Chain runs prompt, model and parser in sequence
type Chain struct {
	Prompt Formatter
	Model  llm.ChatModel
	Parser parser.Parser
}

// Pipe builds a chain. A nil parser returns the model text unchanged.
func Pipe(p Formatter, model llm.ChatModel, out parser.Parser) *Chain {
	if out == nil {
		out = parser.StrParser{}
	}
	return &Chain{Prompt: p, Model: model, Parser: out}
}

// Invoke formats the prompt, calls the model and parses its reply
func (c *Chain) Invoke(ctx context.Context, vars map[string]interface{}) (interface{}, error) {
	text, err := c.generate(ctx, vars)
	if err != nil {
		return nil, err
	}
	return c.Parser.Parse(text)
}

// InvokeInto is Invoke for JSON parsers, decoding into dst
func (c *Chain) InvokeInto(ctx context.Context, vars map[string]interface{}, dst interface{}) error {
	jp, ok := c.Parser.(*parser.JSONParser)
	if !ok {
		return fmt.Errorf("InvokeInto needs a JSON parser, chain has %T", c.Parser)
	}
	text, err := c.generate(ctx, vars)
	if err != nil {
		return err
	}
	return jp.ParseInto(text, dst)
}

func (c *Chain) generate(ctx context.Context, vars map[string]interface{}) (string, error) {
	value, err := c.Prompt.FormatPrompt(vars)
	if err != nil {
		return "", err
	}
	resp, err := c.Model.Generate(ctx, value.Messages())
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", &types.LLMError{Operation: "chain", Message: "model returned no response"}
	}
	return resp.Content, nil
}
