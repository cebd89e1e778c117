// prompt/chat.go
package prompt

import (
	"fmt"

	"github.com/sammcj/promptlab/types"
)

// MessagePart is one entry of a chat template
type MessagePart interface {
	inputVariables() []string
	format(vars map[string]interface{}) ([]types.Message, error)
}

type templatePart struct {
	role     types.Role
	template *Template
}

func (p templatePart) inputVariables() []string { return p.template.InputVariables() }

func (p templatePart) format(vars map[string]interface{}) ([]types.Message, error) {
	text, err := p.template.Format(vars)
	if err != nil {
		return nil, err
	}
	return []types.Message{{Role: p.role, Content: text}}, nil
}

type placeholderPart struct {
	name     string
	optional bool
}

func (p placeholderPart) inputVariables() []string {
	if p.optional {
		return nil
	}
	return []string{p.name}
}

func (p placeholderPart) format(vars map[string]interface{}) ([]types.Message, error) {
	raw, ok := vars[p.name]
	if !ok || raw == nil {
		if p.optional {
			return nil, nil
		}
		return nil, &types.TemplateError{Template: "{" + p.name + "}", Missing: []string{p.name}}
	}
	switch msgs := raw.(type) {
	case []types.Message:
		return msgs, nil
	case types.Message:
		return []types.Message{msgs}, nil
	default:
		return nil, &types.TemplateError{
			Template: "{" + p.name + "}",
			Message:  fmt.Sprintf("placeholder %q expects []types.Message, got %T", p.name, raw),
		}
	}
}

type literalPart struct {
	msg types.Message
}

func (literalPart) inputVariables() []string { return nil }

func (p literalPart) format(map[string]interface{}) ([]types.Message, error) {
	return []types.Message{p.msg}, nil
}

func rolePart(role types.Role, source string) MessagePart {
	return templatePart{role: role, template: MustFromTemplate(source)}
}

// SystemMessage is a system turn formatted from a template. It panics on a malformed template.
func SystemMessage(source string) MessagePart { return rolePart(types.RoleSystem, source) }

// HumanMessage is a human turn formatted from a template
func HumanMessage(source string) MessagePart { return rolePart(types.RoleHuman, source) }

// AIMessage is an assistant turn formatted from a template
func AIMessage(source string) MessagePart { return rolePart(types.RoleAI, source) }

// TemplateMessage uses an already parsed template
func TemplateMessage(role types.Role, t *Template) MessagePart {
	return templatePart{role: role, template: t}
}

// Placeholder splices a list of messages supplied at format time
func Placeholder(name string) MessagePart { return placeholderPart{name: name} }

// OptionalPlaceholder is a Placeholder that may be left out
func OptionalPlaceholder(name string) MessagePart { return placeholderPart{name: name, optional: true} }

// Literal inserts a fixed message; braces in it are not interpreted
func Literal(msg types.Message) MessagePart { return literalPart{msg: msg} }

// ChatTemplate builds an ordered message list from parts
type ChatTemplate struct {
	parts []MessagePart
}

// FromMessages builds a chat template
func FromMessages(parts ...MessagePart) *ChatTemplate {
	return &ChatTemplate{parts: append([]MessagePart(nil), parts...)}
}

// InputVariables is the union of the parts' variables in order of first appearance
func (c *ChatTemplate) InputVariables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.parts {
		for _, v := range p.inputVariables() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// FormatMessages renders every part in order
func (c *ChatTemplate) FormatMessages(vars map[string]interface{}) ([]types.Message, error) {
	var out []types.Message
	for _, p := range c.parts {
		msgs, err := p.format(vars)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

// FormatPrompt renders into a ChatValue
func (c *ChatTemplate) FormatPrompt(vars map[string]interface{}) (Value, error) {
	msgs, err := c.FormatMessages(vars)
	if err != nil {
		return nil, err
	}
	return ChatValue(msgs), nil
}

// Invoke is FormatPrompt
func (c *ChatTemplate) Invoke(vars map[string]interface{}) (Value, error) {
	return c.FormatPrompt(vars)
}
