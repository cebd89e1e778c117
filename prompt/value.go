package prompt

import (
	"fmt"
	"strings"

	"github.com/sammcj/promptlab/types"
)

// Value is a formatted prompt that can be sent to a chat model
type Value interface {
	String() string
	Messages() []types.Message
}

// StringValue is the output of a string template. It is sent as a single human message.
type StringValue string

func (v StringValue) String() string { return string(v) }

func (v StringValue) Messages() []types.Message {
	return []types.Message{types.Human(string(v))}
}

// ChatValue is the output of a chat template
type ChatValue []types.Message

// String renders one "Role: content" line per message
func (v ChatValue) String() string {
	lines := make([]string, len(v))
	for i, m := range v {
		lines[i] = fmt.Sprintf("%s: %s", m.Role.Label(), m.Content)
	}
	return strings.Join(lines, "\n")
}

func (v ChatValue) Messages() []types.Message {
	out := make([]types.Message, len(v))
	copy(out, v)
	return out
}
