// prompt/template.go
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sammcj/promptlab/types"
)

type segment struct {
	text     string
	variable bool
}

// Template is an immutable string with named {placeholders}.
// Doubled braces ({{ and }}) render as literal braces.
type Template struct {
	source   string
	segments []segment
	vars     []string
	partials map[string]interface{}
}

// FromTemplate parses a template string
func FromTemplate(source string) (*Template, error) {
	segments, err := parse(source)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var vars []string
	for _, s := range segments {
		if s.variable && !seen[s.text] {
			seen[s.text] = true
			vars = append(vars, s.text)
		}
	}

	return &Template{source: source, segments: segments, vars: vars}, nil
}

// MustFromTemplate is FromTemplate for templates known at compile time
func MustFromTemplate(source string) *Template {
	t, err := FromTemplate(source)
	if err != nil {
		panic(err)
	}
	return t
}

func parse(source string) ([]segment, error) {
	var segments []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch c {
		case '{':
			if i+1 < len(source) && source[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(source[i+1:], "{}")
			if end < 0 || source[i+1+end] != '}' {
				return nil, &types.TemplateError{Template: source, Message: fmt.Sprintf("unclosed '{' at offset %d", i)}
			}
			name := source[i+1 : i+1+end]
			if name == "" {
				return nil, &types.TemplateError{Template: source, Message: fmt.Sprintf("empty placeholder at offset %d", i)}
			}
			flush()
			segments = append(segments, segment{text: name, variable: true})
			i += end + 1
		case '}':
			if i+1 < len(source) && source[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &types.TemplateError{Template: source, Message: fmt.Sprintf("single '}' at offset %d", i)}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segments, nil
}

// Template returns the source string
func (t *Template) Template() string {
	return t.source
}

// InputVariables lists the placeholders still to be supplied, in order of first appearance
func (t *Template) InputVariables() []string {
	out := make([]string, 0, len(t.vars))
	for _, v := range t.vars {
		if _, ok := t.partials[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// Partial returns a copy with some variables bound ahead of time
func (t *Template) Partial(vars map[string]interface{}) *Template {
	merged := make(map[string]interface{}, len(t.partials)+len(vars))
	for k, v := range t.partials {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	cp := *t
	cp.partials = merged
	return &cp
}

// Format substitutes every placeholder. Extra variables are ignored.
func (t *Template) Format(vars map[string]interface{}) (string, error) {
	var missing []string
	lookup := func(name string) (interface{}, bool) {
		if v, ok := vars[name]; ok {
			return v, true
		}
		v, ok := t.partials[name]
		return v, ok
	}

	for _, name := range t.vars {
		if _, ok := lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &types.TemplateError{Template: t.source, Missing: missing}
	}

	var b strings.Builder
	for _, s := range t.segments {
		if !s.variable {
			b.WriteString(s.text)
			continue
		}
		v, _ := lookup(s.text)
		b.WriteString(fmt.Sprint(v))
	}
	return b.String(), nil
}

// FormatPrompt formats into a Value usable as model input
func (t *Template) FormatPrompt(vars map[string]interface{}) (Value, error) {
	text, err := t.Format(vars)
	if err != nil {
		return nil, err
	}
	return StringValue(text), nil
}

// Invoke is FormatPrompt; it lets a template sit at the head of a chain
func (t *Template) Invoke(vars map[string]interface{}) (Value, error) {
	return t.FormatPrompt(vars)
}

func (t *Template) String() string {
	return fmt.Sprintf("Template(input_variables=%v, template=%q)", t.InputVariables(), t.source)
}
