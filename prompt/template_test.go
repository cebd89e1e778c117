package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/promptlab/types"
)

func TestFormatSubstitutesEveryPlaceholder(t *testing.T) {
	tmpl, err := FromTemplate("Hello {a}, meet {b}. Bye {a}!")
	require.NoError(t, err)

	out, err := tmpl.Format(map[string]interface{}{"a": "Ann", "b": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ann, meet Bob. Bye Ann!", out)
}

func TestFormatLeavesOtherCharactersAlone(t *testing.T) {
	source := "  tabs\tand\nnewlines, unicode 你好 {a}; punctuation: !@#$%^&*() {b}  "
	tmpl := MustFromTemplate(source)

	out, err := tmpl.Format(map[string]interface{}{"a": "X", "b": "Y"})
	require.NoError(t, err)

	expected := strings.NewReplacer("{a}", "X", "{b}", "Y").Replace(source)
	assert.Equal(t, expected, out)
}

func TestFormatMissingVariableIsAnError(t *testing.T) {
	tmpl := MustFromTemplate("Recommend {count} books about {category} at {difficulty} level.")

	out, err := tmpl.Format(map[string]interface{}{"category": "Go", "count": 3})
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, types.ErrTemplate))

	var tmplErr *types.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, []string{"difficulty"}, tmplErr.Missing)
	assert.Contains(t, err.Error(), "difficulty")
}

func TestFormatWithNoVariablesReportsAllMissing(t *testing.T) {
	tmpl := MustFromTemplate("{b} then {a}")
	_, err := tmpl.Format(nil)

	var tmplErr *types.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, []string{"a", "b"}, tmplErr.Missing)
}

func TestInputVariablesInOrderOfAppearance(t *testing.T) {
	tmpl := MustFromTemplate("{language} {topic} {style} {topic} {length}")
	assert.Equal(t, []string{"language", "topic", "style", "length"}, tmpl.InputVariables())
}

func TestEscapedBraces(t *testing.T) {
	tmpl := MustFromTemplate(`Reply as JSON like {{"name": "{name}"}}`)
	assert.Equal(t, []string{"name"}, tmpl.InputVariables())

	out, err := tmpl.Format(map[string]interface{}{"name": "gopher"})
	require.NoError(t, err)
	assert.Equal(t, `Reply as JSON like {"name": "gopher"}`, out)
}

func TestMalformedTemplates(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unclosed", "hello {name"},
		{"stray close", "hello name}"},
		{"empty", "hello {}"},
		{"nested", "hello {a{b}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTemplate(tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrTemplate))
		})
	}

	assert.Panics(t, func() { MustFromTemplate("{") })
}

func TestExtraVariablesAreIgnored(t *testing.T) {
	out, err := MustFromTemplate("Hi {name}").Format(map[string]interface{}{"name": "Mo", "unused": 1})
	require.NoError(t, err)
	assert.Equal(t, "Hi Mo", out)
}

func TestPartial(t *testing.T) {
	base := MustFromTemplate("You are a {role}. Complete the task in {style} style: {task}")
	mentor := base.Partial(map[string]interface{}{"role": "programming mentor", "style": "concise"})

	assert.Equal(t, []string{"task"}, mentor.InputVariables())
	assert.Equal(t, []string{"role", "style", "task"}, base.InputVariables())

	out, err := mentor.Format(map[string]interface{}{"task": "explain closures"})
	require.NoError(t, err)
	assert.Equal(t, "You are a programming mentor. Complete the task in concise style: explain closures", out)

	// call-time values win over partials
	out, err = mentor.Format(map[string]interface{}{"task": "x", "style": "detailed"})
	require.NoError(t, err)
	assert.Contains(t, out, "detailed style")
}

func TestFormatPromptAndInvoke(t *testing.T) {
	tmpl := MustFromTemplate("Tell me a joke about {topic}")

	v, err := tmpl.Invoke(map[string]interface{}{"topic": "cats"})
	require.NoError(t, err)
	assert.Equal(t, "Tell me a joke about cats", v.String())

	msgs := v.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, types.RoleHuman, msgs[0].Role)
	assert.Equal(t, "Tell me a joke about cats", msgs[0].Content)

	_, err = tmpl.FormatPrompt(nil)
	assert.Error(t, err)
}

func TestValuesAreRenderedWithSprint(t *testing.T) {
	out, err := MustFromTemplate("{n} items, {ok}").Format(map[string]interface{}{"n": 3, "ok": true})
	require.NoError(t, err)
	assert.Equal(t, "3 items, true", out)
}
