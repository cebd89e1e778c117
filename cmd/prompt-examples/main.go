// cmd/prompt-examples/main.go
package main

import (
	"fmt"

	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/prompt"
	"github.com/sammcj/promptlab/types"
)

func main() {
	env, ctx, cancel, err := demo.Setup("prompt-examples")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	model, err := env.Model(env.Config.LLM)
	if err != nil {
		env.Fatal(err)
	}

	show := func(t *prompt.Template, vars map[string]interface{}) {
		out, err := t.Format(vars)
		if err != nil {
			env.Fatal(err)
		}
		env.Field("Template", t.Template())
		env.Field("Result", out)
	}

	env.Section("1. Basic template")
	greeting := prompt.MustFromTemplate("Hello, {name}! How is the weather today?")
	show(greeting, map[string]interface{}{"name": "Alex"})

	env.Section("2. Multiple variables")
	story := prompt.MustFromTemplate("Write a {style} story about {topic} in {language}, about {length} words long.")
	show(story, map[string]interface{}{
		"language": "English",
		"topic":    "artificial intelligence",
		"style":    "science fiction",
		"length":   500,
	})

	env.Section("3. Partial values")
	books := prompt.MustFromTemplate("Recommend {count} books on {category} at {difficulty} level.")
	beginner := books.Partial(map[string]interface{}{"difficulty": "beginner"})
	env.Field("Still needed", beginner.InputVariables())
	show(beginner, map[string]interface{}{"category": "Go programming", "count": 3})

	env.Section("4. With the model")
	expert := prompt.MustFromTemplate("You are a professional {role}. Answer the following question in a {style} way: {question}")
	text, err := expert.Format(map[string]interface{}{
		"role":     "programming mentor",
		"style":    "concise",
		"question": "What is a closure in Go?",
	})
	if err != nil {
		env.Fatal(err)
	}
	env.Field("Prompt", text)
	resp, err := model.Generate(ctx, []types.Message{types.Human(text)})
	if err != nil {
		env.Fatal(err)
	}
	env.Field("AI", preview(resp.Content, 200))

	env.Section("5. Missing variables")
	if _, err := greeting.Format(nil); err != nil {
		env.Error(err)
	}

	env.Section("6. Templates built at runtime")
	dynamic := newRoleTemplate("data analyst", "concise")
	show(dynamic, map[string]interface{}{"task_description": "analyse the sales trend"})

	env.Box("Templates: FromTemplate, Format or Invoke, {name} placeholders, combine with a model, build at runtime")
}

// newRoleTemplate bakes role and style into the source; only the task stays a placeholder
func newRoleTemplate(role, style string) *prompt.Template {
	return prompt.MustFromTemplate(fmt.Sprintf(
		"You are a %s. Complete the following task in a %s format: {task_description}", role, style))
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
