// cmd/prompt-basics/main.go
package main

import (
	"fmt"

	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/prompt"
	"github.com/sammcj/promptlab/types"
)

func main() {
	env, ctx, cancel, err := demo.Setup("prompt-basics")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	model, err := env.Model(env.Config.LLM)
	if err != nil {
		env.Fatal(err)
	}

	ask := func(text string) {
		resp, err := model.Generate(ctx, []types.Message{types.Human(text)})
		if err != nil {
			env.Fatal(err)
		}
		env.Field("AI", resp.Content)
	}

	joke := prompt.MustFromTemplate("Tell me a joke about {topic}")

	env.Section("Method 1: Invoke and convert to a string")
	value, err := joke.Invoke(map[string]interface{}{"topic": "cats"})
	if err != nil {
		env.Fatal(err)
	}
	env.Field("Prompt value", value)
	env.Field("Type", fmt.Sprintf("%T", value))
	env.Field("Text", value.String())
	ask(value.String())

	env.Section("Method 2: a plain string")
	ask("Recommend a book for learning prompt engineering")

	env.Section("Method 3: Format")
	text, err := joke.Format(map[string]interface{}{"topic": "programming"})
	if err != nil {
		env.Fatal(err)
	}
	env.Field("Formatted", text)
	ask(text)

	env.Section("Method 4: FormatPrompt")
	value, err = joke.FormatPrompt(map[string]interface{}{"topic": "dogs"})
	if err != nil {
		env.Fatal(err)
	}
	env.Field("Prompt value", value)
	ask(value.String())
}
