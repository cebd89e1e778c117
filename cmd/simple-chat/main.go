// cmd/simple-chat/main.go
package main

import (
	"fmt"

	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/llm"
	"github.com/sammcj/promptlab/types"
)

func main() {
	env, ctx, cancel, err := demo.Setup("simple-chat")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	params := env.Config.LLM
	var opts []llm.Option
	if params.Streaming {
		opts = append(opts, llm.WithStreamHandler(func(token string) { fmt.Fprint(env.Out, token) }))
	}

	model, err := env.Model(params, opts...)
	if err != nil {
		env.Fatal(err)
	}

	resp, err := model.Generate(ctx, []types.Message{
		types.Human("Hi, I'm Alex. What's the weather like today?"),
	})
	if err != nil {
		env.Fatal(err)
	}

	if params.Streaming {
		fmt.Fprintln(env.Out)
		return
	}
	fmt.Fprintln(env.Out, resp.Content)
}
