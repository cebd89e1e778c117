// cmd/model-params/main.go
package main

import (
	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/demo"
)

func main() {
	env, _, cancel, err := demo.Setup("model-params")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	base := env.Config.LLM

	env.Section("1: base parameters")
	if _, err := env.Model(base); err != nil {
		env.Fatal(err)
	}
	describe(env, base)

	env.Section("2: copied and modified")
	creative := base.WithTemperature(0.8)
	if _, err := env.Model(creative); err != nil {
		env.Fatal(err)
	}
	describe(env, creative)
	env.Field("base temperature unchanged", base.Temperature)

	env.Section("3: conditional builder")
	for _, p := range []config.ModelParams{
		config.NewModelParams(true, 0.1),
		config.NewModelParams(false, 0.8),
	} {
		if _, err := env.Model(p); err != nil {
			env.Fatal(err)
		}
		describe(env, p)
	}

	env.Box("Parameter examples complete!")
}

func describe(env *demo.Env, p config.ModelParams) {
	env.Field("model", p.Model)
	env.Field("temperature", p.Temperature)
	env.Field("streaming", p.Streaming)
}
