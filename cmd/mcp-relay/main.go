// cmd/mcp-relay/main.go
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/sammcj/promptlab/bridge"
	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/types"
)

func main() {
	server := flag.String("server", "", "MCP server name from the config file (default: first)")
	question := flag.String("q", "List the projects I take part in. Return only the project names.", "question to ask")

	env, ctx, cancel, err := demo.Setup("mcp-relay")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	srv, ok := env.Config.Server(*server)
	if !ok {
		env.Fatal(fmt.Errorf("no MCP server named %q", *server))
	}

	model, err := env.Model(env.Config.LLM)
	if err != nil {
		env.Fatal(err)
	}

	var final *types.LLMResponse
	err = bridge.WithSession(ctx, srv, env.Log, func(ctx context.Context, client *bridge.MCPClient) error {
		tools, err := bridge.LoadMCPTools(ctx, client)
		if err != nil {
			return err
		}
		env.Log.Infof("loaded %d tools from %s", len(tools), srv.Name)

		relay := bridge.NewRelay(model, tools, env.Log)
		relay.OnToolCall = func(call types.ToolCall) {
			env.Field("Running tool", call.Function.Name)
		}
		final, err = relay.Ask(ctx, *question)
		return err
	})
	if err != nil {
		env.Fatal(err)
	}

	env.Field("Final answer", final.Content)
}
