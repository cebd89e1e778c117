// cmd/mcp-agent/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/sammcj/promptlab/bridge"
	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/tools"
	"github.com/sammcj/promptlab/types"
)

func main() {
	server := flag.String("server", "", "MCP server name from the config file (default: first)")
	local := flag.Bool("local", false, "use the built-in tools in-process instead of an MCP server")
	root := flag.String("root", ".", "base directory for the built-in filesystem tool")
	db := flag.String("db", "", "SQLite database for the built-in query tool")
	question := flag.String("q", "List the projects I take part in. Return only the project names.", "question to ask")

	env, ctx, cancel, err := demo.Setup("mcp-agent")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	model, err := env.Model(env.Config.LLM)
	if err != nil {
		env.Fatal(err)
	}

	opts := []bridge.AgentOption{
		bridge.WithMaxIterations(env.Config.Agent.MaxIterations),
		bridge.WithParallelTools(env.Config.Agent.Parallel),
		bridge.WithAgentLogger(env.Log),
	}

	run := func(ctx context.Context, set []bridge.Tool) error {
		agent := bridge.NewAgent(model, set, opts...)
		agent.OnToolCall = func(call types.ToolCall) {
			env.Field("Running tool", call.Function.Name)
		}
		res, err := agent.Ask(ctx, *question)
		if res != nil {
			env.Field("Model calls", res.Iterations)
			env.Field("Tool calls", res.ToolCalls)
		}
		if errors.Is(err, types.ErrMaxIterations) {
			env.Error(err)
			return nil
		}
		if err != nil {
			return err
		}
		env.Field("Final answer", res.Final.Content)
		return nil
	}

	if *local {
		set, closer, err := tools.Default(*root, *db)
		if err != nil {
			env.Fatal(err)
		}
		env.Shutdown.Register("tools", demo.CloserFunc(closer))
		if err := run(ctx, bridge.LocalTools(set)); err != nil {
			env.Fatal(err)
		}
		return
	}

	srv, ok := env.Config.Server(*server)
	if !ok {
		env.Fatal(fmt.Errorf("no MCP server named %q", *server))
	}
	err = bridge.WithSession(ctx, srv, env.Log, func(ctx context.Context, client *bridge.MCPClient) error {
		set, err := bridge.LoadMCPTools(ctx, client)
		if err != nil {
			return err
		}
		return run(ctx, set)
	})
	if err != nil {
		env.Fatal(err)
	}
}
