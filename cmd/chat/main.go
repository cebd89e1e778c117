// cmd/chat/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sammcj/promptlab/bridge"
	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/history"
	"github.com/sammcj/promptlab/interactive"
	"github.com/sammcj/promptlab/tools"
)

func main() {
	session := flag.String("session", "", "resume a stored session id")
	withTools := flag.Bool("tools", false, "let the model call the built-in tools")
	mcpServer := flag.String("mcp", "", "let the model call tools from this configured MCP server")
	system := flag.String("system", "", "system prompt")

	env, ctx, cancel, err := demo.Setup("chat")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	model, err := env.Model(env.Config.LLM)
	if err != nil {
		env.Fatal(err)
	}

	store, err := history.Open(ctx, env.Config.History)
	if err != nil {
		env.Fatal(err)
	}
	env.Shutdown.Register("history", store)

	opts := []interactive.Option{}
	if *session != "" {
		opts = append(opts, interactive.WithSession(*session))
	}
	if *system != "" {
		opts = append(opts, interactive.WithSystemPrompt(*system))
	}

	var set []bridge.Tool
	if *withTools {
		local, closer, err := tools.Default(".", "")
		if err != nil {
			env.Fatal(err)
		}
		env.Shutdown.Register("tools", demo.CloserFunc(closer))
		set = append(set, bridge.LocalTools(local)...)
	}
	if *mcpServer != "" {
		srv, ok := env.Config.Server(*mcpServer)
		if !ok {
			env.Fatal(fmt.Errorf("no MCP server named %q", *mcpServer))
		}
		client, err := bridge.NewMCPClient(srv, env.Log)
		if err != nil {
			env.Fatal(err)
		}
		env.Shutdown.Register("mcp "+srv.Name, client)
		if _, err := client.Initialize(ctx); err != nil {
			env.Fatal(err)
		}
		remote, err := bridge.LoadMCPTools(ctx, client)
		if err != nil {
			env.Fatal(err)
		}
		set = append(set, remote...)
	}
	if len(set) > 0 {
		opts = append(opts, interactive.WithTools(set,
			bridge.WithMaxIterations(env.Config.Agent.MaxIterations),
			bridge.WithParallelTools(env.Config.Agent.Parallel),
			bridge.WithAgentLogger(env.Log),
		))
	}

	chat := interactive.New(model, store, env.Log, opts...)
	env.Field("Model", env.Config.LLM.Model)
	env.Field("Session", chat.Session())

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".promptlab_history")
	}
	if err := chat.Start(ctx, historyFile); err != nil && ctx.Err() == nil {
		env.Fatal(err)
	}
}
