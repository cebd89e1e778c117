// cmd/mcp-demo-server/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sammcj/promptlab/logging"
	"github.com/sammcj/promptlab/mcpserver"
	"github.com/sammcj/promptlab/tools"
)

// stdout carries the protocol, so everything else goes to stderr
func main() {
	root := flag.String("root", ".", "base directory for the filesystem tool")
	db := flag.String("db", "", "SQLite database for the query tool (omit to disable)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := logging.NewWithOutput(os.Stderr, *level, "text")
	log := logging.Component(logger, "mcp-demo-server")

	set, closer, err := tools.Default(*root, *db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up tools: %v\n", err)
		os.Exit(1)
	}

	s := mcpserver.New(set, closer, log)
	defer s.Close()

	if err := s.Serve(); err != nil {
		log.WithError(err).Error("server stopped")
		s.Close()
		os.Exit(1)
	}
}
