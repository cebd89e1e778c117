// cmd/create-example-db/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sammcj/promptlab/tools"
)

func main() {
	path := flag.String("db", "test.db", "database file to create or top up")
	flag.Parse()

	if err := tools.SeedExampleDB(*path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("example data written to %s\n", *path)
}
