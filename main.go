package main

import (
	"fmt"
	"os"

	"github.com/aqlanhadi/stmtscrape/cmd"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("stmtscrape version %s\n", version)
		os.Exit(0)
	}

	cmd.Execute()
}
