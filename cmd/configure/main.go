package main

import (
	"fmt"
	"os"

	"github.com/benvon/napoleon/cmd/configure/commands"
)

func main() {
	if err := commands.NewRootCmd(commands.OpenConfiguredStore).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
