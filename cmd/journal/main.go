package main

import (
	"fmt"
	"os"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	if err := Root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
