package main

import (
	"fmt"
	"os"

	"github.com/actionsum/focusgov/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "focusgov: %v\n", err)
		os.Exit(1)
	}
}
