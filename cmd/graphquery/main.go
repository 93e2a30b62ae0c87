// Package main provides the entry point for the graphquery CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/graphquery/cmd/graphquery/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
