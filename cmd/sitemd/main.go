// Package main is the entry point for the sitemd CLI.
package main

import (
	"os"

	"github.com/jmylchreest/sitemd/cmd/sitemd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
