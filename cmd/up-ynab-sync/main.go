// Package main is the entry point for the up-ynab-sync CLI.
package main

import (
	"os"

	"github.com/lachlanmcd/up-ynab-sync/cmd/up-ynab-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
