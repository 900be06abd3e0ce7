// Package main provides the entry point for the shelf command.
package main

import (
	"os"

	"github.com/shelfapp/shelf/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
