// Package main provides the entrypoint for the chatbot service.
package main

import (
	"os"

	"github.com/basakil/brm-chatbot/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
