package main

import (
	"os"

	"github.com/wonny/alphaforge/cmd/alphaforge/commands"
)

// main is the entry point for the AlphaForge CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/alphaforge [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
