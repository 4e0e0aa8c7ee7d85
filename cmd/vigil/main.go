package main

import (
	"os"

	"github.com/wonny/vigil/backend/cmd/vigil/commands"
)

// main is the entry point for the Vigil CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/vigil [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
