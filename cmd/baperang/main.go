package main

import (
	"os"

	"github.com/ssafy/baperang/backend/cmd/baperang/commands"
)

// main is the entry point for the baperang CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/baperang [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
