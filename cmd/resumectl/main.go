package main

import (
	"os"

	"resumeai-backend/cmd/resumectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
