package main

import (
	"os"
)

func main() {
	rootCmd := newRootCommand()

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newPersonasCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
