package main

import (
	"os"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
