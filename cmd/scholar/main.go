// Package main is the entry point for the scholar CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/scholar/internal/adapters/driving/cli"
)

func main() {
	// A .env file may supply OPENAI_API_KEY.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
