// Package main provides the layerlint command line tool.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/layerlint/layerlint/internal/cli"
)

func main() {
	// Optional .env for LAYERLINT_* overrides; a missing file is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
