// Package main - Administrative CLI for the social-insurance service
package main

import (
	"fmt"
	"os"

	"social-insurance/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
