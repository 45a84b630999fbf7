// Package main provides the entry point for the intact directory-integrity
// auditor CLI.
package main

import (
	"os"

	"github.com/jamesainslie/intact/pkg/intact/logging"
)

func main() {
	err := Execute()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}
