// Package main provides the entry point for the promptpack CLI.
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"promptpack/internal/core/errors"
)

const VERSION = "1.0.0"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", userMessage(err))
		return exitCode(err)
	}
	return exitOK
}

// Missing paths and bad flag values are usage errors.
func exitCode(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeNotFound, errors.CodeValidationError:
		return exitUsage
	}
	return exitError
}

// userMessage drops the code and context decoration of domain errors.
func userMessage(err error) string {
	var de *errors.DomainError
	if !stderrors.As(err, &de) {
		return err.Error()
	}
	if de.Err != nil {
		return fmt.Sprintf("%s: %v", de.Message, de.Err)
	}
	return de.Message
}
