// File: cmd/drivermatch/main.go
/*
Copyright © 2025 Kyle McAllister (xkilldash9x@proton.me)
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/drivermatch/api/schemas"
	"github.com/xkilldash9x/drivermatch/cmd"
	"github.com/xkilldash9x/drivermatch/internal/observability"
)

const panicLogFile = "panic.log"

// Exit codes. Scripts rely on telling "no driver fits" apart from other failures.
const (
	exitOK           = 0
	exitFailure      = 1
	exitNoCompatible = 2
	exitEmptyCatalog = 3
)

// Define function variables for dependency injection/mocking in tests.
var (
	osWriteFile = os.WriteFile
	// Allows mocking os.Exit in tests.
	osExit = os.Exit
)

// main is the entry point of the application.
func main() {
	defer handlePanic()

	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM) for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		reportError(os.Stderr, err)
		osExit(exitCode(err))
	}
}

// reportError prints a failure for the user. An interrupt is not a failure;
// cmd.Execute has already logged it.
func reportError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return exitOK
	case errors.Is(err, schemas.ErrNoCompatibleDriver):
		return exitNoCompatible
	case errors.Is(err, schemas.ErrEmptyCatalog):
		return exitEmptyCatalog
	default:
		return exitFailure
	}
}

// handlePanic records an unrecovered panic to panicLogFile and exits non-zero.
func handlePanic() {
	if r := recover(); r != nil {
		// Ensure logs are flushed before proceeding.
		observability.Sync()

		panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())

		if err := osWriteFile(panicLogFile, []byte(panicMessage), 0644); err != nil {
			// If logging fails, print to stderr as a fallback.
			fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
			fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
			osExit(exitFailure)
			return // Return facilitates testing when osExit is mocked.
		}

		fmt.Fprintf(os.Stderr, "\n----------------------------------------------------------------\n")
		fmt.Fprintf(os.Stderr, "CRASH DETECTED. Details logged to %s\n", panicLogFile)
		fmt.Fprintf(os.Stderr, "----------------------------------------------------------------\n\n")
		osExit(exitFailure)
	}
}
