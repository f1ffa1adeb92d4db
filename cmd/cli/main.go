package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/codacore/review-agent/internal/core"
)

// Exit statuses distinguish "nothing to do" from "failed" from "succeeded".
// 78 is the old Actions "neutral" convention: the gate did not fire or the
// commit was already reviewed.
const (
	exitFailure     = 1
	exitNothingToDo = 78
)

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := Execute(); err != nil {
		if errors.Is(err, core.ErrNothingToDo) {
			fmt.Fprintln(os.Stderr, "nothing to do:", err)
			os.Exit(exitNothingToDo)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitFailure)
	}
}
