package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	root, opts := newRootCommand()
	err := root.Execute()
	if err == nil {
		return
	}
	var exitErr exitError
	if errors.As(err, &exitErr) {
		if !exitErr.silent && exitErr.message != "" {
			fmt.Fprintln(os.Stderr, exitErr.message)
		}
		os.Exit(exitErr.code)
	}
	opts.logger.Debug("command failed", zap.Error(err))
	_ = opts.logger.Sync()
	fmt.Fprintln(os.Stderr, "Error:", err.Error())
	os.Exit(1)
}
