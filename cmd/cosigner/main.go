// Package main is the entry point for the cosigner CLI.
package main

import (
	"errors"
	"os"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/cmd"
	"github.com/xdg/cosigner/internal/term"
)

func main() {
	err := cmd.Execute()
	_ = clog.Close()
	if err != nil {
		var exitErr *cmd.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		term.Error("%v", err)
		os.Exit(1)
	}
}
