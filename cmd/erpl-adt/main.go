// Package main is the entry point for the erpl-adt CLI.
package main

import (
	"os"

	"github.com/erpl/erpl-adt/cmd/erpl-adt/app"
	"github.com/erpl/erpl-adt/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		app.RenderError(err)
		os.Exit(app.ExitCode(err))
	}
}
