// Package main is the entry point for the workbench service.
package main

import (
	"context"
	"fmt"
	"os"

	"workbench/bootstrap"
	"workbench/cmd"
)

// run initializes and starts the workbench server.
func run() error {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	app.WaitForShutdown()
	app.Shutdown()

	return nil
}

// main dispatches CLI subcommands, otherwise runs the server.
func main() {
	if len(os.Args) > 1 && os.Args[1] == "detect" {
		// Strip "detect" from os.Args since the command already knows its name
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

		detectCmd := cmd.NewDetectCmd()
		if err := detectCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
