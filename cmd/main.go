package main

import (
	"fmt"
	"os"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "auth-service",
		Version: constants.AppVersion,
		Usage:   "credential and authorization service",
		Commands: []*cli.Command{
			&serveCommand,
			&migrateCommand,
			&provisionAdminCommand,
		},
		// running the binary without a command serves HTTP
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "auth-service: %s\n", err)
		os.Exit(1)
	}
}
