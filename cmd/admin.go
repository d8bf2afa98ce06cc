package main

import (
	"fmt"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	"github.com/Payphone-Digital/auth-service/internal/service"
	"github.com/urfave/cli/v2"
)

var migrateCommand = cli.Command{
	Name:  "migrate",
	Usage: "create or update the database schema and exit",
	Action: func(c *cli.Context) error {
		// newApp migrates on open
		a, err := newApp()
		if err != nil {
			return err
		}
		a.close()
		fmt.Fprintln(c.App.Writer, "database schema is up to date")
		return nil
	},
}

var provisionAdminCommand = cli.Command{
	Name:      "provision-admin",
	Usage:     "create the first admin account when none is active",
	UsageText: "auth-service provision-admin --username root --email root@example.com [--password secret]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "username",
			Aliases:  []string{"u"},
			Usage:    "admin username",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "admin email",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "admin password; generated and printed when omitted",
			EnvVars: []string{"BOOTSTRAP_ADMIN_PASSWORD"},
		},
	},
	Action: provisionAdmin,
}

func provisionAdmin(c *cli.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	bootstrap := service.NewBootstrapService(a.repo, a.hasher, a.validator, a.config.Security.MinPasswordLength)
	res, err := bootstrap.ProvisionAdmin(c.Context, dto.ProvisionAdminRequest{
		Username: c.String("username"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "admin %q created with id %d\n", res.User.Username, res.User.ID)
	if res.GeneratedPassword != "" {
		fmt.Fprintf(c.App.Writer, "generated password: %s\n", res.GeneratedPassword)
	}
	return nil
}
