package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/client/api"
)

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your account",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile as stored on the server",
				Action: profileShow,
			},
			{
				Name:  "update",
				Usage: "Change your name and email",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "New name (default: current)",
					},
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "New email (default: current)",
					},
				},
				Action: profileUpdate,
			},
			{
				Name:  "password",
				Usage: "Change your password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "current",
						Usage:    "Current password",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "new",
						Usage:    "New password",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "confirm",
						Usage: "New password again (defaults to --new)",
					},
				},
				Action: profilePassword,
			},
		},
	}
}

func profileShow(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	m, _, err := env.Authenticated(c.Context)
	if err != nil {
		return err
	}
	user, err := m.Refresh(c.Context)
	if err != nil {
		return err
	}
	return env.Printer.Print(userView{user})
}

func profileUpdate(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	m, current, err := env.Authenticated(c.Context)
	if err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	name, email := current.Name, current.Email
	if c.IsSet("name") {
		name = strings.TrimSpace(c.String("name"))
	}
	if c.IsSet("email") {
		email = strings.TrimSpace(c.String("email"))
	}

	if _, err := client.Profile.Update(c.Context, name, email); err != nil {
		return err
	}
	user, err := m.Refresh(c.Context)
	if err != nil {
		return err
	}
	env.Printer.Success("Profile updated")
	return env.Printer.Print(userView{user})
}

func profilePassword(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	if _, _, err := env.Authenticated(c.Context); err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	change := api.PasswordChange{
		Current:      c.String("current"),
		New:          c.String("new"),
		Confirmation: c.String("new"),
	}
	if c.IsSet("confirm") {
		change.Confirmation = c.String("confirm")
	}
	msg, err := client.Profile.ChangePassword(c.Context, change)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Password changed"
	}
	env.Printer.Success("%s", msg)
	return nil
}
