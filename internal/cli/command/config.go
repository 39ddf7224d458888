package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	data, err := config.Marshal(env.Config)
	if err != nil {
		return err
	}
	_, err = env.Printer.Out.Write(data)
	return err
}

func configPath(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Printer.Out, env.ConfigPath)
	return nil
}

func configInit(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	if _, err := os.Stat(env.ConfigPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", env.ConfigPath)
	}

	cfg := *env.Config
	cfg.EnsureInstallationID()
	if err := config.Save(&cfg, env.ConfigPath); err != nil {
		return err
	}
	env.Printer.Success("Configuration written to %s", env.ConfigPath)
	return nil
}
