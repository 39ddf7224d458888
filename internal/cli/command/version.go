package command

import (
	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			env, err := mustEnv(c)
			if err != nil {
				return err
			}
			return env.Printer.Print(buildinfo.Get())
		},
	}
}
