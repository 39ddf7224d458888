package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/cli/output"
	"github.com/dayon-app/dayon-go/internal/core/domain"
	"github.com/dayon-app/dayon-go/internal/infra/buildinfo"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:     "dayon-cli",
		Usage:    "Browse and book boarding houses on Dayon",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Commands: commands(),
		Metadata: map[string]any{},

		HideVersion:    true,
		Writer:         os.Stdout,
		ErrWriter:      os.Stderr,
		Reader:         os.Stdin,
		ExitErrHandler: func(*cli.Context, error) {},
		Action:         rootAction,

		Before: func(c *cli.Context) error {
			if env := envFrom(c); env != nil {
				env.applyLineFlags(c)
				return nil
			}
			env, err := newEnv(c)
			if err != nil {
				return err
			}
			c.App.Metadata[envKey] = env
			return nil
		},
		After: func(c *cli.Context) error {
			env := envFrom(c)
			if env == nil {
				return nil
			}
			if env.inShell {
				env.Printer = env.basePrinter
				return nil
			}
			delete(c.App.Metadata, envKey)
			return env.Close()
		},
	}
	return app
}

func commands() []*cli.Command {
	return []*cli.Command{
		LoginCommand(),
		RegisterCommand(),
		LogoutCommand(),
		WhoamiCommand(),
		ForgotPasswordCommand(),
		ProfileCommand(),
		PropertyCommand(),
		ReservationCommand(),
		ReviewCommand(),
		ConfigCommand(),
		VersionCommand(),
		ShellCommand(),
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.dayon/config.yaml)",
			EnvVars: []string{"DAYON_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "API base URL (e.g., http://localhost:8000/api)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "token-store",
			Usage: "Token store driver: file, badger, redis, memory",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the token in memory only for this invocation",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write client metrics to this file on exit (textfile collector format)",
		},
	}
}

func rootAction(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unknown command %q, see '%s help'", c.Args().First(), c.App.Name)
	}
	return cli.ShowAppHelp(c)
}

// Run runs app with args and renders any error. It returns the process
// exit code.
func Run(ctx context.Context, app *cli.App, args []string) int {
	err := app.RunContext(withTraceID(ctx), args)
	if err == nil {
		return 0
	}
	RenderError(app.ErrWriter, err)
	return 1
}

// withTraceID gives ctx a fresh trace ID shared by every request and log
// line of one invocation.
func withTraceID(ctx context.Context) context.Context {
	return logger.WithTraceID(ctx, strings.ToLower(ulid.Make().String()))
}

// RenderError writes err for a human. Validation failures list every field
// message; other errors are a single line.
func RenderError(w io.Writer, err error) {
	p := output.NewPrinter(w, w, output.FormatTable, false)

	if ve, ok := domain.AsValidation(err); ok {
		msg := ve.Message
		if msg == "" {
			msg = "validation failed"
		}
		p.FieldErrors(msg, ve.Fields, ve.FieldNames())
		return
	}
	p.Error("%s", describeError(err))
}

// describeError turns the client error types into a short message.
func describeError(err error) string {
	var (
		ne *domain.NetworkError
		he *domain.HTTPError
		se *domain.StorageError
	)
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not logged in, run 'dayon-cli login' first"
	case errors.Is(err, domain.ErrAuthFailed) && errors.As(err, &he) && he.AuthRejected():
		return "invalid email or password"
	case errors.As(err, &he) && he.AuthRejected():
		return "session expired or not authorised, run 'dayon-cli login'"
	case errors.As(err, &he):
		if he.Message != "" {
			return he.Message
		}
		return fmt.Sprintf("server returned %d for %s %s", he.Status, he.Method, he.Path)
	case errors.As(err, &ne):
		if ne.Timeout() {
			return fmt.Sprintf("request to %s timed out", ne.Path)
		}
		return fmt.Sprintf("cannot reach server: %v", ne.Err)
	case errors.As(err, &se):
		return se.Error()
	}
	return err.Error()
}
