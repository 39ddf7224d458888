package command

import (
	"context"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell on one restored session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write ~/.dayon/history",
			},
		},
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	m, err := env.Session(c.Context)
	if err != nil {
		return err
	}
	if s := m.Current(); s.Authenticated() {
		env.Printer.Success("Logged in as %s", displayName(s.User))
	} else {
		env.Printer.Warn("Not logged in, use 'login' to sign in")
	}

	historyFile := ""
	if !c.Bool("no-history") {
		historyFile = repl.DefaultHistoryFile()
	}
	history := repl.NewHistory(historyFile)
	if err := history.Load(); err != nil {
		env.Log.Warn("shell history unreadable", "error", err)
	}

	env.inShell = true
	defer func() { env.inShell = false }()

	r := repl.New(c.App.Reader, c.App.ErrWriter, shellExecutor(c.App, env),
		repl.WithCompleter(repl.NewCompleter(commandPaths(c.App.Commands, "")...)),
		repl.WithHistory(history),
	)
	runErr := r.Run(c.Context)
	if err := history.Save(); err != nil {
		env.Log.Warn("shell history not saved", "error", err)
	}
	return runErr
}

// shellExecutor runs one shell line through a fresh command tree that shares
// env, so every line sees the session the shell restored.
func shellExecutor(parent *cli.App, env *Env) repl.Executor {
	return func(ctx context.Context, args []string) error {
		app := App()
		app.Writer = parent.Writer
		app.ErrWriter = parent.ErrWriter
		app.Reader = parent.Reader
		app.Metadata[envKey] = env

		err := app.RunContext(withTraceID(ctx), append([]string{parent.Name}, args...))
		if err != nil {
			RenderError(parent.ErrWriter, err)
		}
		return nil
	}
}

// commandPaths lists "cmd" and "cmd sub" for the completer.
func commandPaths(cmds []*cli.Command, prefix string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "shell" {
			continue
		}
		path := strings.TrimSpace(prefix + " " + cmd.Name)
		paths = append(paths, path)
		paths = append(paths, commandPaths(cmd.Subcommands, path)...)
	}
	return paths
}
