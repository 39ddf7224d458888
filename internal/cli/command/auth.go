package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email",
				EnvVars: []string{"DAYON_EMAIL"},
			},
			passwordFlag(),
			passwordStdinFlag(),
			&cli.StringFlag{
				Name:  "device-name",
				Usage: "Label for the issued token (default from config)",
			},
		},
		Action: login,
	}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Account password (prefer --password-stdin)",
		EnvVars: []string{"DAYON_PASSWORD"},
	}
}

func passwordStdinFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "password-stdin",
		Usage: "Read the password from the first line of stdin",
	}
}

func login(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	password, err := readPassword(c)
	if err != nil {
		return err
	}
	m, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	user, err := m.Login(c.Context, domain.Credentials{
		Email:      strings.TrimSpace(c.String("email")),
		Password:   password,
		DeviceName: c.String("device-name"),
	})
	if err != nil {
		return err
	}
	env.Printer.Success("Logged in as %s", displayName(user))
	return nil
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and log in",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Full name",
			},
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email",
			},
			passwordFlag(),
			passwordStdinFlag(),
			&cli.StringFlag{
				Name:  "password-confirmation",
				Usage: "Password again (defaults to --password)",
			},
		},
		Action: register,
	}
}

func register(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	password, err := readPassword(c)
	if err != nil {
		return err
	}
	confirmation := password
	if c.IsSet("password-confirmation") {
		confirmation = c.String("password-confirmation")
	}
	m, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	user, err := m.Register(c.Context, domain.Registration{
		Name:                 strings.TrimSpace(c.String("name")),
		Email:                strings.TrimSpace(c.String("email")),
		Password:             password,
		PasswordConfirmation: confirmation,
	})
	if err != nil {
		return err
	}
	env.Printer.Success("Account created, logged in as %s", displayName(user))
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Log out and forget the stored token",
		Action: logout,
	}
}

func logout(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	m, err := env.Session(c.Context)
	if err != nil {
		return err
	}
	wasIn := m.Current().Authenticated()
	if err := m.Logout(c.Context); err != nil {
		return err
	}
	if wasIn {
		env.Printer.Success("Logged out")
	} else {
		env.Printer.Warn("Not logged in")
	}
	return nil
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the logged-in user",
		Action: whoami,
	}
}

func whoami(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	_, user, err := env.Authenticated(c.Context)
	if err != nil {
		return err
	}
	return env.Printer.Print(userView{user})
}

// ForgotPasswordCommand returns the forgot-password command.
func ForgotPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "forgot-password",
		Usage:     "Email a password reset link",
		ArgsUsage: "EMAIL",
		Action:    forgotPassword,
	}
}

func forgotPassword(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	m, err := env.Session(c.Context)
	if err != nil {
		return err
	}
	status, err := m.ForgotPassword(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	if status == "" {
		status = "Password reset link sent"
	}
	env.Printer.Success("%s", status)
	return nil
}

// readPassword returns --password, or the first stdin line with
// --password-stdin.
func readPassword(c *cli.Context) (string, error) {
	if !c.Bool("password-stdin") {
		return c.String("password"), nil
	}
	if c.IsSet("password") {
		return "", fmt.Errorf("--password and --password-stdin are mutually exclusive")
	}
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func displayName(u *domain.User) string {
	switch {
	case u == nil:
		return "unknown user"
	case u.Name != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return "user " + u.ID.String()
}
