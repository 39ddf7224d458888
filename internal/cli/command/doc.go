// Package command defines the dayon-cli commands using urfave/cli/v2:
//
//   - root.go: root command, global flags, error rendering
//   - env.go: per-invocation config, logger, metrics and lazily restored session
//   - auth.go: login, register, logout, whoami, forgot-password
//   - profile.go: profile subcommand group
//   - property.go, reservation.go, review.go: marketplace subcommand groups
//   - config.go: configuration subcommand group
//   - shell.go: interactive shell over one restored session
//   - views.go: table columns for results
//
// Commands follow a consistent pattern of parsing flags, calling the
// session manager or marketplace client, and formatting output.
package command
