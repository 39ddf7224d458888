// Package repl provides the interactive shell of dayon-cli.
//
// The loop reads a line, splits it into shell-style words and hands them to
// an Executor, which in dayon-cli runs the regular command tree against the
// session restored when the shell started:
//
//   - repl.go: read loop, built-ins and word splitting
//   - completer.go: command suggestions
//   - history.go: command history persistence
package repl
