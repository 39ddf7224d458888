package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}
	if app.Name != "dayon-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "dayon-cli")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	required := []string{
		"login", "register", "logout", "whoami", "forgot-password",
		"profile", "property", "reservation", "review",
		"config", "version", "shell",
	}
	for _, name := range required {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}
	required := []string{"config", "server", "output", "wide", "token-store", "ephemeral", "log-level", "verbose", "metrics-file"}
	for _, name := range required {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestRun_HelpAndUnknownCommand(t *testing.T) {
	e := newTestEnv(t)

	r := e.run("")
	if r.code != 0 {
		t.Fatalf("bare invocation failed:\n%s", r)
	}
	assertContains(t, r.stdout, "dayon-cli")
	assertContains(t, r.stdout, "reservation")

	r = e.run("", "bogus")
	if r.code != 1 {
		t.Fatalf("exit code = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, `unknown command "bogus"`)
}

func TestRun_InvalidConfig(t *testing.T) {
	e := newTestEnv(t)

	r := e.run("", "--output", "xml", "version")
	if r.code != 1 {
		t.Fatalf("exit code = %d, want 1\n%s", r.code, r)
	}
	assertContains(t, r.stderr, "error:")
}

func TestRun_ServerUnreachable(t *testing.T) {
	e := newTestEnv(t)
	e.ts.Close()

	r := e.run("", "property", "list")
	if r.code != 1 {
		t.Fatalf("exit code = %d, want 1\n%s", r.code, r)
	}
	assertContains(t, r.stderr, "cannot reach server")
}

func TestRun_TraceIDPerInvocation(t *testing.T) {
	e := newTestEnv(t)

	// property show lists properties then reviews.
	e.mustRun("property", "show", "1")
	first := e.takeTraces()
	if len(first) < 2 {
		t.Fatalf("got %d requests, want at least 2", len(first))
	}
	for _, id := range first {
		if id == "" || id != first[0] {
			t.Fatalf("one invocation should share a trace id, got %q", first)
		}
	}

	e.mustRun("property", "list")
	second := e.takeTraces()
	if len(second) == 0 || second[0] == "" {
		t.Fatalf("second invocation sent no trace id: %q", second)
	}
	if second[0] == first[0] {
		t.Errorf("invocations share trace id %q", first[0])
	}
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)

	r := e.mustRun("version")
	assertContains(t, r.stdout, "dev")

	r = e.mustRun("-o", "json", "version")
	assertContains(t, r.stdout, `"version"`)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not authenticated",
			err:  domain.ErrNotAuthenticated.WithDetails("x"),
			want: "not logged in, run 'dayon-cli login' first",
		},
		{
			name: "login rejected",
			err:  domain.ErrAuthFailed.WithCause(&domain.HTTPError{Method: "POST", Path: "/login", Status: http.StatusUnauthorized}),
			want: "invalid email or password",
		},
		{
			name: "token rejected",
			err:  fmt.Errorf("list: %w", &domain.HTTPError{Method: "GET", Path: "/reservations", Status: http.StatusForbidden}),
			want: "session expired or not authorised, run 'dayon-cli login'",
		},
		{
			name: "server message",
			err:  &domain.HTTPError{Method: "DELETE", Path: "/reservations/2", Status: http.StatusConflict, Message: "Confirmed reservations cannot be cancelled."},
			want: "Confirmed reservations cannot be cancelled.",
		},
		{
			name: "bare status",
			err:  &domain.HTTPError{Method: "GET", Path: "/properties", Status: http.StatusBadGateway},
			want: "server returned 502 for GET /properties",
		},
		{
			name: "timeout",
			err:  &domain.NetworkError{Method: "GET", Path: "/profile", Err: context.DeadlineExceeded},
			want: "request to /profile timed out",
		},
		{
			name: "unreachable",
			err:  &domain.NetworkError{Method: "GET", Path: "/profile", Err: errors.New("connection refused")},
			want: "cannot reach server: connection refused",
		},
		{
			name: "storage",
			err:  &domain.StorageError{Op: "save", Backend: "file", Err: errors.New("disk full")},
			want: "token store save (file): disk full",
		},
		{
			name: "plain",
			err:  errors.New("something else"),
			want: "something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeError(tt.err); got != tt.want {
				t.Errorf("describeError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderError_Validation(t *testing.T) {
	ve := domain.NewValidationError("The given data was invalid.").
		Add("password", "The password field is required.").
		Add("email", "The email field is required.")

	var buf bytes.Buffer
	RenderError(&buf, fmt.Errorf("register: %w", ve))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	assertContains(t, lines[0], "The given data was invalid.")
	assertContains(t, lines[1], "email: The email field is required.")
	assertContains(t, lines[2], "password: The password field is required.")
}

func TestCommandPaths(t *testing.T) {
	paths := commandPaths(App().Commands, "")

	seen := make(map[string]bool)
	for _, p := range paths {
		seen[p] = true
	}
	for _, want := range []string{"login", "property list", "reservation cancel", "review add", "config init"} {
		if !seen[want] {
			t.Errorf("commandPaths missing %q", want)
		}
	}
	if seen["shell"] {
		t.Error("commandPaths should not offer shell inside the shell")
	}
}
