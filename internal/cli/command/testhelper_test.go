package command

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dayon-app/dayon-go/internal/mockapi"
)

// testEnv is a mock backend plus a config file pointing the CLI at it. The
// token is kept in a file store under the test's temp dir so a login
// survives between invocations.
type testEnv struct {
	t       *testing.T
	server  *mockapi.Server
	ts      *httptest.Server
	dir     string
	cfgPath string

	mu     sync.Mutex
	traces []string
}

// result is the outcome of one CLI invocation.
type result struct {
	code   int
	stdout string
	stderr string
}

func (r result) String() string {
	return fmt.Sprintf("exit %d\nstdout:\n%s\nstderr:\n%s", r.code, r.stdout, r.stderr)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := mockapi.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.RateLimit = 0
	srv, err := mockapi.New(cfg)
	if err != nil {
		t.Fatalf("mockapi.New() error = %v", err)
	}
	dir := t.TempDir()
	e := &testEnv{
		t:       t,
		server:  srv,
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.yaml"),
	}
	e.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.traces = append(e.traces, r.Header.Get("X-Trace-ID"))
		e.mu.Unlock()
		srv.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(e.ts.Close)

	e.writeConfig("")
	return e
}

// takeTraces returns the X-Trace-ID of every request seen since the last
// call.
func (e *testEnv) takeTraces() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.traces
	e.traces = nil
	return out
}

// writeConfig writes a config for the mock backend with extra YAML lines
// appended at the top level.
func (e *testEnv) writeConfig(extra string) {
	e.t.Helper()
	content := fmt.Sprintf(`server:
  base_url: %s/api
  timeout: 5s
output: table
token_store:
  driver: file
  path: %s
session:
  restore_timeout: 5s
  logout_timeout: 2s
log:
  level: error
  format: text
%s`, e.ts.URL, filepath.Join(e.dir, "token"), extra)
	if err := os.WriteFile(e.cfgPath, []byte(content), 0600); err != nil {
		e.t.Fatal(err)
	}
}

// run invokes the CLI with the test config. stdin feeds App.Reader.
func (e *testEnv) run(stdin string, args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer

	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)

	argv := append([]string{"dayon-cli", "--config", e.cfgPath}, args...)
	code := Run(context.Background(), app, argv)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// mustRun fails the test unless the invocation exits 0.
func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run("", args...)
	if r.code != 0 {
		e.t.Fatalf("dayon-cli %s failed:\n%s", strings.Join(args, " "), r)
	}
	return r
}

// login signs the demo user in.
func (e *testEnv) login() {
	e.t.Helper()
	e.mustRun("login", "-e", mockapi.DemoEmail, "-p", mockapi.DemoPassword)
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output does not contain %q:\n%s", want, got)
	}
}

func assertNotContains(t *testing.T, got, unwanted string) {
	t.Helper()
	if strings.Contains(got, unwanted) {
		t.Errorf("output unexpectedly contains %q:\n%s", unwanted, got)
	}
}
