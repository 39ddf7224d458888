package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/cli/config"
	"github.com/dayon-app/dayon-go/internal/cli/output"
	"github.com/dayon-app/dayon-go/internal/client/api"
	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/client/session"
	"github.com/dayon-app/dayon-go/internal/client/tokenstore"
	"github.com/dayon-app/dayon-go/internal/core/domain"
	"github.com/dayon-app/dayon-go/internal/infra/buildinfo"
	"github.com/dayon-app/dayon-go/internal/infra/tlsroots"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
	"github.com/dayon-app/dayon-go/internal/telemetry/metric"
)

const envKey = "env"

// Env is the state shared by every command of one invocation, or of one
// shell session. The token store, gateway and session manager are opened on
// first use so that commands such as version and config never touch them.
type Env struct {
	Config     *config.CLIConfig
	ConfigPath string
	Printer    *output.Printer
	Log        logger.Logger
	Metrics    *metric.Registry

	basePrinter *output.Printer

	stderr      io.Writer
	metricsFile string
	logFile     *os.File

	once    sync.Once
	openErr error
	closer  io.Closer
	gw      *gateway.Gateway
	session *session.Manager
	api     *api.Client

	// inShell marks an Env owned by a running shell; nested invocations
	// must not close it.
	inShell bool
}

// newEnv loads the configuration and builds the printer, logger and metrics
// registry from the global flags.
func newEnv(c *cli.Context) (*Env, error) {
	path := c.String("config")
	cfg, err := config.Load(path, flagOverrides(c))
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	env := &Env{
		Config:      cfg,
		ConfigPath:  path,
		Printer:     output.NewPrinter(c.App.Writer, c.App.ErrWriter, format, c.Bool("wide")),
		Metrics:     metric.NewRegistry(),
		stderr:      c.App.ErrWriter,
		metricsFile: c.String("metrics-file"),
	}
	env.basePrinter = env.Printer

	logOut := c.App.ErrWriter
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		env.logFile = f
		logOut = f
	}
	env.Log, err = logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOut,
	})
	if err != nil {
		env.closeLogFile()
		return nil, err
	}
	logger.SetDefault(env.Log)
	return env, nil
}

// flagOverrides maps the global flags that were set explicitly to config
// keys, so they win over the file and the environment.
func flagOverrides(c *cli.Context) map[string]any {
	o := make(map[string]any)
	if c.IsSet("server") {
		o["server.base_url"] = c.String("server")
	}
	if c.IsSet("output") {
		o["output"] = c.String("output")
	}
	if c.IsSet("token-store") {
		o["token_store.driver"] = c.String("token-store")
	}
	if c.Bool("ephemeral") {
		o["token_store.driver"] = tokenstore.DriverMemory
	}
	if c.IsSet("log-level") {
		o["log.level"] = c.String("log-level")
	}
	if c.Bool("verbose") {
		o["log.level"] = "debug"
	}
	return o
}

// applyLineFlags lets a shell line override the output format without
// touching the shared session.
func (e *Env) applyLineFlags(c *cli.Context) {
	if !c.IsSet("output") && !c.IsSet("wide") {
		return
	}
	format := e.basePrinter.Format
	if c.IsSet("output") {
		f, err := output.ParseFormat(c.String("output"))
		if err != nil {
			e.Printer.Warn("%v, keeping %s", err, format)
		} else {
			format = f
		}
	}
	e.Printer = output.NewPrinter(e.basePrinter.Out, e.basePrinter.Err, format, c.Bool("wide"))
}

func envFrom(c *cli.Context) *Env {
	if c == nil || c.App == nil {
		return nil
	}
	env, _ := c.App.Metadata[envKey].(*Env)
	return env
}

// mustEnv returns the Env installed by the root Before hook.
func mustEnv(c *cli.Context) (*Env, error) {
	env := envFrom(c)
	if env == nil {
		return nil, fmt.Errorf("command environment not initialised")
	}
	return env, nil
}

// Session opens the token store and restores the session on first call.
func (e *Env) Session(ctx context.Context) (*session.Manager, error) {
	e.once.Do(func() { e.openErr = e.open(ctx) })
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.session, nil
}

// API returns the marketplace client, restoring the session first.
func (e *Env) API(ctx context.Context) (*api.Client, error) {
	if _, err := e.Session(ctx); err != nil {
		return nil, err
	}
	return e.api, nil
}

func (e *Env) open(ctx context.Context) error {
	store, closer, err := tokenstore.Open(ctx, e.Config.TokenStore,
		tokenstore.WithLogger(e.Log),
		tokenstore.WithMetrics(e.Metrics),
	)
	if err != nil {
		return err
	}
	e.closer = closer

	tlsCfg, err := tlsroots.ClientConfig(e.Config.Server.CAFile, e.Config.Server.InsecureSkipVerify)
	if err != nil {
		return err
	}
	gwCfg := e.Config.GatewayConfig(buildinfo.UserAgent("dayon-cli"))
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg

	e.gw, err = gateway.New(gwCfg, store,
		gateway.WithHTTPClient(&http.Client{Timeout: gwCfg.Timeout, Transport: transport}),
		gateway.WithLogger(e.Log),
		gateway.WithMetrics(e.Metrics),
	)
	if err != nil {
		return err
	}
	e.api = api.New(e.gw)
	e.session = session.New(e.gw, store, e.Config.SessionManagerConfig(),
		session.WithLogger(e.Log),
		session.WithMetrics(e.Metrics),
	)

	rctx, cancel := context.WithTimeout(ctx, e.Config.RestoreTimeout())
	defer cancel()

	var spin *output.Spinner
	if output.IsTerminal(e.stderr) {
		spin = output.NewSpinner(e.stderr, "Restoring session...")
		spin.Start()
	}
	s := e.session.Restore(rctx)
	if spin != nil {
		spin.Stop()
	}
	e.Log.Debug("session ready", "state", s.State.String())
	return nil
}

// Authenticated restores the session and fails with
// domain.ErrNotAuthenticated when nobody is logged in.
func (e *Env) Authenticated(ctx context.Context) (*session.Manager, *domain.User, error) {
	m, err := e.Session(ctx)
	if err != nil {
		return nil, nil, err
	}
	s := m.Current()
	if !s.Authenticated() {
		return nil, nil, domain.ErrNotAuthenticated.WithDetails("run 'dayon-cli login' first")
	}
	return m, s.User, nil
}

// Close waits for pending logout notifications, writes the metrics
// textfile and releases the store and log file.
func (e *Env) Close() error {
	var firstErr error
	if e.session != nil {
		ctx, cancel := context.WithTimeout(context.Background(),
			e.Config.SessionManagerConfig().LogoutTimeout+time.Second)
		if err := e.session.Wait(ctx); err != nil {
			e.Log.Warn("logout notification still pending at exit", "error", err)
		}
		cancel()
	}
	if e.metricsFile != "" {
		if err := e.Metrics.WriteTextfile(e.metricsFile); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write metrics: %w", err)
		}
	}
	if e.closer != nil {
		if err := e.closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = logger.Sync()
	e.closeLogFile()
	return firstErr
}

func (e *Env) closeLogFile() {
	if e.logFile != nil {
		e.logFile.Close()
		e.logFile = nil
	}
}
