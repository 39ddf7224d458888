package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/infra/buildinfo"
	"github.com/dayon-app/dayon-go/internal/infra/shutdown"
	"github.com/dayon-app/dayon-go/internal/mockapi"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	def := mockapi.DefaultConfig()
	return &cli.App{
		Name:    "dayon-mockapi",
		Usage:   "In-memory Dayon marketplace API for development",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   def.Addr,
				Usage:   "Listen address",
				EnvVars: []string{"DAYON_MOCK_ADDR"},
			},
			&cli.StringFlag{
				Name:    "prefix",
				Value:   def.Prefix,
				Usage:   "Path prefix of the API routes",
				EnvVars: []string{"DAYON_MOCK_PREFIX"},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Value:   def.RateLimit,
				Usage:   "Requests per second per client IP (0 disables)",
				EnvVars: []string{"DAYON_MOCK_RATE_LIMIT"},
			},
			&cli.IntFlag{
				Name:    "burst",
				Value:   def.Burst,
				Usage:   "Rate limiter burst size",
				EnvVars: []string{"DAYON_MOCK_BURST"},
			},
			&cli.StringSliceFlag{
				Name:    "cors-origin",
				Usage:   "Allowed CORS origin (repeatable, default all)",
				EnvVars: []string{"DAYON_MOCK_CORS_ORIGINS"},
			},
			&cli.BoolFlag{
				Name:  "no-seed",
				Usage: "Start without the demo account and listings",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"DAYON_MOCK_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format (json, text)",
				EnvVars: []string{"DAYON_MOCK_LOG_FORMAT"},
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Value: 10 * time.Second,
				Usage: "Grace period for in-flight requests on shutdown",
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	log, err := logger.New(logger.Config{
		Level:  c.String("log-level"),
		Format: c.String("log-format"),
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	defer logger.Sync()

	srv, err := mockapi.New(mockapi.Config{
		Addr:           c.String("addr"),
		Prefix:         c.String("prefix"),
		RateLimit:      c.Float64("rate-limit"),
		Burst:          c.Int("burst"),
		AllowedOrigins: c.StringSlice("cors-origin"),
		NoSeed:         c.Bool("no-seed"),
		Logger:         log,
	})
	if err != nil {
		return err
	}

	sh := shutdown.NewHandler(c.Duration("shutdown-timeout"), log)
	sh.OnShutdown("http", func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if !c.Bool("no-seed") {
		log.Info("demo account ready", "email", mockapi.DemoEmail)
	}

	ctx, cancel := context.WithCancelCause(c.Context)
	defer cancel(nil)
	go func() {
		if err, ok := <-errCh; ok {
			cancel(err)
		}
	}()

	if err := sh.WaitContext(ctx); err != nil {
		return err
	}
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("server stopped")
	return nil
}
