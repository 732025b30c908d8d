package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/datasentry/check"
	"github.com/jonwraymond/datasentry/internal/config"
	"github.com/jonwraymond/datasentry/observe"
	"github.com/jonwraymond/datasentry/scheduler"
	"github.com/jonwraymond/datasentry/secret"
)

// app is the wired process: settings, telemetry, registry and scheduler.
type app struct {
	cfg      *config.Config
	obs      observe.Observer
	logger   observe.Logger
	registry *check.Registry
	sched    *scheduler.Scheduler
	secrets  *secret.Resolver

	gauges    metric.Registration
	logCloser io.Closer
}

// loadSettings reads the environment and applies flag overrides.
func loadSettings(opts *globalOptions) (*config.Config, error) {
	var envFiles []string
	if opts.EnvFile != "" {
		envFiles = []string{opts.EnvFile}
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if opts.ConfigPath != "" {
		cfg.ConfigPath = opts.ConfigPath
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires the process with an empty registry; callers load the check
// configuration with reload. extra scheduler options are appended after
// the defaults.
func newApp(ctx context.Context, opts *globalOptions, extra ...scheduler.Option) (*app, error) {
	cfg, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	w, closer, err := openLogWriter(cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	obsCfg := cfg.Observe(version)
	obsCfg.Logging.Writer = w
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		closeQuietly(closer)
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		closeQuietly(closer)
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a := &app{
		cfg:       cfg,
		obs:       obs,
		logger:    obs.Logger(),
		registry:  check.NewRegistry(),
		secrets:   secret.NewDefaultResolver(),
		logCloser: closer,
	}

	dispatcher := scheduler.NewDispatcher(nil,
		scheduler.WithSecrets(a.secrets),
		scheduler.WithCheckTimeout(cfg.CheckTimeout),
	)
	schedOpts := []scheduler.Option{
		scheduler.WithPause(cfg.Pause),
		scheduler.WithInterval(cfg.Interval),
		scheduler.WithLogger(a.logger),
		scheduler.WithMiddleware(mw),
	}
	a.sched = scheduler.New(a.registry, dispatcher, append(schedOpts, extra...)...)

	a.gauges, err = observe.RegisterSummaryGauges(obs.Meter(), a.summaryCounts)
	if err != nil {
		a.logger.Warn(ctx, "summary gauges unavailable", observe.Field{Key: "error", Value: err})
	}
	return a, nil
}

// reload loads the check configuration and logs the outcome.
func (a *app) reload(ctx context.Context) error {
	report, err := a.registry.LoadFile(a.cfg.ConfigPath)
	if err != nil {
		a.logger.Error(ctx, "configuration load failed",
			observe.Field{Key: "path", Value: a.cfg.ConfigPath},
			observe.Field{Key: "error", Value: err},
		)
		return err
	}
	for _, w := range report.Warnings {
		a.logger.Warn(ctx, "check skipped",
			observe.Field{Key: "index", Value: w.Index},
			observe.Field{Key: "sentry_type", Value: w.Type},
			observe.Field{Key: "reason", Value: w.Reason},
		)
	}
	a.logger.Info(ctx, a.registry.ConfigStatus(),
		observe.Field{Key: "path", Value: a.cfg.ConfigPath},
		observe.Field{Key: "changed", Value: report.Changed},
	)
	return nil
}

func (a *app) summaryCounts() map[string]int64 {
	s := a.registry.Summary()
	return map[string]int64{
		"successful": int64(s.Successful),
		"failed":     int64(s.Failed),
		"pending":    int64(s.Pending),
		"other":      int64(s.Other),
	}
}

// close stops the scheduler, flushes telemetry and closes the log file.
func (a *app) close() error {
	var errs []error
	if err := a.sched.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.gauges != nil {
		if err := a.gauges.Unregister(); err != nil {
			errs = append(errs, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.obs.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
