package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/datasentry/auth"
	"github.com/jonwraymond/datasentry/health"
	"github.com/jonwraymond/datasentry/internal/config"
	"github.com/jonwraymond/datasentry/observe"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newDaemonCommand(opts *globalOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run checks periodically and serve status over HTTP",
		Long: `daemon sweeps every configured check on DATASENTRY_INTERVAL and serves
/healthz, /readyz, /health, /checks, /summary, /export and /metrics on
DATASENTRY_LISTEN. SIGHUP reloads the check configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			// A broken document leaves the registry empty; status is still
			// served and SIGHUP retries.
			_ = a.reload(ctx)

			return runDaemon(ctx, a, runNow)
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "sweep once immediately instead of waiting for the first tick")
	return cmd
}

func runDaemon(ctx context.Context, a *app, runNow bool) error {
	log := a.logger.With(observe.Field{Key: "component", Value: "daemon"})

	var srv *http.Server
	serveErr := make(chan error, 1)
	if a.cfg.Listen != "" {
		ln, err := net.Listen("tcp", a.cfg.Listen)
		if err != nil {
			return err
		}
		mux, err := statusMux(ctx, a)
		if err != nil {
			_ = ln.Close()
			return err
		}
		srv = &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
		go func() { serveErr <- srv.Serve(ln) }()
		log.Info(ctx, "status server listening", observe.Field{Key: "addr", Value: ln.Addr().String()})
	}

	if err := a.sched.EnableDaemon(a.cfg.Interval); err != nil {
		return err
	}
	log.Info(ctx, a.sched.DaemonStatus())

	initial := make(chan struct{})
	if runNow {
		go func() {
			defer close(initial)
			if _, err := a.sched.RunAll(ctx); err != nil {
				log.Warn(ctx, "initial sweep stopped", observe.Field{Key: "error", Value: err})
			}
		}()
	} else {
		close(initial)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "shutting down")
			break loop
		case <-hup:
			if err := a.reload(ctx); err == nil {
				log.Info(ctx, "configuration reloaded")
			}
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				runErr = err
			}
			break loop
		}
	}

	a.sched.DisableDaemon()
	<-initial
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// statusMux builds the status server routes.
func statusMux(ctx context.Context, a *app) (*http.ServeMux, error) {
	auths, err := authenticators(ctx, a)
	if err != nil {
		return nil, err
	}

	agg := health.NewAggregator(0)
	agg.Register(health.RegistryChecker(a.registry))
	agg.Register(health.DaemonChecker(a.sched))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, health.Endpoints{
		Aggregator: agg,
		Registry:   a.registry,
		Metrics:    a.obs.MetricsHandler(),
		Auth:       auths,
	})
	return mux, nil
}

// authenticators resolves the configured API keys and token secret.
func authenticators(ctx context.Context, a *app) ([]auth.Authenticator, error) {
	var auths []auth.Authenticator

	if len(a.cfg.APIKeys) > 0 {
		keys := make([]string, len(a.cfg.APIKeys))
		for i, ref := range a.cfg.APIKeys {
			k, err := a.secrets.ResolveValue(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", config.EnvAPIKeys, err)
			}
			keys[i] = k
		}
		auths = append(auths, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, keys...))
	}

	if a.cfg.JWTSecret != "" {
		s, err := a.secrets.ResolveValue(ctx, a.cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", config.EnvJWTSecret, err)
		}
		auths = append(auths, auth.NewJWTAuthenticator(auth.JWTConfig{Secret: []byte(s), Issuer: config.ServiceName}))
	}
	return auths, nil
}
