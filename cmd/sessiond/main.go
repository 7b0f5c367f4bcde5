// Command sessiond is a demo server for the session package. It wires the
// session middleware in front of a few routes that read and mutate the
// current session, backed by the store named in SESSION_STORE.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/config"
	"github.com/dmitrymomot/sessionguard/pkg/environment"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/requestid"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"sessiond"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("sessiond failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg  appConfig
		logCfg  logger.Config
		httpCfg httpserver.Config
		sessCfg session.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&logCfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&sessCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	env := environment.Parse(appCfg.Env)
	log := logger.NewFromConfig(logCfg,
		logger.WithEnvironment(env, appCfg.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	backend, err := openStore(ctx, log)
	if err != nil {
		return err
	}
	defer backend.close()

	manager, err := session.NewFromConfig(sessCfg,
		session.WithStore(backend.store),
		session.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	for _, job := range backend.background {
		go job(ctx)
	}

	log.InfoContext(ctx, "session store ready", logger.Store(backend.name))

	ips := clientip.New()
	if sessCfg.TrustProxy {
		ips = clientip.New(clientip.ProxyHeaders...)
	}

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, newRouter(manager, env, ips, log, backend.checks...))
}
