// Package httpserver runs an http.Server bound to a context and provides
// the health probe and access log middleware used by the service.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server failed", logger.Error(err))
//	}
//
// Cancelling the context triggers a graceful shutdown bounded by the
// shutdown timeout.
package httpserver
