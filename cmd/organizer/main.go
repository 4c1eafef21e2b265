package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"organizer/internal/amqp"
	"organizer/internal/auth"
	"organizer/internal/cli"
	"organizer/internal/config"
	apphttp "organizer/internal/http"
	"organizer/internal/ledger"
	"organizer/internal/log"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
	}
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateServer)
	logger.Info("Starting organizer", log.FieldOperation, log.OpStartup, "backend", cfg.DataBackend, "port", cfg.Port)

	result := cli.OpenBackend(context.Background(), cfg, logger)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	}()

	opts := []ledger.Option{
		ledger.WithRounding(cfg.Rounding()),
		ledger.WithLogger(logger),
	}
	var events *ledger.AsyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		events = ledger.NewAsyncPublisher(client, 0, logger)
		opts = append(opts, ledger.WithEvents(events))
		logger.Info("Ledger events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
	}

	authn, err := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, logger)
	if err != nil {
		logger.Error("Failed to initialize authenticator", log.FieldError, err)
		os.Exit(1)
	}

	sessions := auth.ContextResolver{}
	svc := ledger.NewService(result.Backend, sessions, opts...)
	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:           ":" + cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPM:   cfg.RateLimitRPM,
	}, apphttp.NewHandler(svc, sessions, result.Backend), authn.Middleware(), logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if events != nil {
			if err := events.Close(ctx); err != nil {
				logger.Error("Pending ledger events not delivered", log.FieldError, err)
			}
		}
	})

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
