package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tavukcu/ahmetlimedya/internal/auth"
	"github.com/tavukcu/ahmetlimedya/internal/config"
	"github.com/tavukcu/ahmetlimedya/internal/event"
	"github.com/tavukcu/ahmetlimedya/internal/httpapi"
	"github.com/tavukcu/ahmetlimedya/internal/news"
	"github.com/tavukcu/ahmetlimedya/internal/store/gateway"
)

func main() {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[ahmetlimedya] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	// Content backend, picked by configuration
	st, closeStore, err := gateway.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to open content backend: %v", err)
	}
	logger.Printf("content backend ready: %s", st.Kind())

	svc := news.NewService(st, logger)
	guard := auth.NewGuard(cfg.TokenSecret, cfg.TokenMaxAge)

	// Event publisher (RabbitMQ), optional
	var publisher event.Publisher
	if cfg.RabbitURI != "" {
		rabbit, err := event.NewRabbitPublisher(
			cfg.RabbitURI,
			cfg.RabbitExchange,
			cfg.RabbitRoutingKey,
			logger,
		)
		if err != nil {
			logger.Fatalf("failed to init rabbit publisher: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	api := httpapi.New(svc, guard, cfg.AdminPassword, cfg.PageSize, publisher, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}

	go func() {
		logger.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	logger.Println("service started")

	// Block until we receive a signal / ctx cancelled
	<-ctx.Done()
	logger.Println("shutdown signal received, shutting down...")

	// Unified shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	if err := closeStore(shutdownCtx); err != nil {
		logger.Printf("backend close error: %v", err)
	}

	logger.Println("shutdown complete")
}
