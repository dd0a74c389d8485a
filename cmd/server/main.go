package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/tasklists/internal/config"
	"github.com/Skotchmaster/tasklists/internal/db"
	"github.com/Skotchmaster/tasklists/internal/events"
	"github.com/Skotchmaster/tasklists/internal/httpserver"
	"github.com/Skotchmaster/tasklists/internal/imagestore"
	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/mailer"
	authmw "github.com/Skotchmaster/tasklists/internal/middleware/auth"
	"github.com/Skotchmaster/tasklists/internal/repo"
	"github.com/Skotchmaster/tasklists/internal/search"
	"github.com/Skotchmaster/tasklists/internal/service"
	"github.com/Skotchmaster/tasklists/internal/tokens"
)

func main() {
	config.LoadDotenv(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}

	images, err := imagestore.NewS3Store(initCtx, cfg.S3)
	if err != nil {
		cancel()
		log.Fatalf("image store init error: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers)
	} else {
		logger.Info("events_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index service.Indexer
	if cfg.Search.Enabled() {
		esClient, err := search.NewClient(cfg.Search)
		if err != nil {
			cancel()
			log.Fatalf("elasticsearch init error: %v", err)
		}
		listIndex := search.NewListIndex(esClient, cfg.Search.Index)
		if err := listIndex.EnsureIndex(initCtx); err != nil {
			logger.Warn("search_index_unavailable", "error", err)
		}
		index = listIndex
	} else {
		logger.Info("search_disabled", "reason", "ES_URL is empty")
	}
	cancel()

	mail := mailer.NewDispatcher(mailer.NewSMTPSender(cfg.SMTP), logger, cfg.MailWorkers, cfg.MailQueueSize)

	r := repo.New(gdb)
	tok := tokens.NewService(cfg.JWTSecret)
	authSvc := &service.AuthService{
		Repo:   r,
		Tokens: tok,
		Mailer: mail,
		Events: publisher,
	}

	e := httpserver.New(&httpserver.Deps{
		Logger:        logger,
		Health:        &httpserver.HealthHTTP{Ping: func(ctx context.Context) error { return db.Ping(ctx, gdb) }},
		AuthHandler:   &httpserver.AuthHTTP{Svc: authSvc},
		UserHandler:   &httpserver.UserHTTP{Svc: &service.UserService{Repo: r, Images: images}},
		ListHandler:   &httpserver.ListHTTP{Svc: &service.ListService{Repo: r, Events: publisher, Index: index}},
		Auth:          authmw.NewBearerAuth(tok, authSvc, service.ErrNotFound),
		AuthRateLimit: cfg.AuthRateLimit,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown_started")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	if err := mail.Close(shutdownCtx); err != nil {
		logger.Error("mail_drain_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("events_close_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	logger.Info("shutdown_complete")
}
