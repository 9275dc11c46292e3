// Package main initializes and starts the GophChat development backend,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/config"
	"github.com/atinyakov/GophChat/internal/db"
	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/atinyakov/GophChat/internal/responder"
	"github.com/atinyakov/GophChat/internal/server/handler/http"
	"github.com/atinyakov/GophChat/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file and environment configuration.
	options, err := config.ParseServer(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	lg := logger.New()
	if err := lg.Init(options.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = lg.Log.Sync() }()
	zapLogger := lg.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer func() { _ = postgresDB.Close() }()

	// Purge soft-deleted sessions.
	db.StartSoftDeleteCleaner(ctx, postgresDB,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	chatRepo := repository.NewPostgresChatRepository(postgresDB)
	knowledgeRepo := repository.NewPostgresKnowledgeRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo)
	chatService := service.NewChatService(chatRepo, knowledgeRepo,
		responder.NewOllama(options.OllamaURL, options.OllamaModel), zapLogger)
	knowledgeService := service.NewKnowledgeService(knowledgeRepo)

	if options.SeedAdmin != "" {
		if err := seedAdmin(ctx, authService, options.SeedAdmin, zapLogger); err != nil {
			zapLogger.Fatal("failed to seed admin", zap.Error(err))
		}
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService},
		&http.ChatHandler{ChatService: chatService, Log: zapLogger},
		&http.KnowledgeHandler{KnowledgeService: knowledgeService, AuthService: authService, Log: zapLogger},
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSCert != "" {
		// Load server TLS certificate and key.
		cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if err != nil {
			zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
		err = server.ListenAndServeTLS("", "")
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("failed to start HTTPS server", zap.Error(err))
		}
		return
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

// seedAdmin creates the admin account given as "user:password" unless the
// username is taken.
func seedAdmin(ctx context.Context, auth *service.AuthService, value string, lg *zap.Logger) error {
	username, password, ok := strings.Cut(value, ":")
	if !ok || username == "" || password == "" {
		return errors.New("seed-admin must be user:password")
	}
	created, err := auth.EnsureUser(ctx, username, password, models.RoleAdmin)
	if err != nil {
		return err
	}
	if created {
		lg.Info("admin account created", zap.String("username", username))
	}
	return nil
}
