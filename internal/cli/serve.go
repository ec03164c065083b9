package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/memobloom/memobloom/internal/auth"
	"github.com/memobloom/memobloom/internal/config"
	"github.com/memobloom/memobloom/internal/media"
	"github.com/memobloom/memobloom/internal/observability"
	"github.com/memobloom/memobloom/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	sb, err := supabaseClient(cfg)
	if err != nil {
		return err
	}
	memories, err := openMemories(ctx, cfg, db, sb)
	if err != nil {
		return err
	}
	defer memories.Close()

	var provider auth.Provider = auth.NewLocalProvider(db)
	if cfg.Auth.Provider == "supabase" {
		provider = auth.NewSupabaseProvider(sb, db)
	}
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("no jwt_secret configured; tokens will not survive a restart")
	}
	issuer, err := auth.NewIssuer(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	opts := media.Options{
		Dir:           cfg.Media.Dir,
		PublicBaseURL: cfg.BaseURL(),
		MaxBytes:      cfg.Media.MaxBytes,
	}
	if sb != nil {
		opts.Signer = media.NewStorageSigner(sb, cfg.Media.SignedURLTTL)
	}
	lib, err := media.New(opts)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	srv := server.New(server.Deps{
		DB:             db,
		Memories:       memories,
		Auth:           auth.NewService(provider, issuer, db, logger),
		Media:          lib,
		Metrics:        metrics,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, VersionString())

	return listen(logger, cfg, srv)
}

func listen(logger *zap.Logger, cfg config.Config, handler http.Handler) error {
	addr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("memobloom serving",
			zap.String("addr", addr),
			zap.String("db", cfg.Database.Path),
			zap.String("driver", cfg.Database.Driver),
			zap.String("auth", cfg.Auth.Provider),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-done:
	}
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
