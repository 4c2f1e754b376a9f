package main

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/shakwa/internal/audit"
	"github.com/gosuda/shakwa/internal/auth"
	"github.com/gosuda/shakwa/internal/blob"
	"github.com/gosuda/shakwa/internal/complaint"
	"github.com/gosuda/shakwa/internal/config"
	"github.com/gosuda/shakwa/internal/mailer"
	"github.com/gosuda/shakwa/internal/server"
	"github.com/gosuda/shakwa/internal/store/postgres"
	redisstore "github.com/gosuda/shakwa/internal/store/redis"
	"github.com/gosuda/shakwa/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// .env is optional; environment variables win.
	_ = godotenv.Load()

	// Initialize structured logging from environment.
	logLevel := os.Getenv("SHAKWA_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("SHAKWA_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Local disk storage for complaint attachments.
	blobs, err := blob.NewDiskStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		return err
	}

	// Outbound mail: SMTP when configured, log-only otherwise.
	var sender mailer.Sender
	if cfg.Mail.SMTPAddr != "" {
		sender = mailer.NewSMTPSender(cfg.Mail.SMTPAddr, cfg.Mail.From, cfg.Mail.Username, cfg.Mail.Password)
	} else {
		sender = mailer.LogSender{}
		log.Warn().Msg("SMTP not configured, mail delivery is log-only")
	}
	mail := mailer.New(sender, 256)
	defer mail.Close()

	// Action log recorder writes off the request path.
	recorder := audit.NewRecorder(store.ActionLogs(), 256)
	defer recorder.Close()

	// Create services.
	authSvc := auth.NewService(store.Users(), mail, recorder, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	complaintSvc := complaint.NewService(store, blobs, mail, pubsub, pubsub.Cache(), recorder, cfg.Complaints.TimelineCacheTTL)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Embedded portal frontend, served on all unmatched routes.
	webAssets, err := fs.Sub(web.Assets, "build")
	if err != nil {
		return fmt.Errorf("web assets: %w", err)
	}

	// Create HTTP server with all routes wired.
	srv := server.New(cfg, store, pubsub, authSvc, complaintSvc, webAssets)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
