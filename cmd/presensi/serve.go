package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	adapthttp "presensi/internal/adapter/http"
	"presensi/internal/adapter/photostore"
	"presensi/internal/app"
	"presensi/internal/config"
	"presensi/internal/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

// setup loads configuration and installs the process logger.
func setup() (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, closer, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(log)
	return cfg, log, closer, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, closer, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	photos, err := photostore.NewOS(photostore.Config{
		Dir:               cfg.Upload.Dir,
		MaxBytes:          cfg.Upload.MaxBytes,
		AllowedMIMEPrefix: cfg.Upload.AllowedMIMEPrefix,
		PublicBaseURL:     cfg.Server.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	loc := cfg.Location()
	deps := adapthttp.Deps{
		Attendance:     app.NewAttendanceService(st.attendance, photos, log),
		Reports:        app.NewReportService(st.attendance, photos, loc),
		Sensors:        app.NewSensorService(st.sensors),
		Auth:           app.NewAuthService(st.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Photos:         photos,
		Ping:           st.ping,
		WebDir:         cfg.Server.WebDir,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Location:       loc,
		Logger:         log,
	}
	if sso := cfg.Auth.SSO; sso.Enabled() {
		discoverCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		deps.SSO, err = adapthttp.NewSSO(discoverCtx, sso.Issuer, sso.ClientID, sso.ClientSecret, sso.RedirectURL)
		cancel()
		if err != nil {
			return err
		}
		log.Info("sso enabled", "issuer", sso.Issuer)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           adapthttp.New(deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr, "database", cfg.Database.Driver, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
