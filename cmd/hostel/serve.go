package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/hostel/internal/api"
	"github.com/mmynk/hostel/internal/auth"
	"github.com/mmynk/hostel/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Args:  cobra.NoArgs,
	}
	addr := cmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if *addr != "" {
			cfg.HTTPAddr = *addr
		}
		if err := cfg.Validate(); err != nil {
			slog.Error("Invalid configuration", "error", err)
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		handler := api.NewRouter(api.Deps{
			Store:         store,
			JWT:           auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
			Authenticator: auth.NewPasswordAuthenticator(store),
			Paginator:     api.Paginator{PageSize: cfg.PageSize, MaxPageSize: cfg.MaxPageSize},
			CORSOrigins:   cfg.CORSOrigins,
			Metrics:       middleware.NewMetrics(),
		})

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			slog.Info("Server starting", "address", cfg.HTTPAddr, "api", api.Root)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server failed", "error", err)
				return err
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
	return cmd
}
