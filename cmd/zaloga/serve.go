package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/db"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the item API over HTTP",
	Long: `Serve the local item store over a JSON HTTP API.

Item endpoints work offline against the local database. The cloud push
endpoint needs a Firestore project and a bearer session token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx := cmd.Context()

		// Open and migrate up front so schema errors surface before listening.
		if _, err := a.store.DB(ctx); err != nil {
			return err
		}
		slog.Info("database ready", "path", a.store.Path(), "schema", db.SchemaVersion)
		if a.mirror == nil {
			slog.Warn("no firestore project configured, cloud push disabled")
		}
		if a.cfg.Auth.Secret == "" {
			slog.Warn("no auth secret configured, every push will be rejected")
		}

		server := &http.Server{
			Addr:              a.cfg.Addr,
			Handler:           api.LoggingMiddleware(api.NewRouter(a.store, a.mirror, a.cfg.Auth.Secret)),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-sigCtx.Done()
			slog.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("server forced to shutdown", "error", err)
			}
		}()

		slog.Info("server started", "addr", a.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		slog.Info("server stopped, closing database")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "listen address (default: 127.0.0.1:8080)")
}
