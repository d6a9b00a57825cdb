// Package apiserver runs the versioning HTTP API server.
package apiserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/opendeploy/versioning/internal/artifactory"
	"github.com/opendeploy/versioning/internal/config"
	"github.com/opendeploy/versioning/internal/controllers/registry"
	"github.com/opendeploy/versioning/internal/db"
	"github.com/opendeploy/versioning/internal/log"
	"github.com/opendeploy/versioning/internal/repo/sql"
)

const readHeaderTimeout = 10 * time.Second

func Cmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "apiserver",
		Short: "Run the versioning API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return oops.In("apiserver").Wrapf(err, "loading config")
			}

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "directory holding config.yaml")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log.InitAsDefault(cfg.Logging.Level, cfg.Logging.Format)

	log.Info(ctx, "Starting the application", slog.String("address", cfg.HTTP.Address))

	dbCon, err := db.StartDBConnection(ctx, cfg.Database)
	if err != nil {
		return oops.In("apiserver").Wrapf(err, "starting db connection")
	}

	controller := registry.NewAPIController(
		sql.NewRepository(dbCon),
		cfg,
		artifactory.NewClient(cfg.Artifactory.RequestTimeout),
	)

	router := chi.NewRouter()
	router.Mount("/", controller.Router())
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		return oops.In("apiserver").Wrapf(err, "serving http")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return oops.In("apiserver").Wrapf(err, "shutting down server")
	}

	log.Info(ctx, "Server stopped")

	return nil
}
