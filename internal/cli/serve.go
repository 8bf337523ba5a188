package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alphabot-ai/storyx/internal/api"
	"github.com/alphabot-ai/storyx/internal/config"
	"github.com/alphabot-ai/storyx/internal/events"
	"github.com/alphabot-ai/storyx/internal/imagegen"
	"github.com/alphabot-ai/storyx/internal/interaction"
	"github.com/alphabot-ai/storyx/internal/ipasset"
	"github.com/alphabot-ai/storyx/internal/pinning"
	"github.com/alphabot-ai/storyx/internal/ratelimit"
	"github.com/alphabot-ai/storyx/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 5 * time.Minute
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	srv, err := newServer(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting storyx", "addr", srv.http.Addr, "driver", a.cfg.DatabaseDriver)
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server forced to shutdown", "error", err)
	}

	a.logger.Info("server stopped")
	return nil
}

// server is the assembled process: the HTTP server plus everything that
// has to be released when it stops.
type server struct {
	http    *http.Server
	closers []io.Closer
	logger  *slog.Logger
}

func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server, error) {
	srv := &server{logger: logger}

	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, db)

	limiter := ratelimit.NewMemoryLimiter()
	limiter.StartCleanup(ctx, cleanupInterval)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, logger.With("component", "events"))
		if err != nil {
			srv.Close()
			return nil, err
		}
		publisher = nc
	}
	srv.closers = append(srv.closers, publisher)

	images := imagegen.NewStabilityClient(cfg.StabilityAPIURL, cfg.StabilityAPIKey, cfg.UpstreamTimeout)
	pinner := pinning.NewPinataClient(cfg.PinataAPIURL, cfg.PinataJWT, cfg.IPFSGateway, cfg.UpstreamTimeout)
	relay := ipasset.NewRelaySubmitter(cfg.IPRelayURL, cfg.IPRelayToken, cfg.UpstreamTimeout)
	srv.closers = append(srv.closers, images, pinner, relay)

	handler := api.NewHandler(api.Deps{
		Store:        db,
		Interactions: interaction.NewService(db, publisher, logger),
		IPAssets:     ipasset.NewService(pinner, relay, db, cfg.IPSPGNFTContract, logger),
		Images:       images,
		Pinner:       pinner,
		Limiter:      limiter,
		Config:       cfg,
		Logger:       logger,
	})

	srv.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

// Close releases collaborators in reverse order of creation.
func (s *server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("shutdown cleanup failed", "error", err)
		return err
	}
	return nil
}

// openStore connects to the configured database and brings its schema up
// to date.
func openStore(cfg *config.Config) (*store.SQLStore, error) {
	db, err := store.Connect(cfg.DatabaseDriver, dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return db, nil
}

func dsn(cfg *config.Config) string {
	if cfg.DatabaseDriver == store.DriverSQLite {
		return store.SQLiteDSN(cfg.DatabasePath)
	}
	return cfg.DatabaseURL
}
