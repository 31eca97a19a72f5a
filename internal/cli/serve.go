package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/diabrisk/internal/adapters/http/api"
	"github.com/okian/diabrisk/internal/adapters/http/swagger"
	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trained pair over HTTP",
		Long: `Load and validate the artifact pair, then serve POST /predict, GET /model,
GET /healthz and the OpenAPI document until SIGINT or SIGTERM.`,
		Example: `  diabrisk serve --artifacts ./artifacts --addr :8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := g.cfg
			overrideString(cmd.Flags(), "addr", &cfg.Addr)
			overrideString(cmd.Flags(), "artifacts", &cfg.ArtifactDir)

			ctx := cmd.Context()
			svc, err := app.LoadInference(ctx, cfg.ArtifactDir, app.WithInferenceLogger(g.log))
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Addr, err)
			}
			return serve(ctx, ln, svc, g.log)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (config addr)")
	cmd.Flags().String("artifacts", "", "Artifact directory (config artifact_dir)")

	return cmd
}

// serve runs the HTTP server on ln until ctx is canceled, then shuts it down
// gracefully.
func serve(ctx context.Context, ln net.Listener, svc api.Predictor, log logger.Logger) error {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, api.WithLogger(log)).Register(mux)

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
