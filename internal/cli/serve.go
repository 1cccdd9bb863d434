package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/server"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/logging"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: "Serve GET /fetch-anime. The first request against an empty store fetches every\n" +
			"page from upstream, which takes several minutes at the default request rate.",
		RunE: func(c *cobra.Command, _ []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return runServe(c.Context(), a)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (env PORT, default 3000)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := logging.NewLogger("serve")

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("Store close failed")
		}
	}()

	svc, err := newCatalogService(cfg, st)
	if err != nil {
		return err
	}
	defer svc.Close()

	httpLogger := logging.NewLogger("http")
	handler := server.NewHandler(server.Deps{
		Catalog:        svc,
		Store:          st,
		MetricsEnabled: cfg.MetricsEnabled,
		Logger:         &httpLogger,
	})

	logger.Info().
		Str("upstream", cfg.JikanBaseURL).
		Int("total_pages", cfg.TotalPages).
		Float64("requests_per_second", cfg.RequestsPerSecond).
		Dur("cooldown", cfg.Cooldown).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Catalog service configured")

	return server.Run(ctx, cfg.Addr(), handler, httpLogger)
}
