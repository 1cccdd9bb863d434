package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/logging"
)

func newWarmCmd(a *app) *cobra.Command {
	var totalPages int

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Populate an empty store from upstream and exit",
		Long: "Run the same decision as GET /fetch-anime once: a populated store is left\n" +
			"untouched, an empty one is filled from upstream.",
		RunE: func(c *cobra.Command, _ []string) error {
			if totalPages > 0 {
				a.cfg.TotalPages = totalPages
			}
			return runWarm(c.Context(), a, c)
		},
	}

	cmd.Flags().IntVar(&totalPages, "total-pages", 0, "Last page to fetch (env FETCH_TOTAL_PAGES)")
	return cmd
}

func runWarm(ctx context.Context, a *app, c *cobra.Command) error {
	logger := logging.NewLogger("warm")

	st, err := openStore(ctx, a.cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close(context.WithoutCancel(ctx))

	svc, err := newCatalogService(a.cfg, st)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("warm catalog: %w", err)
	}

	status := svc.Status()
	fmt.Fprintf(c.OutOrStdout(), "source=%s records=%d throttles=%d\n", res.Source, len(res.Records), status.Throttles)
	return nil
}
