package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/logging"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/store"
)

func newPingCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the store connection",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			st, err := openStore(ctx, a.cfg, logging.NewLogger("ping"))
			if err != nil {
				return err
			}
			defer st.Close(context.WithoutCancel(ctx))

			if err := st.Ping(ctx); err != nil {
				return fmt.Errorf("ping %s: %w", store.Redact(a.cfg.StoreURI), err)
			}
			n, err := st.Count(ctx)
			if err != nil {
				return fmt.Errorf("count records: %w", err)
			}

			fmt.Fprintf(c.OutOrStdout(), "Connected to %s (%s, %d records)\n",
				store.Redact(a.cfg.StoreURI), store.Scheme(a.cfg.StoreURI), n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Connection timeout")
	return cmd
}
