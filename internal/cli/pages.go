package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/jikan"
)

func newPagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "Show how many listing pages upstream currently advertises",
		Long: "Fetch page 1 of the listing and print its pagination block. The fetcher walks\n" +
			"a fixed number of pages (FETCH_TOTAL_PAGES); use this to keep it current.",
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := jikan.New(a.cfg.Jikan())
			if err != nil {
				return err
			}

			info, err := client.FetchPageInfo(c.Context(), 1)
			if err != nil {
				return fmt.Errorf("fetch page 1: %w", err)
			}

			p := info.Pagination
			out := c.OutOrStdout()
			fmt.Fprintf(out, "last_visible_page=%d items_total=%d per_page=%d configured=%d\n",
				p.LastVisiblePage, p.Items.Total, p.Items.PerPage, a.cfg.TotalPages)
			if p.LastVisiblePage != a.cfg.TotalPages {
				fmt.Fprintf(out, "FETCH_TOTAL_PAGES differs from upstream; set it to %d to match\n", p.LastVisiblePage)
			}
			return nil
		},
	}
}
