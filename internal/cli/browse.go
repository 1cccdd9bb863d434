package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog of a running backend in the terminal",
		RunE: func(c *cobra.Command, _ []string) error {
			if backend == "" {
				backend = a.cfg.BackendURL
			}
			return tui.Run(c.Context(), &http.Client{}, backend)
		},
	}

	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Backend base URL (env BACKEND_URL, default http://localhost:3000)")
	return cmd
}
