package tui

import (
	"context"
	"fmt"
	"net/http"

	tea "charm.land/bubbletea/v2"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/browse"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/logging"
)

// Run opens the browser against backendURL and blocks until the user quits.
// Logging is silenced while the screen is owned by the program.
func Run(ctx context.Context, client *http.Client, backendURL string) error {
	fetch := func(ctx context.Context) ([]catalog.Record, error) {
		return browse.Fetch(ctx, client, backendURL)
	}

	restore := logging.Silence()
	defer restore()

	p := tea.NewProgram(New(ctx, fetch))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser TUI error: %w", err)
	}
	return nil
}
