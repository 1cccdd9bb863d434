package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/config"
	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/service"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/jikan"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/logging"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/pagination"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/store"
)

// openStore connects to the configured store. A missing STORE_URI fails
// before any connection attempt.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (catalog.Store, error) {
	if err := cfg.RequireStore(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("store", store.Redact(cfg.StoreURI)).
		Str("collection", cfg.Collection).
		Msg("Connecting to store")

	st, err := store.Open(ctx, cfg.StoreURI, cfg.Store())
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", store.Redact(cfg.StoreURI), err)
	}
	return st, nil
}

// newCatalogService wires upstream client, pager and store.
func newCatalogService(cfg *config.Config, st catalog.Store) (*service.Service, error) {
	client, err := jikan.New(cfg.Jikan())
	if err != nil {
		return nil, fmt.Errorf("create upstream client: %w", err)
	}

	pager := pagination.NewPager(client, cfg.Pager(), pagination.WithLogger(logging.NewLogger("pager")))
	return service.New(st, pager), nil
}
