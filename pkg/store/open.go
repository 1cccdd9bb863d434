package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

// DefaultCollection is the collection (table, key prefix) records live in.
const DefaultCollection = "animeCollection"

// Options configures a store.
type Options struct {
	// Collection names the collection, table or key prefix.
	Collection string

	// Logger overrides the package logger.
	Logger *zerolog.Logger
}

func (o Options) withDefaults(backend string) Options {
	if o.Collection == "" {
		o.Collection = DefaultCollection
	}
	if o.Logger == nil {
		l := log.With().Str("component", "store").Str("backend", backend).Logger()
		o.Logger = &l
	}
	return o
}

// Scheme returns the lowercased scheme of a connection string.
func Scheme(uri string) string {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

// Open connects to the store named by uri. The returned store has been
// pinged once.
func Open(ctx context.Context, uri string, opts Options) (catalog.Store, error) {
	switch scheme := Scheme(uri); scheme {
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, uri, opts)
	case "redis", "rediss":
		return OpenRedis(ctx, uri, opts)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, uri, opts)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnsupportedStore, scheme)
	}
}

// Redact strips credentials from a connection string for logging.
func Redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.LastIndex(rest, "@")
	slash := strings.Index(rest, "/")
	if at < 0 || (slash >= 0 && at > slash) {
		return uri
	}
	return scheme + "://***@" + rest[at+1:]
}
