package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

const (
	backendMongo = "mongodb"

	// defaultMongoDatabase is used when the URI names no database.
	defaultMongoDatabase = "test"
)

// mongoDoc is the stored shape. The upstream id is the document _id so the
// collection rejects duplicates.
type mongoDoc struct {
	ID       int64  `bson:"_id"`
	URL      string `bson:"url"`
	ImageURL string `bson:"large_image_url"`
	Title    string `bson:"title_english"`
}

func toMongoDoc(r catalog.Record) mongoDoc {
	return mongoDoc{ID: r.ID, URL: r.URL, ImageURL: r.ImageURL, Title: r.Title}
}

func (d mongoDoc) record() catalog.Record {
	return catalog.Record{ID: d.ID, URL: d.URL, ImageURL: d.ImageURL, Title: d.Title}
}

// Mongo stores records in one MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger zerolog.Logger
}

// OpenMongo connects using a mongodb:// or mongodb+srv:// URI. The database
// is taken from the URI path.
func OpenMongo(ctx context.Context, uri string, opts Options) (*Mongo, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongodb uri: %w", err)
	}
	database := cs.Database
	if database == "" {
		database = defaultMongoDatabase
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	s := NewMongo(client, database, opts)
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return s, nil
}

// NewMongo wraps a connected client.
func NewMongo(client *mongo.Client, database string, opts Options) *Mongo {
	if client == nil {
		panic("mongo client cannot be nil")
	}
	opts = opts.withDefaults(backendMongo)
	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(opts.Collection),
		logger: opts.Logger.With().Str("database", database).Logger(),
	}
}

// Count implements catalog.Store.
func (s *Mongo) Count(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { observe(backendMongo, "count", start, err) }()

	n, err = s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb count: %w", err)
	}
	return n, nil
}

// BulkInsert implements catalog.Store with an unordered InsertMany so one
// rejected document does not stop the rest.
func (s *Mongo) BulkInsert(ctx context.Context, records []catalog.Record) (stats catalog.InsertStats, err error) {
	start := time.Now()
	defer func() { observe(backendMongo, "bulk_insert", start, err) }()

	if len(records) == 0 {
		return stats, nil
	}

	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = toMongoDoc(rec)
	}

	_, err = s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if !errors.As(err, &bulkErr) || bulkErr.WriteConcernError != nil || len(bulkErr.WriteErrors) == 0 {
			return stats, fmt.Errorf("mongodb insert many: %w", err)
		}
		stats.Skipped = len(bulkErr.WriteErrors)
		s.logger.Debug().
			Int("write_errors", stats.Skipped).
			Bool("duplicate_key", mongo.IsDuplicateKeyError(err)).
			Msg("Documents rejected during bulk insert")
		err = nil
	}
	stats.Inserted = len(records) - stats.Skipped
	countInsert(backendMongo, stats)

	s.logger.Debug().
		Int("inserted", stats.Inserted).
		Int("skipped", stats.Skipped).
		Msg("Bulk insert complete")
	return stats, nil
}

// FindAll implements catalog.Store. Documents come back in natural order.
func (s *Mongo) FindAll(ctx context.Context) (records []catalog.Record, err error) {
	start := time.Now()
	defer func() { observe(backendMongo, "find_all", start, err) }()

	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}

	var docs []mongoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb cursor: %w", err)
	}

	records = make([]catalog.Record, len(docs))
	for i, d := range docs {
		records[i] = d.record()
	}
	return records, nil
}

// Ping implements catalog.Store.
func (s *Mongo) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close implements catalog.Store.
func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
