// Package mongodb appends tables to MongoDB, one collection per table.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

// Sink inserts each table row as a document into the collection named after
// the table slug.
type Sink struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewSink creates a Mongo sink over db.
func NewSink(db *mongo.Database, logger *slog.Logger) *Sink {
	return &Sink{db: db, logger: logger}
}

func (s *Sink) Name() string { return "mongo" }

// Connect opens a client, pings it and ensures the date indexes exist.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, db, nil
}

// EnsureIndexes indexes both destinations by date.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, t := range []domain.Table{domain.DetailedTable(nil), domain.SummaryTable(nil)} {
		_, err := db.Collection(t.Slug()).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "date", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create index on %s: %w", t.Slug(), err)
		}
	}
	return nil
}

func (s *Sink) Append(ctx context.Context, table domain.Table) error {
	if len(table.Rows) == 0 {
		return nil
	}
	docs := make([]any, len(table.Rows))
	for i := range table.Rows {
		docs[i] = document(table, i)
	}

	res, err := s.db.Collection(table.Slug()).InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table.Slug(), err)
	}
	s.logger.Debug("documents inserted", "collection", table.Slug(), "count", len(res.InsertedIDs))
	return nil
}

// document keeps the column order of the table.
func document(table domain.Table, i int) bson.D {
	doc := make(bson.D, 0, len(table.Columns))
	for j, c := range table.Columns {
		doc = append(doc, bson.E{Key: c.Name, Value: table.Rows[i][j]})
	}
	return doc
}
