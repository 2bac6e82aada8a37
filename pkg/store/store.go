package store

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dotatlas/dotatlas/pkg/errors"
)

// DefaultDatabase is the database name used when Options.Database is empty.
const DefaultDatabase = "dotatlas"

// DefaultTimeout bounds the initial connect and ping.
const DefaultTimeout = 30 * time.Second

// Options configures a Store connection.
type Options struct {
	// URI is the MongoDB connection string. Required.
	URI string

	// Database is the database name. Defaults to DefaultDatabase.
	Database string

	// Timeout bounds the initial connect and ping. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger receives upload progress. Defaults to a silent logger.
	Logger *log.Logger
}

func (o *Options) validate() error {
	if o.URI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "mongodb uri is required")
	}
	if o.Database == "" {
		o.Database = DefaultDatabase
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Store is a connected MongoDB publisher.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *log.Logger
}

// Connect opens a client, verifies the server is reachable, and returns a
// Store bound to the configured database.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, mongooptions(opts))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	return &Store{
		client: client,
		db:     client.Database(opts.Database),
		logger: opts.Logger,
	}, nil
}

func mongooptions(opts Options) *options.ClientOptions {
	return options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.Timeout)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "disconnect from mongodb")
	}
	return nil
}

// Collection names. Heavy geometry layers are per-state, metadata is shared.
const (
	plansCollection       = "plans"
	assignmentsCollection = "assignments"
)

func precinctCollection(state string) string {
	return strings.ToLower(state) + "_precincts"
}

func dotCollection(state string) string {
	return strings.ToLower(state) + "_dots"
}

// EnsureIndexes creates the indexes the frontend queries depend on:
// 2dsphere on the state's geometry collections, and a unique compound
// key on assignments so plan re-runs upsert instead of duplicating.
// Index creation is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context, state string) error {
	specs := []struct {
		coll  string
		model mongo.IndexModel
	}{
		{precinctCollection(state), mongo.IndexModel{
			Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
		}},
		{dotCollection(state), mongo.IndexModel{
			Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
		}},
		{dotCollection(state), mongo.IndexModel{
			Keys: bson.D{{Key: "group", Value: 1}},
		}},
		{assignmentsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "plan_id", Value: 1}, {Key: "precinct_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{plansCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "plan_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{plansCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "state", Value: 1}},
		}},
		{plansCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "chamber", Value: 1}},
		}},
	}

	for _, spec := range specs {
		if _, err := s.db.Collection(spec.coll).Indexes().CreateOne(ctx, spec.model); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "create index on %s", spec.coll)
		}
	}
	return nil
}
