// Package database contains the logic for establishing connections to
// MongoDB.
//
// It builds the connection URI from config, connects and pings the
// deployment with a timeout so startup fails fast, and hands out collection
// handles for the repository layer.
package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tunelab/songbook/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Database wraps the mongo client and the application database handle.
type Database struct {
	Client *mongo.Client
	db     *mongo.Database
	log    *zerolog.Logger
}

// New connects to MongoDB and verifies connectivity.
//
// The URI from config wins when set; otherwise mongodb://host:port is used.
// Connect itself is lazy in the driver, so the ping is what actually
// confirms the deployment is reachable.
func New(cfg *config.Config, logger *zerolog.Logger) (*Database, error) {
	uri := cfg.Database.URI
	if uri == "" {
		hostPort := net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))
		uri = fmt.Sprintf("mongodb://%s", hostPort)
	}

	connectTimeout := time.Duration(cfg.Database.ConnectTimeout) * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("database", cfg.Database.Name).Msg("connected to the database")

	return &Database{
		Client: client,
		db:     client.Database(cfg.Database.Name),
		log:    logger,
	}, nil
}

// Collection returns a handle for the named collection.
func (d *Database) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Ping verifies the deployment is still reachable. Used by the health check.
func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (d *Database) Close() error {
	d.log.Info().Msg("closing database connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Client.Disconnect(ctx)
}
