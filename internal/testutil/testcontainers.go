//go:build integration

// Package testutil starts the MongoDB and Redis containers used by integration tests.
package testutil

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const (
	mongoImage = "mongo:7.0"
	redisImage = "redis:7-alpine"
)

// Container is a started testcontainer and the address tests connect to.
type Container struct {
	Container testcontainers.Container
	// URI is a mongodb:// connection string for MongoDB and host:port for Redis.
	URI string
}

// MongoDBContainer wraps a MongoDB testcontainer.
type MongoDBContainer = Container

// RedisContainer wraps a Redis testcontainer.
type RedisContainer = Container

// SetupMongoDB starts a MongoDB container. Packages with many tests should share one
// through SetupTestMainWithMongoDB instead.
func SetupMongoDB(ctx context.Context) (*MongoDBContainer, error) {
	c, err := mongodb.Run(ctx, mongoImage)
	if err != nil {
		return nil, fmt.Errorf("start MongoDB container: %w", err)
	}

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("MongoDB connection string: %w", err)
	}
	return &Container{Container: c, URI: uri}, nil
}

// SetupRedis starts a Redis container; URI is the host:port to dial.
func SetupRedis(ctx context.Context) (*RedisContainer, error) {
	c, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		return nil, fmt.Errorf("start Redis container: %w", err)
	}

	addr, err := c.Endpoint(ctx, "")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("Redis endpoint: %w", err)
	}
	return &Container{Container: c, URI: addr}, nil
}

// Cleanup terminates the container.
func (c *Container) Cleanup(ctx context.Context) error {
	if c == nil || c.Container == nil {
		return nil
	}
	if err := c.Container.Terminate(ctx); err != nil {
		return fmt.Errorf("terminate container: %w", err)
	}
	return nil
}
