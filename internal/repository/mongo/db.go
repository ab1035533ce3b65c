package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB and verifies it with a ping.
// The returned client is shared by every repository; close it with DisconnectDB.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	// Set context with timeout for the connection attempt
	connectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel() // Ensure cancellation happens even if connection errors out

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	// Ping the primary node to verify the connection.
	// The driver connects lazily, so an unreachable server only shows up here.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second) // Shorter timeout for ping
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		// If ping fails, disconnect the client so its background monitors stop
		_ = DisconnectDB(client)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	// Connection successful
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}
