package database

import (
	"context"
	"net/url"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connector establishes a client session for uri. The returned client must be
// ready for use; a client that cannot reach the server is an error.
type Connector func(ctx context.Context, uri string) (*mongo.Client, error)

// MongoConnector connects with the official driver and pings the primary,
// since mongo.Connect alone does not wait for server discovery.
func MongoConnector(monitor *event.CommandMonitor) Connector {
	return func(ctx context.Context, uri string) (*mongo.Client, error) {
		clientOpts := options.Client().ApplyURI(uri)
		if monitor != nil {
			clientOpts.SetMonitor(monitor)
		}

		client, err := mongo.Connect(ctx, clientOpts)
		if err != nil {
			return nil, err
		}

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}

		return client, nil
	}
}

// redactURI strips the password from a connection string for logging
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<invalid uri>"
	}
	if u.User == nil {
		return u.String()
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "redacted")
	}
	return u.String()
}
