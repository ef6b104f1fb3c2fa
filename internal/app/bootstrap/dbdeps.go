// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/noorhub/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for noorhub.
//
// It is created in ConnectDB, passed to EnsureSchema, Startup, BuildHandler
// and Shutdown, and closed in Shutdown.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// MongoOffline is set when MongoDB could not be reached at startup and
	// demo mode let the app start anyway. The client keeps retrying.
	MongoOffline bool

	// Redis is optional; nil when redis_url is blank.
	Redis *redis.Client

	// FileStorage for admin image uploads.
	FileStorage storage.Store

	// Mailer for order confirmations, welcome and answer notices.
	Mailer *mailer.Mailer
}
