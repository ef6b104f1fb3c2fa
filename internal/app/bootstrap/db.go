// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/noorhub/internal/app/system/indexes"
	"github.com/dalemusser/noorhub/internal/app/system/mailer"
	"github.com/dalemusser/noorhub/internal/app/system/seeding"
	"github.com/dalemusser/noorhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB, optional Redis, file storage and the mailer.
//
// When MongoDB is unreachable and allow_demo_mode is set, startup continues
// with a lazily connecting client so reads can be served from demo data
// until the database comes back.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	client, offline, err := connectMongo(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	deps.MongoOffline = offline

	if appCfg.RedisURL != "" {
		opts, err := redis.ParseURL(appCfg.RedisURL)
		if err != nil {
			return DBDeps{}, fmt.Errorf("invalid redis_url: %w", err)
		}
		deps.Redis = redis.NewClient(opts)
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			// The token cache tolerates Redis outages; health reports them.
			logger.Warn("Redis not reachable at startup", zap.Error(err))
		} else {
			logger.Info("connected to Redis", zap.String("addr", opts.Addr))
		}
	}

	store, err := newFileStorage(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}
	deps.FileStorage = store

	deps.Mailer = mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	if deps.Mailer.Configured() {
		logger.Info("initialized email mailer",
			zap.String("host", appCfg.MailSMTPHost),
			zap.Int("port", appCfg.MailSMTPPort),
		)
	} else {
		logger.Info("email disabled (mail_smtp_host not set)")
	}

	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mongo.Client, bool, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err == nil {
		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
			zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
		)
		return client, false, nil
	}
	if !appCfg.AllowDemoMode {
		return nil, false, err
	}

	logger.Warn("MongoDB unreachable; starting in demo mode", zap.Error(err))
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(poolCfg.MaxPoolSize).
		SetServerSelectionTimeout(appCfg.DBShortTimeout)
	lazy, lerr := mongo.Connect(context.Background(), opts)
	if lerr != nil {
		return nil, false, fmt.Errorf("mongo connect: %w", lerr)
	}
	return lazy, true, nil
}

func newFileStorage(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		store, err := storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		logger.Info("initialized S3/CloudFront file storage",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
		)
		return store, nil
	case "local", "":
		store, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		logger.Info("initialized local file storage",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}
}

// EnsureSchema attaches validators, builds indexes and seeds the admin
// account and default menu. While MongoDB is offline it is deferred to the
// schema-ensure task started in Startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoOffline {
		logger.Warn("deferring schema setup: MongoDB offline")
		return nil
	}
	return ensureSchema(ctx, deps.MongoDatabase, appCfg, logger)
}

func ensureSchema(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	// Collections and validators come first so indexes land on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("seeding default data")
	admin := seeding.Admin{
		Email:    appCfg.SeedAdminEmail,
		Name:     appCfg.SeedAdminName,
		Password: appCfg.SeedAdminPassword,
	}
	if err := seeding.SeedAll(ctx, db, admin, logger); err != nil {
		logger.Error("failed to seed default data", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
