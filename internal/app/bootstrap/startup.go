// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/noorhub/internal/app/system/tasks"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after ConnectDB and EnsureSchema, before the handler
// is built. A non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:  appCfg.DBPingTimeout,
		Short: appCfg.DBShortTimeout,
		Long:  appCfg.DBLongTimeout,
	})

	taskRunner = newTaskRunner(deps, appCfg, logger)
	taskRunner.Start()
	return nil
}

// taskRunner is the global task runner instance, used by the admin API and
// for graceful shutdown.
var taskRunner *tasks.Runner

// schemaRetryInterval paces schema-ensure while MongoDB is offline.
const schemaRetryInterval = 30 * time.Second

// newTaskRunner registers the maintenance jobs. After a demo-mode start it
// also registers schema-ensure, so indexes and seed data appear once the
// database does.
func newTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) *tasks.Runner {
	db := deps.MongoDatabase
	runner := tasks.New(logger)
	if deps.MongoOffline {
		runner.Register(tasks.SchemaEnsureJob(func(ctx context.Context) error {
			return ensureSchema(ctx, db, appCfg, logger)
		}, schemaRetryInterval, logger))
	}
	runner.Register(tasks.OrphanSweepJob(db, logger))
	runner.Register(tasks.OAuthStateCleanupJob(db, logger))
	return runner
}
