// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires noorhub into the WAFFLE lifecycle. app.Run calls them in
// order, from configuration loading through graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "noorhub",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema, // validators, indexes, seed admin + menu
	Startup:        Startup,      // timeouts, background tasks
	BuildHandler:   BuildHandler, // router + middleware stack
	Shutdown:       Shutdown,     // stop tasks, close Redis and MongoDB
}
