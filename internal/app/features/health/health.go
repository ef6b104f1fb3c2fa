// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler provides health check endpoints.
type Handler struct {
	mongo    *mongo.Client
	redis    *redis.Client
	demoMode bool
	log      *zap.Logger
}

// NewHandler builds the handler. redisClient may be nil. With demoMode set
// the API keeps serving fallback content while MongoDB is down, so the
// service still reports ready.
func NewHandler(mongoClient *mongo.Client, redisClient *redis.Client, demoMode bool, logger *zap.Logger) *Handler {
	return &Handler{mongo: mongoClient, redis: redisClient, demoMode: demoMode, log: logger}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
	DemoMode bool              `json:"demoMode,omitempty"`
}

// Routes mounts /health.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	return r
}

// MountRootEndpoints adds the Kubernetes style probes on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

func (h *Handler) pingMongo(ctx context.Context) error {
	if h.mongo == nil {
		return mongo.ErrClientDisconnected
	}
	return h.mongo.Ping(ctx, readpref.Primary())
}

// Check reports each backing service.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := Response{Status: "ok", Services: map[string]string{"mongodb": "ok"}}
	status := http.StatusOK

	if err := h.pingMongo(ctx); err != nil {
		h.log.Warn("health check: mongodb ping failed", zap.Error(err))
		resp.Services["mongodb"] = "unavailable"
		resp.Status = "degraded"
		if h.demoMode {
			resp.DemoMode = true
		} else {
			status = http.StatusServiceUnavailable
		}
	}
	// A Redis outage degrades the report but never fails it.
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.log.Warn("health check: redis ping failed", zap.Error(err))
			resp.Services["redis"] = "unavailable"
			resp.Status = "degraded"
		} else {
			resp.Services["redis"] = "ok"
		}
	}
	jsonutil.JSON(w, status, resp)
}

// Ready answers the readiness probe.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.pingMongo(ctx); err != nil && !h.demoMode {
		h.log.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live answers the liveness probe.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
