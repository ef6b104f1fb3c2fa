package fallback

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Use reports whether a failed read should be answered from the static
// datasets. It is false for a nil Provider (demo mode disabled), for
// "no such document" and for requests the client already abandoned.
func (p *Provider) Use(r *http.Request, log *zap.Logger, err error) bool {
	if p == nil || err == nil {
		return false
	}
	if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, context.Canceled) {
		return false
	}
	if log != nil {
		log.Warn("database read failed; serving fallback data",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
	}
	return true
}
