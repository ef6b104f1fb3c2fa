package auth

import (
	"context"
	"net/http"
	"time"

	sessionstore "github.com/dalemusser/noorhub/internal/app/store/sessions"
	"github.com/dalemusser/noorhub/internal/app/system/network"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.uber.org/zap"
)

// SetSessionTracker makes SignIn record each session server-side and
// SignOut close it. Pair it with a UserFetcher that checks the record.
func (sm *SessionManager) SetSessionTracker(st *sessionstore.Store) {
	sm.tracker = st
}

// SignIn sets the session cookie for u and, when a tracker is set, records
// the session. A failed record write fails the sign-in, since the cookie
// alone would not authenticate.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *models.User, method string) error {
	token, err := GenerateSessionToken()
	if err != nil {
		return err
	}
	if sm.tracker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		now := time.Now().UTC()
		if err := sm.tracker.Create(ctx, sessionstore.Session{
			Token:     token,
			UserID:    u.ID,
			IPAddress: network.GetClientIP(r),
			UserAgent: r.UserAgent(),
			Method:    method,
			LoginAt:   now,
			ExpiresAt: now.Add(sm.maxAge),
		}); err != nil {
			return err
		}
	}
	return sm.CreateSession(w, r, u, token)
}

// SignOut closes the tracked session, if any, and clears the cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) {
	if sm.tracker != nil {
		if token := sm.GetSessionToken(r); token != "" {
			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			defer cancel()
			if err := sm.tracker.Close(ctx, token, sessionstore.EndLogout); err != nil {
				sm.logger.Warn("failed to close session record", zap.Error(err))
			}
		}
	}
	sm.DestroySession(w, r)
}
