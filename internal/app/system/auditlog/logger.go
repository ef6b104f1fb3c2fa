// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/noorhub/internal/app/store/audit"
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config selects where each category of events goes.
type Config struct {
	Auth  string
	Admin string
}

// Logger writes audit events to the audit store and/or zap.
// A nil *Logger is valid and drops events.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) modeFor(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryAdmin:
		m = l.config.Admin
	}
	if m == "" {
		return ModeAll
	}
	return m
}

func (l *Logger) logToZap(e audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	}
	if e.UserID != nil {
		fields = append(fields, zap.String("user_id", e.UserID.Hex()))
	}
	if e.ActorID != nil {
		fields = append(fields, zap.String("actor_id", e.ActorID.Hex()))
	}
	if e.Resource != "" {
		fields = append(fields, zap.String("resource", e.Resource), zap.String("resource_id", e.ResourceID))
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records e according to the configured mode of its category.
func (l *Logger) Log(ctx context.Context, e audit.Event) {
	if l == nil {
		return
	}
	mode := l.modeFor(e.Category)
	if mode == ModeOff {
		return
	}
	if (mode == ModeAll || mode == ModeLog) && l.zapLog != nil {
		l.logToZap(e)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, e); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", e.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        network.GetClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func actorOf(r *http.Request) *primitive.ObjectID {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil
	}
	id := u.UserID()
	if id.IsZero() {
		return nil
	}
	return &id
}

// --- Auth events ---

// Registered logs a new account.
func (l *Logger) Registered(r *http.Request, userID primitive.ObjectID, method string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventRegistered, true)
	e.UserID = &userID
	e.Details = map[string]string{"auth_method": method}
	l.Log(r.Context(), e)
}

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(r *http.Request, userID primitive.ObjectID, method string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = &userID
	e.Details = map[string]string{"auth_method": method}
	l.Log(r.Context(), e)
}

// LoginFailed logs a rejected sign-in. userID is nil when the email is unknown.
func (l *Logger) LoginFailed(r *http.Request, userID *primitive.ObjectID, email, reason string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailed, false)
	e.UserID = userID
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(r.Context(), e)
}

// LoginLockedOut logs a sign-in refused by the rate limiter.
func (l *Logger) LoginLockedOut(r *http.Request, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginLockedOut, false)
	e.FailureReason = "too many failed attempts"
	e.Details = map[string]string{"email": email}
	l.Log(r.Context(), e)
}

// Logout logs a sign-out of the current user.
func (l *Logger) Logout(r *http.Request) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLogout, true)
	e.UserID = actorOf(r)
	l.Log(r.Context(), e)
}

// GoogleLoginFailed logs a failed OAuth callback.
func (l *Logger) GoogleLoginFailed(r *http.Request, reason string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventGoogleLoginFailed, false)
	e.FailureReason = reason
	l.Log(r.Context(), e)
}

// GoogleLinked logs the first Google sign-in of an existing account.
func (l *Logger) GoogleLinked(r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventGoogleLinked, true)
	e.UserID = &userID
	l.Log(r.Context(), e)
}

// --- Admin events ---

// Content logs a create/update/delete of a content resource by the
// current user.
func (l *Logger) Content(r *http.Request, eventType, resource, resourceID string) {
	e := fromRequest(r, audit.CategoryAdmin, eventType, true)
	e.ActorID = actorOf(r)
	e.Resource = resource
	e.ResourceID = resourceID
	l.Log(r.Context(), e)
}

// UserChanged logs a role, status or delete action on target.
func (l *Logger) UserChanged(r *http.Request, eventType string, target primitive.ObjectID, details map[string]string) {
	e := fromRequest(r, audit.CategoryAdmin, eventType, true)
	e.ActorID = actorOf(r)
	e.UserID = &target
	e.Resource = "users"
	e.ResourceID = target.Hex()
	e.Details = details
	l.Log(r.Context(), e)
}

// OrderStatusChanged logs an order transition.
func (l *Logger) OrderStatusChanged(r *http.Request, orderID primitive.ObjectID, from, to string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventOrderStatusChanged, true)
	e.ActorID = actorOf(r)
	e.Resource = "orders"
	e.ResourceID = orderID.Hex()
	e.Details = map[string]string{"from": from, "to": to}
	l.Log(r.Context(), e)
}

// Payment logs the outcome of a bKash execute or callback.
func (l *Logger) Payment(r *http.Request, orderID primitive.ObjectID, paymentID string, ok bool, reason string) {
	typ := audit.EventPaymentCompleted
	if !ok {
		typ = audit.EventPaymentFailed
	}
	e := fromRequest(r, audit.CategoryAdmin, typ, ok)
	e.ActorID = actorOf(r)
	e.Resource = "orders"
	e.ResourceID = orderID.Hex()
	e.FailureReason = reason
	e.Details = map[string]string{"payment_id": paymentID}
	l.Log(r.Context(), e)
}
