// Package txn runs multi-collection writes in a MongoDB transaction when the
// deployment supports one, and sequentially when it does not (standalone
// servers used in development and tests).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func receives the context to use for every operation. It is a
// mongo.SessionContext inside a transaction.
type Func func(ctx context.Context) error

// Run calls fn inside a transaction. If sessions or transactions are not
// available fn is called again without one; a transaction that could not
// start has applied nothing.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		warn(log, "no session available, writing without transaction", err)
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		warn(log, "transactions not supported, writing without transaction", err)
		return fn(ctx)
	}
	return err
}

func warn(log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Debug(msg, zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions: codes 20 (not a replica set member),
// 51 (IllegalOperation) and 263 (operation not allowed in a transaction),
// or a message naming both transactions and replica sets.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
