// internal/app/system/txn/txn.go
// Package txn runs multi-document writes inside a Mongo transaction,
// falling back to plain sequential execution when the server is a
// standalone that does not support sessions (local development).
//
// The fallback loses atomicity, so it is logged loudly; production
// deployments run against a replica set where the transaction path is
// always taken.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn transactionally. On servers without transaction
// support it reruns fn outside a session.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runWithoutTxn(ctx, log, fn)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runWithoutTxn(ctx, log, fn)
	}
	return err
}

func runWithoutTxn(ctx context.Context, log *zap.Logger, fn func(ctx context.Context) error) error {
	if log != nil {
		log.Warn("mongo transactions unavailable, running writes without atomicity")
	}
	return fn(ctx)
}

// Transaction-incompatible server error codes:
// 20 IllegalOperation, 51 n/a on standalone, 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if mongo.IsTimeout(err) {
		return false
	}
	if ce, ok := err.(mongo.CommandError); ok {
		cmdErr = ce
	} else {
		// Session/transaction errors sometimes surface as plain errors.
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set") {
			return true
		}
		if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
			return true
		}
		return false
	}
	return notSupportedCodes[cmdErr.Code]
}
