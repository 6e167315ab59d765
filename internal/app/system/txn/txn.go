// Package txn runs MongoDB multi-document transactions and recognizes the
// errors a standalone (non-replica-set) server returns when they are used.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Command error codes returned when transactions or sessions are unavailable.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers only allowed on a replica set member
	51:  true,
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means the server cannot run transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return notSupportedCodes[cmdErr.Code]
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

// Run executes fn inside a transaction on client. When the deployment cannot
// run transactions, fn is executed once without one and fallback is set.
func Run(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) (fallback bool, err error) {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return true, fn(ctx)
		}
		return false, err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return true, fn(ctx)
	}
	return false, err
}
