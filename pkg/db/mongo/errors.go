package mongo

import (
	"context"
	"errors"
	"time"

	apperrors "vetslots/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsTransient reports whether err is a store failure that is safe to retry:
// timeouts, network errors and server-labelled transient transaction errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorLabel("TransientTransactionError") {
		return true
	}
	return false
}

// StoreError turns a raw driver error into an AppError. AppErrors pass
// through unchanged so domain errors raised inside transactions survive.
func StoreError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if IsTransient(err) {
		return apperrors.TransientStore(message, err)
	}
	return apperrors.Internal(message, err)
}

// WithTimeout wraps the context with a timeout if not already in a transaction.
// Inside a SessionContext the original context is returned with a no-op cancel,
// since wrapping it would detach the operation from the session.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}
