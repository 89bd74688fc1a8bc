package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/approvals/pkg/locks"
)

// NewLocker returns a Redis backed locker when lockURL is set, so several API
// replicas serialize on the same keys, and an in-process locker otherwise.
//
// nolint:ireturn
func NewLocker(ctx context.Context, lockURL string, logger *slog.Logger) (locks.Locker, func() error, error) {
	if lockURL == "" {
		return locks.NewLocal(), func() error { return nil }, nil
	}

	locker, err := locks.NewRedisFromURL(ctx, lockURL, logger)
	if err != nil {
		return nil, nil, err
	}

	return locker, locker.Close, nil
}
