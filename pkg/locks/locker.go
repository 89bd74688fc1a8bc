// Package locks provides exclusive locks keyed by string, used to serialize
// decisions on one request and creations against one item.
package locks

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

// Unlock releases a held lock. It is safe to call once.
type Unlock func()

type Locker interface {
	// Lock blocks until key is held or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// RequestKey is the lock key serializing transitions of one request.
func RequestKey(requestID string) string {
	return "approvals:request:" + requestID
}

// ItemKey is the lock key serializing request creation for one item.
func ItemKey(itemType, itemID string) string {
	return "approvals:item:" + itemType + ":" + itemID
}
