// Package locker provides distributed locking for coordinating work across
// service instances.
package locker

import (
	"context"
	"time"
)

// DistributedLocker provides distributed lock capabilities across multiple instances.
// Implementations must be safe for concurrent use.
//
// Typical usage:
//
//	acquired, err := locker.Acquire(ctx, "my-lock", 5*time.Minute)
//	if err != nil {
//	    return err
//	}
//	if !acquired {
//	    // Another instance holds the lock
//	    return nil
//	}
//	defer locker.Release(ctx, "my-lock")
type DistributedLocker interface {
	// Acquire attempts to take the lock named key without waiting.
	// It returns false, not an error, when another holder has it.
	// The lock expires after ttl unless released first.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives up a lock taken by this locker.
	// Releasing a lock held elsewhere is a no-op.
	Release(ctx context.Context, key string) error
}
