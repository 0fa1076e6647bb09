package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ItemFailure is one absorbed failure from a bulk fetch
type ItemFailure struct {
	Index int
	Err   error
}

// BulkResult holds the successful results in issuance order plus counts.
// Indices[i] is the position in keys that Succeeded[i] was fetched for.
type BulkResult[T any] struct {
	Succeeded    []T
	Indices      []int
	SuccessCount int
	FailureCount int
	Failures     []ItemFailure
}

// BulkFetch calls fetchOne for every key concurrently and waits for all of
// them. Results keep the order of keys regardless of completion order. A
// failing or panicking item is logged and counted, never returned; the call
// itself fails only when ctx is done.
func BulkFetch[K, T any](ctx context.Context, logger *zap.Logger, keys []K, fetchOne func(ctx context.Context, key K) (T, error)) (BulkResult[T], error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return BulkResult[T]{}, err
	}

	type slot struct {
		value T
		err   error
	}
	slots := make([]slot, len(keys))

	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slots[i].err = fmt.Errorf("panic: %v", r)
				}
			}()
			slots[i].value, slots[i].err = fetchOne(ctx, key)
			return nil
		})
	}
	_ = g.Wait()

	result := BulkResult[T]{
		Succeeded: make([]T, 0, len(keys)),
		Indices:   make([]int, 0, len(keys)),
	}
	for i, s := range slots {
		if s.err != nil {
			result.FailureCount++
			result.Failures = append(result.Failures, ItemFailure{Index: i, Err: s.err})
			logger.Warn("Bulk fetch item failed",
				zap.Int("index", i),
				zap.Any("key", keys[i]),
				zap.Error(s.err),
			)
			continue
		}
		result.SuccessCount++
		result.Succeeded = append(result.Succeeded, s.value)
		result.Indices = append(result.Indices, i)
	}

	logger.Info("Bulk fetch completed",
		zap.Int("requested", len(keys)),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
