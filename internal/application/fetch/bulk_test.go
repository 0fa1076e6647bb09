package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBulkFetch_IsolatesSingleFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	refs := []string{"r0", "r1", "r2", "r3", "r4"}

	result, err := BulkFetch(context.Background(), zap.New(core), refs, func(ctx context.Context, ref string) (string, error) {
		if ref == "r2" {
			return "", errors.New("recipe service exploded")
		}
		return "recipe-" + ref, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, []string{"recipe-r0", "recipe-r1", "recipe-r3", "recipe-r4"}, result.Succeeded)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
	assert.Equal(t, 1, logs.FilterMessage("Bulk fetch item failed").Len())
}

func TestBulkFetch_KeepsIssuanceOrder(t *testing.T) {
	refs := []int{0, 1, 2, 3, 4, 5}

	// later refs finish first
	result, err := BulkFetch(context.Background(), nil, refs, func(ctx context.Context, ref int) (int, error) {
		time.Sleep(time.Duration(len(refs)-ref) * 5 * time.Millisecond)
		return ref * 10, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50}, result.Succeeded)
}

func TestBulkFetch_AbsorbsPanics(t *testing.T) {
	result, err := BulkFetch(context.Background(), zap.NewNop(), []string{"a", "b"}, func(ctx context.Context, ref string) (string, error) {
		if ref == "a" {
			panic("nil recipe")
		}
		return ref, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, result.Succeeded)
	assert.Equal(t, 1, result.FailureCount)
	assert.Contains(t, result.Failures[0].Err.Error(), "nil recipe")
}

func TestBulkFetch_AllFailing(t *testing.T) {
	result, err := BulkFetch(context.Background(), nil, []string{"a", "b", "c"}, func(ctx context.Context, ref string) (string, error) {
		return "", fmt.Errorf("lookup %s failed", ref)
	})

	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	assert.Equal(t, 3, result.FailureCount)
}

func TestBulkFetch_EmptyInput(t *testing.T) {
	result, err := BulkFetch(context.Background(), nil, nil, func(ctx context.Context, ref string) (string, error) {
		t.Fatal("fetchOne must not be called")
		return "", nil
	})

	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	assert.Zero(t, result.SuccessCount)
}

func TestBulkFetch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BulkFetch(ctx, nil, []string{"a"}, func(ctx context.Context, ref string) (string, error) {
		return ref, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
