package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanOutRunsEveryItem(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	var count int32

	err := fanOut(context.Background(), 2, items, func(ctx context.Context, n int) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	assert.NoError(t, err)
	assert.EqualValues(t, len(items), count)
}

func TestFanOutSurfacesFirstFailure(t *testing.T) {
	items := []int{1, 2, 3}

	err := fanOut(context.Background(), 3, items, func(ctx context.Context, n int) error {
		return errors.New("task " + strconv.Itoa(n) + " failed")
	})

	assert.Error(t, err)
}

func TestFanOutEmptyInput(t *testing.T) {
	err := fanOut[int](context.Background(), 4, nil, func(ctx context.Context, n int) error {
		t.Fatal("fn should not be called for an empty item set")
		return nil
	})
	assert.NoError(t, err)
}

func TestFanOutSurfacesPartialFailure(t *testing.T) {
	items := []int{1, 2, 3, 4}

	err := fanOut(context.Background(), 4, items, func(ctx context.Context, n int) error {
		if n%2 == 0 {
			return errors.New("even failure")
		}
		return nil
	})

	assert.Error(t, err)
}
