package mapstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue(4, time.Second, nil)
	defer q.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 20; i++ {
		require.NoError(t, q.Submit(fmt.Sprint(i), func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	require.NoError(t, q.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 20)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueReportsResults(t *testing.T) {
	var mu sync.Mutex
	results := map[string]error{}
	q := NewQueue(4, time.Second, nil, WithResultHook(func(name string, err error) {
		mu.Lock()
		results[name] = err
		mu.Unlock()
	}))
	defer q.Close()

	boom := errors.New("boom")
	require.NoError(t, q.Submit("ok", func(context.Context) error { return nil }))
	require.NoError(t, q.Submit("fail", func(context.Context) error { return boom }))
	require.NoError(t, q.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, results["ok"])
	assert.ErrorIs(t, results["fail"], boom)
}

func TestQueueAppliesTimeout(t *testing.T) {
	q := NewQueue(1, 10*time.Millisecond, nil)
	defer q.Close()

	errCh := make(chan error, 1)
	require.NoError(t, q.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}))
	require.NoError(t, q.Flush(context.Background()))
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(4, 0, nil)

	ran := make(chan struct{})
	require.NoError(t, q.Submit("last", func(context.Context) error {
		close(ran)
		return nil
	}))
	q.Close()
	q.Close()

	select {
	case <-ran:
	default:
		t.Fatal("pending task was not drained on close")
	}
	assert.ErrorIs(t, q.Submit("late", func(context.Context) error { return nil }), ErrQueueClosed)
	assert.ErrorIs(t, q.Flush(context.Background()), ErrQueueClosed)
}
