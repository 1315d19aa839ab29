package persist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_FlushCompletesWrites(t *testing.T) {
	writer := NewWriter()
	t.Cleanup(writer.Close)

	var mu sync.Mutex
	var written []string

	writer.Enqueue("a", func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, "a")
		return nil
	})
	writer.Enqueue("b", func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, "b")
		return nil
	})
	writer.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, written)
}

func TestWriter_CoalescesPerKey(t *testing.T) {
	writer := NewWriter()
	t.Cleanup(writer.Close)

	// Block the worker on an unrelated key so both enqueues for "cart"
	// land while it is busy.
	gate := make(chan struct{})
	writer.Enqueue("other", func(ctx context.Context) error {
		<-gate
		return nil
	})

	var mu sync.Mutex
	var values []int
	for n := 1; n <= 3; n++ {
		value := n
		writer.Enqueue("cart", func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			values = append(values, value)
			return nil
		})
	}

	close(gate)
	writer.Flush()

	mu.Lock()
	defer mu.Unlock()
	// Only the most recent snapshot for the key is written.
	require.Len(t, values, 1)
	assert.Equal(t, 3, values[0])
}

func TestWriter_FailureInvokesHook(t *testing.T) {
	var mu sync.Mutex
	var failedKeys []string

	writer := NewWriter(WithOnError(func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failedKeys = append(failedKeys, key)
	}))
	t.Cleanup(writer.Close)

	writeErr := errors.New("store unavailable")
	writer.Enqueue("cart", func(ctx context.Context) error {
		return writeErr
	})
	writer.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"cart"}, failedKeys)
}

func TestWriter_FailureDoesNotStopLaterWrites(t *testing.T) {
	writer := NewWriter()
	t.Cleanup(writer.Close)

	writer.Enqueue("a", func(ctx context.Context) error {
		return errors.New("boom")
	})

	done := false
	writer.Enqueue("b", func(ctx context.Context) error {
		done = true
		return nil
	})
	writer.Flush()

	assert.True(t, done)
}

func TestWriter_CloseDrainsPending(t *testing.T) {
	writer := NewWriter()

	done := false
	writer.Enqueue("a", func(ctx context.Context) error {
		done = true
		return nil
	})
	writer.Close()

	assert.True(t, done)

	// Enqueue after close is dropped, and Close is idempotent.
	writer.Enqueue("b", func(ctx context.Context) error {
		t.Error("write executed after close")
		return nil
	})
	writer.Close()
}
