package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueFullBufferReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(Job{ID: "a", Type: "t"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "b", Type: "t"}))

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(Job{ID: "c", Type: "t"}) }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Enqueue blocked on a full buffer")
	}
}

func TestStopProcessesBufferedJobs(t *testing.T) {
	var mu sync.Mutex
	var handled []string
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.ID == "first" {
			started <- struct{}{}
			<-release
		}
		mu.Lock()
		handled = append(handled, job.ID)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 2})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "first", Type: "t"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "second", Type: "t"}))
	require.NoError(t, q.Enqueue(Job{ID: "third", Type: "t"}))

	close(release)
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third"}, handled)
}

func TestEnqueueAfterStop(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{Workers: 1})
	q.Start(context.Background())
	q.Stop()

	err := q.Enqueue(Job{ID: "late", Type: "t"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQueueFull)
}
