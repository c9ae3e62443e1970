package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("notifications", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Offer(Job{ID: "1"})
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestQueueProcessesAndRetries(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("broker unavailable")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Offer(Job{ID: "job-1", Type: "booking_created"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueueOfferWhenFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	var full bool
	for i := 0; i < 5; i++ {
		if err := q.Offer(Job{ID: "job"}); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	assert.True(t, full)
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var handled int32
	release := make(chan struct{})
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		if job.ID == "first" {
			<-release
		}
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())

	require.NoError(t, q.Offer(Job{ID: "first"}))
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Offer(Job{ID: "queued"}))
	}

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	close(release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&handled))
	assert.Equal(t, 0, q.Pending())
	assert.ErrorIs(t, q.Offer(Job{ID: "late"}), ErrNotStarted)
}

func TestQueueReportsExhaustedJobs(t *testing.T) {
	settled := make(chan error, 1)
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		return errors.New("store down")
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
		OnFinal: func(job Job, err error) {
			assert.Equal(t, 3, job.Attempt)
			settled <- err
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))

	select {
	case err := <-settled:
		assert.EqualError(t, err, "store down")
	case <-time.After(2 * time.Second):
		t.Fatal("job never settled")
	}
}
