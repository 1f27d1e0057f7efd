package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type funcJob struct {
	id string
	fn func(ctx context.Context) error
}

func (j funcJob) ID() string                        { return j.id }
func (j funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }

func TestDispatcherRunsEveryJob(t *testing.T) {
	d := NewDispatcher(3, 20, quietLogger())
	d.Run(context.Background())
	defer d.Stop()

	var wg sync.WaitGroup
	var ran int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := d.SubmitJob(funcJob{id: fmt.Sprintf("job-%d", i), fn: func(context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
			if i%2 == 0 {
				return errors.New("boom")
			}
			return nil
		}})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs did not finish")
	}
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
}

func TestSubmitJobQueueFull(t *testing.T) {
	d := NewDispatcher(1, 1, quietLogger())
	// Not running: nothing drains the queue.
	require.NoError(t, d.SubmitJob(funcJob{id: "a", fn: func(context.Context) error { return nil }}))
	err := d.SubmitJob(funcJob{id: "b", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueFull)
	d.Stop()
}

func TestStopWaitsForRunningJob(t *testing.T) {
	d := NewDispatcher(1, 5, quietLogger())
	d.Run(context.Background())

	started := make(chan struct{})
	var finished int32
	require.NoError(t, d.SubmitJob(funcJob{id: "slow", fn: func(context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
		return nil
	}}))

	<-started
	d.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
	d.Stop()
}
