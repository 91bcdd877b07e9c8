package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCompleter struct {
	mu      sync.Mutex
	batches []int
	err     error
	calls   int
}

func (f *fakeCompleter) CompleteDue(_ context.Context, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.batches) == 0 {
		return 0, f.err
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepDrainsFullBatches(t *testing.T) {
	fc := &fakeCompleter{batches: []int{2, 2, 1}}
	w := NewCompletionWorker(fc, quietLogger(), time.Minute)
	w.batchSize = 2

	assert.Equal(t, 5, w.Sweep(context.Background()))
	assert.Equal(t, 3, fc.Calls())
}

func TestSweepStopsOnError(t *testing.T) {
	fc := &fakeCompleter{batches: []int{2}, err: errors.New("store unavailable")}
	w := NewCompletionWorker(fc, quietLogger(), time.Minute)
	w.batchSize = 2

	assert.Equal(t, 2, w.Sweep(context.Background()))
	assert.Equal(t, 2, fc.Calls())
}

func TestStartSweepsUntilCancelled(t *testing.T) {
	fc := &fakeCompleter{}
	w := NewCompletionWorker(fc, quietLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return fc.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
