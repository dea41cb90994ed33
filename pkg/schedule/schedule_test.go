package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastScheduler() *Scheduler {
	s := New()
	s.tick = 5 * time.Millisecond
	return s
}

func TestScheduler_RunsEntriesAtTheirInterval(t *testing.T) {
	s := fastScheduler()
	var fast, slow atomic.Int32
	s.Every(10 * time.Millisecond).Name("fast").Run(func(context.Context) { fast.Add(1) })
	s.Every(time.Hour).Name("slow").Run(func(context.Context) { slow.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return fast.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	assert.Equal(t, int32(1), slow.Load(), "first tick runs everything once")
}

func TestScheduler_WithoutOverlapping(t *testing.T) {
	s := fastScheduler()
	release := make(chan struct{})
	var runs, concurrent, peak atomic.Int32
	s.Every(time.Millisecond).Name("db:health").WithoutOverlapping().Run(func(context.Context) {
		runs.Add(1)
		n := concurrent.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		<-release
		concurrent.Add(-1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)
	s.Wait()

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(1), peak.Load())
}

func TestScheduler_PanicDoesNotStopTheLoop(t *testing.T) {
	s := fastScheduler()
	var after atomic.Int32
	s.Every(time.Millisecond).Name("boom").Run(func(context.Context) { panic("kaput") })
	s.Every(time.Millisecond).Name("after").Run(func(context.Context) { after.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return after.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()
}

func TestScheduler_TaskSeesCancellation(t *testing.T) {
	s := fastScheduler()
	stopped := make(chan struct{})
	s.Every(time.Hour).Run(func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	s.Wait()

	select {
	case <-stopped:
	default:
		t.Fatal("task did not observe cancellation before Wait returned")
	}
}

func TestScheduler_List(t *testing.T) {
	s := New()
	s.Every(30 * time.Second).Name("sse:heartbeat").Run(func(context.Context) {})
	s.Every(time.Minute).Run(func(context.Context) {})

	assert.Equal(t, []string{
		"sse:heartbeat  [every 30s]",
		"task-2  [every 1m0s]",
	}, s.List())
}
