package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func startRunner(t *testing.T, workers int, timeout time.Duration) *Runner {
	t.Helper()
	r := NewRunner(workers, timeout, zerolog.Nop())
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	return r
}

func TestRunner_DeliversOutcome(t *testing.T) {
	r := startRunner(t, 2, time.Second)

	out := r.Do(context.Background(), Task{Name: "echo", Run: func(context.Context) (any, error) {
		return 42, nil
	}})
	if out.Err != nil || out.Value != 42 || out.Name != "echo" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestRunner_PerTaskTimeout(t *testing.T) {
	r := startRunner(t, 1, time.Hour)

	out := r.Do(context.Background(), Task{
		Name:    "slow",
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	if !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", out.Err)
	}
}

func TestRunner_RunsInParallel(t *testing.T) {
	r := startRunner(t, 4, time.Second)

	var running, peak atomic.Int32
	release := make(chan struct{})
	replies := make([]<-chan Outcome, 4)
	for i := range replies {
		ch, err := r.Submit(context.Background(), Task{Name: "block", Run: func(context.Context) (any, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil, nil
		}})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		replies[i] = ch
	}

	deadline := time.After(time.Second)
	for peak.Load() < 4 {
		select {
		case <-deadline:
			t.Fatalf("tasks did not run concurrently, peak=%d", peak.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(release)
	for _, ch := range replies {
		<-ch
	}
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := startRunner(t, 1, time.Second)

	out := r.Do(context.Background(), Task{Name: "boom", Run: func(context.Context) (any, error) {
		panic("kaboom")
	}})
	if out.Err == nil {
		t.Fatalf("expected panic converted to error")
	}

	out = r.Do(context.Background(), Task{Name: "after", Run: func(context.Context) (any, error) { return "ok", nil }})
	if out.Err != nil {
		t.Fatalf("worker should survive a panic: %v", out.Err)
	}
}

func TestRunner_SubmitAfterStop(t *testing.T) {
	r := NewRunner(1, time.Second, zerolog.Nop())
	r.Start(context.Background())
	r.Stop()
	r.Stop()

	if _, err := r.Submit(context.Background(), Task{Name: "late"}); !errors.Is(err, ErrRunnerStopped) {
		t.Fatalf("expected ErrRunnerStopped, got %v", err)
	}
}

func TestRunner_LastCompletedLoginWins(t *testing.T) {
	r := startRunner(t, 2, time.Second)
	s := NewSession()

	login := func(user string, delay time.Duration) Task {
		return Task{Name: "login " + user, Run: func(ctx context.Context) (any, error) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			s.Set(AuthResponse{AccessToken: user, Username: user})
			return nil, nil
		}}
	}

	slow, _ := r.Submit(context.Background(), login("slow", 60*time.Millisecond))
	fast, _ := r.Submit(context.Background(), login("fast", 5*time.Millisecond))
	<-fast
	<-slow

	if s.Username() != "slow" {
		t.Fatalf("expected the login completing last to win, got %q", s.Username())
	}
}

func TestRunner_CancelledStartFailsQueuedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(1, time.Second, zerolog.Nop())
	r.Start(ctx)
	t.Cleanup(r.Stop)

	release := make(chan struct{})
	busy, err := r.Submit(context.Background(), Task{Name: "busy", Run: func(context.Context) (any, error) {
		<-release
		return nil, nil
	}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result := make(chan Outcome, 1)
	go func() {
		result <- r.Do(context.Background(), Task{Name: "queued", Run: func(context.Context) (any, error) {
			return "ran", nil
		}})
	}()

	deadline := time.After(time.Second)
	for len(r.jobs) == 0 {
		select {
		case <-deadline:
			t.Fatalf("queued task never reached the queue")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	close(release)
	<-busy

	select {
	case out := <-result:
		if !errors.Is(out.Err, context.Canceled) || !errors.Is(out.Err, ErrRunnerStopped) {
			t.Fatalf("expected cancellation for the queued task, got %+v", out)
		}
	case <-time.After(time.Second):
		t.Fatalf("Do did not return after the runner context was cancelled")
	}
}

func TestRunner_StopReleasesBlockedSubmit(t *testing.T) {
	r := NewRunner(1, time.Second, zerolog.Nop())
	r.Start(context.Background())

	release := make(chan struct{})
	block := Task{Name: "block", Run: func(context.Context) (any, error) {
		<-release
		return nil, nil
	}}
	// One task runs, the rest fill the queue.
	for i := 0; i < queueBuffer+1; i++ {
		if _, err := r.Submit(context.Background(), block); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	submitErr := make(chan error, 1)
	go func() {
		_, err := r.Submit(context.Background(), block)
		submitErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case err := <-submitErr:
		if !errors.Is(err, ErrRunnerStopped) {
			t.Fatalf("expected ErrRunnerStopped, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Submit stayed blocked after Stop")
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return")
	}
}

func TestRunner_StopWithoutStart(t *testing.T) {
	r := NewRunner(1, time.Second, zerolog.Nop())
	r.Stop()

	out := r.Do(context.Background(), Task{Name: "late"})
	if !errors.Is(out.Err, ErrRunnerStopped) {
		t.Fatalf("expected ErrRunnerStopped, got %v", out.Err)
	}
}
