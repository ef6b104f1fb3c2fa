package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/noorhub/internal/app/system/tasks"
	"go.uber.org/zap"
)

func TestRunner_StartAndStop(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	ran := make(chan struct{}, 10)
	runner.Register(tasks.Job{
		Name:     "test-job",
		Interval: 100 * time.Millisecond,
		Run: func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		},
	})
	runner.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
}

func TestRunner_StopWithTimeout(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	inSleep := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "slow-job",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(inSleep)
			// Ignores ctx on purpose.
			time.Sleep(2 * time.Second)
			return nil
		},
	})
	runner.Start()
	<-inSleep

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := runner.Stop(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded error, got: %v", err)
	}
}

func TestRunner_JobContextCancellation(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	waiting := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "context-aware-job",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(waiting)
			<-ctx.Done()
			return ctx.Err()
		},
	})
	runner.Start()
	<-waiting

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
}

func TestRunner_RunOnce(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	var runs atomic.Int32
	boom := errors.New("boom")
	runner.Register(tasks.Job{
		Name:     "manual-job",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			if runs.Add(1) == 2 {
				return boom
			}
			return nil
		},
	})

	ctx := context.Background()
	if err := runner.RunOnce(ctx, "manual-job"); err != nil {
		t.Fatalf("RunOnce() returned error: %v", err)
	}
	if err := runner.RunOnce(ctx, "manual-job"); !errors.Is(err, boom) {
		t.Fatalf("RunOnce() second = %v, want boom", err)
	}
	snap := runner.Snapshot()
	if len(snap) != 1 || snap[0].Err != "boom" || snap[0].LastRun.IsZero() {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if err := runner.RunOnce(ctx, "nonexistent-job"); !errors.Is(err, tasks.ErrUnknownJob) {
		t.Errorf("RunOnce(nonexistent) = %v, want ErrUnknownJob", err)
	}
}

func TestRunner_RecoversPanicsAndAppliesTimeout(t *testing.T) {
	runner := tasks.New(zap.NewNop())
	runner.Register(tasks.Job{
		Name:     "panics",
		Interval: time.Hour,
		Run:      func(ctx context.Context) error { panic("kaboom") },
	})
	runner.Register(tasks.Job{
		Name:     "bounded",
		Interval: time.Hour,
		Timeout:  20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	ctx := context.Background()
	if err := runner.RunOnce(ctx, "panics"); err == nil {
		t.Error("RunOnce(panics) should return an error")
	}
	if err := runner.RunOnce(ctx, "bounded"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunOnce(bounded) = %v, want DeadlineExceeded", err)
	}
}
