package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestJobLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	jobID, err := m.Start(ctx, "mockup", func(_ context.Context, progress func(int, string)) (map[string]any, error) {
		progress(50, "halfway")
		return map[string]any{"output": "done.html"}, nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(jobID, "mockup_") {
		t.Errorf("job id = %q, want mockup_ prefix", jobID)
	}

	m.Wait()

	s := m.Status(jobID)
	if s.State != StateCompleted {
		t.Fatalf("state = %s, want %s", s.State, StateCompleted)
	}
	if !s.Completed {
		t.Error("completed flag not set on terminal state")
	}
	if s.Progress != 100 {
		t.Errorf("progress = %d, want 100", s.Progress)
	}
	if s.Result["output"] != "done.html" {
		t.Errorf("result = %v", s.Result)
	}
}

func TestJobFailure(t *testing.T) {
	m := newTestManager(t)

	jobID, err := m.Start(context.Background(), "mockup", func(_ context.Context, _ func(int, string)) (map[string]any, error) {
		return nil, fmt.Errorf("render exploded")
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Wait()

	s := m.Status(jobID)
	if s.State != StateError {
		t.Fatalf("state = %s, want %s", s.State, StateError)
	}
	if !strings.Contains(s.Message, "render exploded") {
		t.Errorf("message = %q, want the failure reason", s.Message)
	}
	if !s.Completed {
		t.Error("failed job not marked completed")
	}
}

func TestJobPanicBecomesError(t *testing.T) {
	m := newTestManager(t)

	jobID, err := m.Start(context.Background(), "arch", func(_ context.Context, _ func(int, string)) (map[string]any, error) {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Wait()

	s := m.Status(jobID)
	if s.State != StateError {
		t.Fatalf("state = %s, want %s", s.State, StateError)
	}
	if !strings.Contains(s.Message, "boom") {
		t.Errorf("message = %q, want the panic value", s.Message)
	}
}

func TestConcurrentSameKindJobsGetDistinctIDs(t *testing.T) {
	m := newTestManager(t)
	// Freeze the clock so both ids share the same timestamp component.
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.clock = func() time.Time { return frozen }

	done := make(chan struct{})
	fn := func(_ context.Context, _ func(int, string)) (map[string]any, error) {
		<-done
		return map[string]any{"ok": true}, nil
	}

	first, err := m.Start(context.Background(), "mockup", fn)
	if err != nil {
		t.Fatalf("Start first: %v", err)
	}
	second, err := m.Start(context.Background(), "mockup", fn)
	if err != nil {
		t.Fatalf("Start second: %v", err)
	}
	if first == second {
		t.Fatalf("same-instant jobs share id %q", first)
	}
	close(done)
	m.Wait()

	for _, id := range []string{first, second} {
		if s := m.Status(id); s.State != StateCompleted {
			t.Errorf("job %s state = %s, want %s", id, s.State, StateCompleted)
		}
	}
}

func TestStatusNotFound(t *testing.T) {
	m := newTestManager(t)
	s := m.Status("never_started")
	if s.State != StateNotFound {
		t.Errorf("state = %s, want %s", s.State, StateNotFound)
	}
}

func TestCleanOld(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	stale := filepath.Join(dir, "old_job.json")
	if err := os.WriteFile(stale, []byte(`{"status":"completed"}`), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh := filepath.Join(dir, "fresh_job.json")
	if err := os.WriteFile(fresh, []byte(`{"status":"processing"}`), 0o644); err != nil {
		t.Fatalf("write fresh file: %v", err)
	}

	if removed := m.CleanOld(24 * time.Hour); removed != 1 {
		t.Fatalf("CleanOld removed %d files, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived cleanup")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file removed by cleanup")
	}
}
