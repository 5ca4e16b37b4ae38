// SPDX-License-Identifier: Apache-2.0

// Package jobs runs background work with file-backed status, so job progress
// survives process restarts and can be polled by id.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planwright/planwright/pkg/errors"
)

// State is the lifecycle state of a background job.
type State string

const (
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateError      State = "error"
	StateNotFound   State = "not_found"
)

// Status is the persisted snapshot of a job. One JSON file per job.
type Status struct {
	JobID     string         `json:"job_id"`
	State     State          `json:"status"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Completed bool           `json:"completed"`
	StartTime time.Time      `json:"start_time"`
	Result    map[string]any `json:"result,omitempty"`
}

// Fn is the unit of background work. It reports progress through the
// callback and returns the job result.
type Fn func(ctx context.Context, progress func(pct int, message string)) (map[string]any, error)

// Manager starts background jobs and persists their status under a
// directory.
type Manager struct {
	dir   string
	log   *slog.Logger
	clock func() time.Time

	mu sync.Mutex // serializes status writes
	wg sync.WaitGroup
}

// NewManager creates a job manager rooted at dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(errors.CodeInternal, "create jobs directory", err).
			WithContext("dir", dir)
	}
	return &Manager{
		dir:   dir,
		log:   slog.Default(),
		clock: time.Now,
	}, nil
}

// Start launches fn in the background and returns the new job id. The job id
// embeds the kind and a timestamp, so status files sort chronologically.
func (m *Manager) Start(ctx context.Context, kind string, fn Fn) (string, error) {
	now := m.clock()
	// The uuid suffix keeps ids unique even when two jobs of the same kind
	// start within the same second.
	jobID := fmt.Sprintf("%s_%s_%s", kind, now.Format("20060102150405"), uuid.NewString()[:8])

	initial := Status{
		JobID:     jobID,
		State:     StateProcessing,
		Progress:  0,
		Message:   fmt.Sprintf("Starting %s job...", kind),
		StartTime: now,
	}
	if err := m.save(jobID, initial); err != nil {
		return "", err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("job.panic",
					slog.String("job_id", jobID),
					slog.Any("panic", r),
				)
				m.finish(jobID, Status{
					State:   StateError,
					Message: fmt.Sprintf("job panicked: %v", r),
				})
			}
		}()

		progress := func(pct int, message string) {
			m.update(jobID, func(s *Status) {
				s.Progress = pct
				s.Message = message
			})
		}

		result, err := fn(ctx, progress)
		if err != nil {
			m.log.Warn("job.failed",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			m.finish(jobID, Status{State: StateError, Message: err.Error()})
			return
		}
		m.finish(jobID, Status{
			State:    StateCompleted,
			Progress: 100,
			Message:  "done",
			Result:   result,
		})
	}()

	return jobID, nil
}

// Status returns the current snapshot for a job id. Unknown ids report
// StateNotFound rather than failing, matching the polling contract.
func (m *Manager) Status(jobID string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load(jobID)
	if err != nil {
		if os.IsNotExist(err) {
			return Status{JobID: jobID, State: StateNotFound, Message: "no status found for this job"}
		}
		return Status{JobID: jobID, State: StateError, Message: "could not read job status: " + err.Error()}
	}
	return s
}

// Wait blocks until every job started by this manager has finished. Intended
// for shutdown paths and tests.
func (m *Manager) Wait() { m.wg.Wait() }

// CleanOld removes status files older than maxAge and returns how many were
// deleted. Unreadable files are skipped, not treated as fatal.
func (m *Manager) CleanOld(maxAge time.Duration) int {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.log.Warn("jobs.clean.read_dir", slog.String("error", err.Error()))
		return 0
	}
	removed := 0
	cutoff := m.clock().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.log.Warn("jobs.clean.remove", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	if removed > 0 {
		m.log.Info("jobs.cleaned", slog.Int("removed", removed))
	}
	return removed
}

func (m *Manager) path(jobID string) string {
	return filepath.Join(m.dir, jobID+".json")
}

func (m *Manager) save(jobID string, s Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(jobID, s)
}

func (m *Manager) saveLocked(jobID string, s Status) error {
	s.JobID = jobID
	s.Completed = s.State == StateCompleted || s.State == StateError
	data, err := json.Marshal(s)
	if err != nil {
		return errors.New(errors.CodeInternal, "marshal job status", err)
	}
	if err := os.WriteFile(m.path(jobID), data, 0o644); err != nil {
		return errors.New(errors.CodeInternal, "write job status", err).
			WithContext("job_id", jobID)
	}
	m.log.Info("job.status",
		slog.String("job_id", jobID),
		slog.String("state", string(s.State)),
		slog.Int("progress", s.Progress),
	)
	return nil
}

func (m *Manager) load(jobID string) (Status, error) {
	data, err := os.ReadFile(m.path(jobID))
	if err != nil {
		return Status{}, err
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, err
	}
	return s, nil
}

// update applies fn to the stored status under the write lock.
func (m *Manager) update(jobID string, fn func(*Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load(jobID)
	if err != nil {
		m.log.Warn("job.update.load", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return
	}
	fn(&s)
	if err := m.saveLocked(jobID, s); err != nil {
		m.log.Warn("job.update.save", slog.String("job_id", jobID), slog.String("error", err.Error()))
	}
}

// finish writes the terminal status, preserving the original start time.
func (m *Manager) finish(jobID string, terminal Status) {
	m.update(jobID, func(s *Status) {
		s.State = terminal.State
		s.Message = terminal.Message
		s.Result = terminal.Result
		if terminal.Progress > 0 {
			s.Progress = terminal.Progress
		}
	})
}
