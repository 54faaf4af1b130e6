// Package jobs schedules the sync cycles and digest composition.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrAlreadyRunning is returned by RunNow when the named job has a run
// in flight, scheduled or manual.
var ErrAlreadyRunning = errors.New("job already running")

// Task is one scheduled unit of work. The context is live for the whole
// run; shutdown waits for in-flight tasks instead of cancelling them, so
// a sync cycle always finishes (or fails) cleanly without a mid-batch
// abort.
type Task func(ctx context.Context) error

type jobEntry struct {
	name     string
	expr     string
	task     Task
	schedule cron.Schedule

	// One guard for scheduled and manual runs: gocron's singleton mode
	// only covers its own ticks, a RunNow must not overlap either path.
	running sync.Mutex
}

// Scheduler runs named cron jobs. Each job is a singleton: a tick that
// fires while the previous run of the same job is still going is
// rescheduled, never overlapped. Jobs for different sources run
// independently.
type Scheduler struct {
	scheduler  gocron.Scheduler
	instanceID string

	mu      sync.Mutex
	entries map[string]*jobEntry
	running bool
}

// NewScheduler creates a new job scheduler
func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler:  scheduler,
		instanceID: uuid.New().String(),
		entries:    make(map[string]*jobEntry),
	}, nil
}

// Register adds a cron job. The expression is validated up front with the
// standard 5-field parser so a bad cadence fails at startup, not at the
// first tick.
func (s *Scheduler) Register(name, expr string, task Task) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for job %s: %w", expr, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{name: name, expr: expr, task: task, schedule: schedule}

	_, err = s.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			s.runTask(entry)
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	s.entries[name] = entry
	log.Printf("✅ [SCHEDULER] Registered job: %s (%s)", name, expr)
	return nil
}

// Start begins running all registered jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	s.scheduler.Start()
	log.Printf("🚀 [SCHEDULER] Started with %d jobs (instance %s)", len(s.entries), s.instanceID)
}

// Shutdown stops accepting ticks and waits for in-flight runs to finish.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	log.Println("🛑 [SCHEDULER] Stopping job scheduler...")
	err := s.scheduler.Shutdown()
	log.Println("✅ [SCHEDULER] Job scheduler stopped")
	return err
}

// RunNow immediately runs a specific job, outside its cadence. A job
// with a run already in flight returns ErrAlreadyRunning rather than
// overlapping it.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	entry, exists := s.entries[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	if !entry.running.TryLock() {
		return fmt.Errorf("job %s: %w", name, ErrAlreadyRunning)
	}
	defer entry.running.Unlock()

	log.Printf("🚀 [SCHEDULER] Running job '%s' immediately", name)
	return entry.task(ctx)
}

func (s *Scheduler) runTask(entry *jobEntry) {
	if !entry.running.TryLock() {
		log.Printf("⏭️  [SCHEDULER] Job '%s' still running, skipping tick", entry.name)
		return
	}
	defer entry.running.Unlock()

	log.Printf("▶️  [SCHEDULER] Running job: %s", entry.name)
	startTime := time.Now()

	if err := entry.task(context.Background()); err != nil {
		log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", entry.name, err)
	} else {
		log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", entry.name, time.Since(startTime))
	}
}

// JobStatus represents the status of a job
type JobStatus struct {
	Name    string    `json:"name"`
	Cron    string    `json:"cron"`
	NextRun time.Time `json:"next_run"`
}

// Status returns the status of all jobs, sorted by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := make([]JobStatus, 0, len(s.entries))
	for _, entry := range s.entries {
		status = append(status, JobStatus{
			Name:    entry.name,
			Cron:    entry.expr,
			NextRun: entry.schedule.Next(time.Now()),
		})
	}
	sort.Slice(status, func(i, j int) bool { return status[i].Name < status[j].Name })
	return status
}
