package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskRunning    = errors.New("task is already running")
	ErrTaskNotRunning = errors.New("task is not running")
	ErrStopped        = errors.New("scheduler is stopped")
)

// TaskFunc is the function signature for scheduled tasks. The context is
// cancelled when the task is cancelled or the scheduler stops.
type TaskFunc func(ctx context.Context) error

// TaskConfig contains configuration for a scheduled task.
type TaskConfig struct {
	ID          string
	Name        string
	Description string
	Cron        string // "0 1 * * 0" is Sunday 01:00
	Func        TaskFunc
	RunOnStart  bool
}

// TaskInfo contains information about a scheduled task for API responses.
type TaskInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Cron        string     `json:"cron"`
	LastRun     *time.Time `json:"lastRun,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
	Running     bool       `json:"running"`
}

type taskEntry struct {
	config    TaskConfig
	job       gocron.Job
	lastRun   *time.Time
	lastError string
	running   bool
	cancel    context.CancelFunc
}

// Scheduler manages background scheduled tasks.
type Scheduler struct {
	gocron  gocron.Scheduler
	logger  zerolog.Logger
	tasks   map[string]*taskEntry
	mu      sync.RWMutex
	ctx     context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// New creates a new scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*taskEntry),
		ctx:    ctx,
		stop:   stop,
	}, nil
}

// RegisterTask registers a new scheduled task.
func (s *Scheduler) RegisterTask(config TaskConfig) error {
	if config.Func == nil {
		return fmt.Errorf("task %q has no function", config.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[config.ID]; exists {
		return fmt.Errorf("task with ID %q already registered", config.ID)
	}

	taskID := config.ID
	job, err := s.gocron.NewJob(
		gocron.CronJob(config.Cron, false),
		gocron.NewTask(func() { s.executeTask(taskID) }),
		gocron.WithName(config.Name),
		gocron.WithTags(config.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job for task %q: %w", config.ID, err)
	}

	s.tasks[config.ID] = &taskEntry{config: config, job: job}

	s.logger.Info().
		Str("id", config.ID).
		Str("name", config.Name).
		Str("cron", config.Cron).
		Bool("runOnStart", config.RunOnStart).
		Msg("Registered task")

	return nil
}

// begin marks a task as running and returns its context. It fails when the
// task is unknown, already running, or the scheduler has stopped.
func (s *Scheduler) begin(taskID string) (*taskEntry, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, nil, ErrStopped
	}
	entry, exists := s.tasks[taskID]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	if entry.running {
		return nil, nil, fmt.Errorf("%w: %q", ErrTaskRunning, taskID)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	entry.running = true
	entry.cancel = cancel
	s.wg.Add(1)
	return entry, ctx, nil
}

// executeTask runs a task and updates its state.
func (s *Scheduler) executeTask(taskID string) {
	entry, ctx, err := s.begin(taskID)
	if err != nil {
		s.logger.Debug().Err(err).Str("id", taskID).Msg("Skipping task")
		return
	}
	s.run(ctx, entry)
}

func (s *Scheduler) run(ctx context.Context, entry *taskEntry) {
	defer s.wg.Done()

	startTime := time.Now()
	s.logger.Info().
		Str("id", entry.config.ID).
		Str("name", entry.config.Name).
		Msg("Starting task")

	err := entry.config.Func(ctx)

	s.mu.Lock()
	entry.cancel()
	entry.running = false
	entry.cancel = nil
	entry.lastRun = &startTime
	entry.lastError = ""
	if err != nil {
		entry.lastError = err.Error()
	}
	s.mu.Unlock()

	duration := time.Since(startTime)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("id", entry.config.ID).
			Str("name", entry.config.Name).
			Dur("duration", duration).
			Msg("Task failed")
	} else {
		s.logger.Info().
			Str("id", entry.config.ID).
			Str("name", entry.config.Name).
			Dur("duration", duration).
			Msg("Task completed")
	}
}

// Start starts the scheduler and runs any tasks configured with RunOnStart.
func (s *Scheduler) Start() error {
	s.logger.Info().Msg("Starting scheduler")

	s.gocron.Start()

	s.mu.RLock()
	tasksToRun := make([]string, 0)
	for id, entry := range s.tasks {
		if entry.config.RunOnStart {
			tasksToRun = append(tasksToRun, id)
		}
	}
	s.mu.RUnlock()

	for _, taskID := range tasksToRun {
		go s.executeTask(taskID)
	}

	return nil
}

// Stop cancels running tasks, waits for them to return and shuts down the
// cron scheduler.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping scheduler")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	return s.gocron.Shutdown()
}

// RunNow manually triggers a task to run immediately.
func (s *Scheduler) RunNow(taskID string) error {
	entry, ctx, err := s.begin(taskID)
	if err != nil {
		return err
	}
	go s.run(ctx, entry)
	return nil
}

// Cancel cancels a running task. The task stops at its next cancellation check.
func (s *Scheduler) Cancel(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	if !entry.running || entry.cancel == nil {
		return fmt.Errorf("%w: %q", ErrTaskNotRunning, taskID)
	}

	entry.cancel()
	s.logger.Info().Str("id", taskID).Msg("Cancellation requested")
	return nil
}

// ListTasks returns information about all registered tasks, sorted by ID.
func (s *Scheduler) ListTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]TaskInfo, 0, len(s.tasks))
	for _, entry := range s.tasks {
		tasks = append(tasks, entry.info())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// GetTask returns information about a specific task.
func (s *Scheduler) GetTask(taskID string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}

	info := entry.info()
	return &info, nil
}

func (e *taskEntry) info() TaskInfo {
	info := TaskInfo{
		ID:          e.config.ID,
		Name:        e.config.Name,
		Description: e.config.Description,
		Cron:        e.config.Cron,
		LastRun:     e.lastRun,
		LastError:   e.lastError,
		Running:     e.running,
	}
	if nextRun, err := e.job.NextRun(); err == nil && !nextRun.IsZero() {
		info.NextRun = &nextRun
	}
	return info
}
