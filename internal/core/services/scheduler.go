package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driving"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// taskHistoryKeep is how many results are retained per task.
const taskHistoryKeep = 100

// Scheduler manages background index rebuilds.
// It is a pure core service with no external control API.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	builder driving.BuildOrchestrator

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	kickCh  chan string
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	builder driving.BuildOrchestrator,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		builder: builder,
		active:  make(map[string]bool),
		kickCh:  make(chan string, 1),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// Kick requests an immediate run of a task, ahead of its schedule.
// Used by the checkout watcher when the working copy changes.
func (s *Scheduler) Kick(taskID string) {
	select {
	case s.kickCh <- taskID:
	default:
		// A kick is already pending; coalesce.
	}
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDIndexBuild); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDIndexBuild, "Index Build", taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now(),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Interrupt-driven cancellation is a clean shutdown, not a
			// scheduler failure.
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		case taskID := <-s.kickCh:
			s.runTaskByID(ctx, taskID)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTaskByID loads and runs one task immediately.
func (s *Scheduler) runTaskByID(ctx context.Context, taskID string) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil || task == nil || !task.Enabled {
		return
	}
	s.runTask(ctx, task)
}

// runTask executes a single task. A task already running is never
// started a second time: a build can outlast the tick interval, and a
// kick can land while a due run is in flight.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.active[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: task %s already running, skipping", task.ID)
		return
	}
	s.active[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDIndexBuild:
			result.ItemsProcessed, err = s.runIndexBuild(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, taskHistoryKeep); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runIndexBuild rebuilds all branch indexes and the manifest.
func (s *Scheduler) runIndexBuild(ctx context.Context) (int, error) {
	if s.builder == nil {
		return 0, nil
	}
	summary, err := s.builder.Build(ctx)
	if err != nil {
		return 0, err
	}
	return summary.Built(), nil
}
