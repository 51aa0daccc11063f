package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

var (
	// ErrRunInProgress is returned when a forecast run is already executing.
	ErrRunInProgress = errors.New("forecast run already in progress")
	// ErrStopped is returned once the scheduler has been stopped.
	ErrStopped = errors.New("scheduler stopped")
)

// Job is the work a scheduled forecast run performs. It returns the number of
// merchants whose run failed.
type Job func(ctx context.Context) (int, error)

// Scheduler runs forecast jobs on a cron schedule. At most one run executes at a
// time, whether started by cron, on start-up or manually.
type Scheduler struct {
	Cron *cron.Cron
	Job  Job
	Ctx  context.Context

	mu      sync.Mutex
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, job Job) *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Job:  job,
		Ctx:  ctx,
	}
}

// Register adds the forecast job under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.forecastTask); err != nil {
		return fmt.Errorf("register forecast task: %w", err)
	}
	log.Printf("[INFO] forecast task scheduled: %s", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for any running job to finish,
// including runs started with RunNow or Trigger.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the forecast task immediately (RUN_ON_START).
// It reports false when a run is already in progress or the scheduler is stopped.
func (s *Scheduler) RunNow() bool {
	_, err := s.Trigger()
	return !errors.Is(err, ErrRunInProgress) && !errors.Is(err, ErrStopped)
}

// Trigger runs the forecast task now and returns the number of failed merchants.
// It returns ErrRunInProgress without running when another run holds the guard.
func (s *Scheduler) Trigger() (int, error) {
	if err := s.acquire(); err != nil {
		return 0, err
	}
	defer s.release()

	log.Println("[INFO] running forecast task")
	failed, err := s.Job(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] forecast task: %v", err)
		return failed, err
	}
	if failed > 0 {
		log.Printf("[WARN] forecast task finished with %d failed merchants", failed)
	} else {
		log.Println("[INFO] forecast task finished")
	}
	return failed, nil
}

func (s *Scheduler) forecastTask() {
	if _, err := s.Trigger(); errors.Is(err, ErrRunInProgress) {
		log.Println("[WARN] forecast task still running, skipping")
	}
}

func (s *Scheduler) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return ErrRunInProgress
	}
	s.running = true
	s.wg.Add(1)
	return nil
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.wg.Done()
}
