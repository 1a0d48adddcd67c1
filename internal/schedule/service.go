// Package schedule runs named background jobs on cron patterns.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run. ctx is cancelled when the service stops.
type Job func(ctx context.Context) error

type Service struct {
	cron   *cron.Cron
	parser cron.Parser
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func NewService(log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:   cron.New(cron.WithParser(parser)),
		parser: parser,
		logger: log.With(slog.String("service", "schedule")),
		ctx:    ctx,
		cancel: cancel,
		jobs:   map[string]cron.EntryID{},
	}
}

// Validate checks a cron pattern without scheduling anything.
func (s *Service) Validate(pattern string) error {
	if _, err := s.parser.Parse(pattern); err != nil {
		return fmt.Errorf("invalid cron pattern: %w", err)
	}
	return nil
}

// Add schedules job under name, replacing any job already registered with that name.
func (s *Service) Add(name, pattern string, job Job) error {
	if err := s.Validate(pattern); err != nil {
		return err
	}
	run := func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Error("job failed", slog.String("job", name), slog.Any("error", err))
			return
		}
		s.logger.Debug("job done", slog.String("job", name), slog.Duration("took", time.Since(start)))
	}
	entryID, err := s.cron.AddFunc(pattern, run)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.mu.Unlock()
	return nil
}

// Remove unschedules the named job.
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// Next returns the next run time of the named job. It is zero until Start.
func (s *Service) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

func (s *Service) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them until ctx is done.
func (s *Service) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
