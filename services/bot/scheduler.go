package bot

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires jobs on a cron expression in a fixed location. Ticks
// that arrive while the previous run is still in flight are skipped: a
// hung fetch stalls its own cycle, never stacks a second one on top.
type Scheduler struct {
	cron    *cron.Cron
	running sync.Mutex
}

func NewScheduler(location *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger{}),
		),
	}
}

func (s *Scheduler) ScheduleDaily(spec string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		if !s.running.TryLock() {
			slog.Warn("previous run still in flight, skipping tick", "spec", spec)
			return
		}
		defer s.running.Unlock()
		job()
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"err", err}, keysAndValues...)
	slog.Error("cron: "+msg, args...)
}
