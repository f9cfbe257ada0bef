package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"docbridge/internal/gateway/service"
)

// Scheduler runs the gateway's periodic maintenance: expired download grants
// are purged hourly so the history tables stay honest about what is still
// redeemable.
type Scheduler struct {
	cron  *cron.Cron
	files *service.FileService
	log   zerolog.Logger
}

func NewScheduler(files *service.FileService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		files: files,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.purgeGrants); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs, but not past the deadline.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeGrants() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.files.PurgeExpiredGrants(ctx)
}
