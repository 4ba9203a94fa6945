package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ============================================================
// Background jobs: uncollected hold expiry
// ============================================================

// HoldExpirer is the queue operation the scheduler drives
type HoldExpirer interface {
	ExpireHolds(ctx context.Context) (int, error)
}

// CronService schedules hold expiry outside request handling
type CronService struct {
	cron    *cron.Cron
	expirer HoldExpirer
	spec    string
	timeout time.Duration
}

// NewCronService creates a scheduler for the given cron spec
func NewCronService(expirer HoldExpirer, spec string) *CronService {
	return &CronService{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		expirer: expirer,
		spec:    spec,
		timeout: 2 * time.Minute,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.ExpireHolds); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 CronService started [hold expiry: %s]", s.spec)
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// ExpireHolds runs one expiry pass
func (s *CronService) ExpireHolds() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireHolds(ctx)
	if err != nil {
		log.Printf("❌ Hold expiry failed after %d expirations: %v", n, err)
	}
}
