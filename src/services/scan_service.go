package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/providers"
)

// ScanConfig carries the scheduler settings.
type ScanConfig struct {
	Interval     time.Duration // how often the worker loop wakes up
	RetryBackoff time.Duration // base delay before retrying a failed scan
	MaxAttempts  int           // bounded retries per scan
	Workers      int           // parallel scans; never two for the same user
	BatchSize    int           // due scans claimed per tick
}

// DefaultScanBatchSize bounds how much work one tick picks up.
const DefaultScanBatchSize = 50

// ScanService owns the scan lifecycle: it enqueues periodic scans,
// claims due ones, runs detection plus enrichment and applies the
// bounded retry policy.
type ScanService struct {
	scans      ScanStore
	detection  DetectionService
	enrichment EnrichmentService
	cfg        ScanConfig
}

func NewScanService(scans ScanStore, detection DetectionService, enrichment EnrichmentService, cfg ScanConfig) *ScanService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultScanBatchSize
	}
	return &ScanService{scans: scans, detection: detection, enrichment: enrichment, cfg: cfg}
}

// TriggerScan enqueues a scan for the user right away. If one is
// already scheduled or running, that scan is returned instead; a user
// never has two scans in flight.
func (s *ScanService) TriggerScan(userID int64) (*model.Scan, error) {
	return s.scans.Enqueue(userID, time.Now())
}

// ScanStatus returns the scan with the given id.
func (s *ScanService) ScanStatus(id string) (*model.Scan, error) {
	return s.scans.ByID(id)
}

// Start runs the worker loop until the context is cancelled.
func (s *ScanService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		logger.L.Info("Scan worker started", "interval", s.cfg.Interval.String(), "workers", s.cfg.Workers)
		for {
			select {
			case <-ctx.Done():
				logger.L.Info("Scan worker stopping")
				return
			case <-ticker.C:
				s.enqueueAllUsers()
				s.Tick(ctx)
			}
		}
	}()
}

// enqueueAllUsers schedules a scan for every user without a pending
// one. Enqueue itself skips users with a scheduled or running scan.
func (s *ScanService) enqueueAllUsers() {
	userIDs, err := s.scans.AllUserIDs()
	if err != nil {
		logger.L.Error("Failed to list users for scheduling", "error", err)
		return
	}
	now := time.Now()
	for _, userID := range userIDs {
		if _, err := s.scans.Enqueue(userID, now); err != nil {
			logger.L.Error("Failed to enqueue scan", "userID", userID, "error", err)
		}
	}
}

// Tick claims and runs all currently due scans with a bounded worker
// pool. The claim is a guarded status transition, so even overlapping
// ticks cannot run the same scan twice.
func (s *ScanService) Tick(ctx context.Context) {
	due, err := s.scans.Due(time.Now(), s.cfg.BatchSize)
	if err != nil {
		logger.L.Error("Failed to load due scans", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	jobs := make(chan model.Scan)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for scan := range jobs {
				s.runScan(ctx, &scan)
			}
		}()
	}
	for _, scan := range due {
		jobs <- scan
	}
	close(jobs)
	wg.Wait()
}

// runScan executes one scan end to end: claim, detect, enrich, finish.
func (s *ScanService) runScan(ctx context.Context, scan *model.Scan) {
	if err := s.scans.Claim(scan); err != nil {
		if !errors.Is(err, model.ErrScanNotClaimable) {
			logger.L.Error("Failed to claim scan", "scanID", scan.ID, "error", err)
		}
		return
	}
	log := logger.L.With("scanID", scan.ID, "userID", scan.UserID, "attempt", scan.Attempts)
	log.Info("Scan started")

	if _, err := s.detection.RunDetection(ctx, scan.UserID); err != nil {
		s.failScan(scan, err, log)
		return
	}

	if _, err := s.enrichment.RunEnrichment(ctx, scan.UserID); err != nil {
		s.failScan(scan, err, log)
		return
	}

	if err := s.scans.Complete(scan); err != nil {
		log.Error("Failed to mark scan completed", "error", err)
		return
	}
	log.Info("Scan completed")
}

// failScan marks the scan failed with an actionable reason and, while
// the attempt cap allows, reschedules it with a growing backoff.
func (s *ScanService) failScan(scan *model.Scan, cause error, log *slog.Logger) {
	reason := failureReason(cause)
	if err := s.scans.Fail(scan, reason); err != nil {
		log.Error("Failed to mark scan failed", "error", err)
		return
	}
	log.Info("Scan failed", "reason", reason)

	if scan.Attempts >= s.cfg.MaxAttempts {
		log.Error("Scan retry cap reached, giving up", "attempts", scan.Attempts)
		return
	}

	delay := time.Duration(scan.Attempts) * s.cfg.RetryBackoff
	if err := s.scans.Reschedule(scan, time.Now().Add(delay)); err != nil {
		log.Error("Failed to reschedule scan", "error", err)
	}
}

// failureReason translates an error into something a user can act on.
func failureReason(err error) string {
	var insufficient *InsufficientDataError
	switch {
	case errors.Is(err, providers.ErrNoActiveConnection):
		return "no active bank connection - reconnect your bank"
	case errors.Is(err, providers.ErrExpiredCredentials):
		return "bank credentials expired - reconnect your bank"
	case errors.Is(err, providers.ErrProviderUnavailable):
		return "bank data provider error - will retry"
	case errors.As(err, &insufficient):
		return insufficient.Error()
	default:
		return "scan failed: " + err.Error()
	}
}
