package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/biz/usecase"
	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
)

// Status describes the last finished run
type Status struct {
	LastRunAt  time.Time
	LastReport *domain.RunReport
	LastError  error
}

// ResendService runs the resend engine once or on a fixed interval
type ResendService struct {
	resendUC    *usecase.ResendUsecase
	channelRepo repo.ChannelRepo
	reportRepo  repo.ReportRepo // optional
	metrics     *Metrics        // optional
	log         *logrus.Entry

	runMu sync.Mutex // runs never overlap

	statusMu sync.RWMutex
	status   Status

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewResendService creates a new resend service
func NewResendService(
	resendUC *usecase.ResendUsecase,
	channelRepo repo.ChannelRepo,
	reportRepo repo.ReportRepo,
	metrics *Metrics,
	logger logging.Logger,
) *ResendService {
	s := &ResendService{
		resendUC:    resendUC,
		channelRepo: channelRepo,
		reportRepo:  reportRepo,
		metrics:     metrics,
		log:         logging.Component(logger, "service"),
	}
	resendUC.SetObserver(func(outcome domain.UnitOutcome, _ *domain.MessageUnit) {
		s.metrics.ObserveUnit(outcome)
	})
	return s
}

// RunOnce connects to Telegram and performs one resend pass
func (s *ResendService) RunOnce(ctx context.Context) (*domain.RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	var report *domain.RunReport
	err := s.channelRepo.Run(ctx, func(ctx context.Context) error {
		var runErr error
		report, runErr = s.resendUC.Run(ctx)
		return runErr
	})
	if report == nil {
		// Connection failed before the engine started
		report = &domain.RunReport{StartedAt: start, Duration: time.Since(start)}
	}

	s.metrics.ObserveRun(report, err)
	s.setStatus(report, err)

	log := s.log.WithFields(logging.Fields{
		"fetched":   report.Fetched,
		"forwarded": report.Forwarded,
		"filtered":  report.Filtered,
		"skipped":   report.Skipped,
		"watermark": report.EndWatermark,
		"duration":  report.Duration.Round(time.Millisecond),
	})
	switch {
	case err != nil:
		log.WithError(err).Error("Resend run failed")
	case report.Held():
		log.WithField("held_at", report.HeldAt).Warn("Resend run stopped at a held message")
	default:
		log.Info("Resend run finished")
	}

	s.dispatchReport(ctx, report, err)
	return report, err
}

// dispatchReport notifies operators about runs that changed something or need attention
func (s *ResendService) dispatchReport(ctx context.Context, report *domain.RunReport, runErr error) {
	if s.reportRepo == nil || !worthReporting(report, runErr) {
		return
	}
	// Deliver even when the run was cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	if err := s.reportRepo.SendReport(ctx, report, runErr); err != nil {
		s.log.WithError(err).Warn("Failed to deliver run report")
	}
}

func worthReporting(report *domain.RunReport, runErr error) bool {
	return runErr != nil || report.Held() || report.Forwarded > 0 || report.Filtered > 0
}

// Start polls every interval until Stop is called or ctx ends
func (s *ResendService) Start(ctx context.Context, interval time.Duration) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop(ctx, interval)

	s.log.WithField("interval", interval).Info("Poll loop started")
}

// Stop stops the poll loop and waits for the current run to end
func (s *ResendService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("Poll loop stopped")
}

func (s *ResendService) loop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	// Initial run
	_, _ = s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Errors are logged and reported by RunOnce; the next tick retries
			_, _ = s.RunOnce(ctx)
		}
	}
}

func (s *ResendService) setStatus(report *domain.RunReport, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = Status{LastRunAt: time.Now(), LastReport: report, LastError: err}
}

// Status returns the outcome of the last finished run
func (s *ResendService) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}
