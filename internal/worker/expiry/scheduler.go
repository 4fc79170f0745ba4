package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
)

const defaultBatchSize = 100

// PendingLister источник просроченных заявок
type PendingLister interface {
	ListPendingCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error)
}

// Canceller отмена бронирования через административный шлюз
type Canceller interface {
	Cancel(ctx context.Context, req *decide_booking.CancelRequest) (*decide_booking.Response, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

// Config параметры воркера
type Config struct {
	PendingTTL time.Duration
	Interval   time.Duration
	BatchSize  int
}

// Scheduler периодически отменяет заявки, которые слишком долго ждут решения администратора
// Отменяются только бронирования, которые под блокировкой все еще pending: одобренные после
// выборки пропускаются
type Scheduler struct {
	lister       PendingLister
	canceller    Canceller
	cfg          Config
	timeProvider TimeProvider
	logger       Logger
}

// New создает воркер
func New(lister PendingLister, canceller Canceller, cfg Config, logger Logger) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Scheduler{
		lister:       lister,
		canceller:    canceller,
		cfg:          cfg,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Scheduler) WithTimeProvider(tp TimeProvider) *Scheduler {
	s.timeProvider = tp
	return s
}

// Start блокирует до отмены контекста
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.PendingTTL <= 0 || s.cfg.Interval <= 0 {
		s.logger.Info("expiry scheduler disabled")
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("expiry scheduler started: ttl=%s interval=%s", s.cfg.PendingTTL, s.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Error("expiry scheduler: %v", err)
			}
		}
	}
}

// Tick отменяет одну пачку просроченных заявок и возвращает число отмененных
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	before := s.timeProvider.Now().Add(-s.cfg.PendingTTL)

	stale, err := s.lister.ListPendingCreatedBefore(ctx, before, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending bookings: %w", err)
	}

	pending := domain.StatusPending
	cancelled := 0
	for _, b := range stale {
		resp, err := s.canceller.Cancel(ctx, &decide_booking.CancelRequest{
			BookingID:    b.ID,
			By:           domain.ActorExpiry,
			Reason:       fmt.Sprintf("not decided within %s", s.cfg.PendingTTL),
			OnlyIfStatus: &pending,
		})
		switch {
		case err == nil:
			if resp.Changed {
				cancelled++
				s.logger.Info("booking expired: id=%s resource=%s quantity=%d", b.ID, b.ResourceID, b.Quantity)
			}
		case errors.Is(err, domain.ErrInvalidTransition),
			errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrConflict):
			// Админ успел принять решение или бронирование удалено после выборки
			s.logger.Warn("expiry: booking id=%s skipped: %v", b.ID, err)
		default:
			return cancelled, fmt.Errorf("failed to cancel booking id=%s: %w", b.ID, err)
		}
	}

	return cancelled, nil
}
