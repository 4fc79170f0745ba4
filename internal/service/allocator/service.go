package allocator

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

const (
	operationCommit  = "commit"
	operationRelease = "release"
)

// Service распределяет вместимость ресурсов между бронированиями
// Единственная точка, через которую use case'ы занимают и освобождают единицы ресурса
type Service struct {
	catalog Catalog
	metrics Metrics
	logger  Logger
}

// NewService создает новый экземпляр аллокатора. metrics может быть nil
func NewService(catalog Catalog, m Metrics, logger Logger) *Service {
	return &Service{
		catalog: catalog,
		metrics: m,
		logger:  logger,
	}
}

// Reserve занимает quantity единиц ресурса
// Возвращает ErrCapacityExhausted, если свободных единиц недостаточно
func (s *Service) Reserve(ctx context.Context, resourceID string, quantity int) (domain.Availability, error) {
	ok, availability, err := s.catalog.TryCommit(ctx, resourceID, quantity)
	if err != nil {
		s.observe(operationCommit, outcomeOf(err), 0)
		return domain.Availability{}, err
	}
	if !ok {
		s.observe(operationCommit, metrics.OutcomeExhausted, 0)
		s.logger.Warn("Reserve: resource id=%s exhausted, requested=%d available=%d",
			resourceID, quantity, availability.Available)
		return availability, ErrCapacityExhausted
	}

	s.observe(operationCommit, metrics.OutcomeSuccess, quantity)
	s.logger.Info("Reserve: committed %d units of resource id=%s (committed=%d/%d)",
		quantity, resourceID, availability.Committed, availability.Capacity)
	return availability, nil
}

// Release возвращает units единиц, удерживаемых бронированием
// Вызывается только переходами состояния, которые сами по себе происходят не более одного раза
func (s *Service) Release(ctx context.Context, booking *domain.Booking, units int) (domain.Availability, error) {
	if units <= 0 || units > booking.Quantity {
		return domain.Availability{}, fmt.Errorf("%w: booking id=%s quantity=%d units=%d",
			ErrInvalidRelease, booking.ID, booking.Quantity, units)
	}

	availability, err := s.catalog.Release(ctx, booking.ResourceID, units)
	if err != nil {
		s.observe(operationRelease, outcomeOf(err), 0)
		s.logger.Error("Release: failed to release %d units of resource id=%s for booking id=%s: %v",
			units, booking.ResourceID, booking.ID, err)
		return domain.Availability{}, err
	}

	s.observe(operationRelease, metrics.OutcomeSuccess, units)
	s.logger.Info("Release: released %d units of resource id=%s for booking id=%s (committed=%d/%d)",
		units, booking.ResourceID, booking.ID, availability.Committed, availability.Capacity)
	return availability, nil
}

// Availability возвращает текущий снимок вместимости ресурса
func (s *Service) Availability(ctx context.Context, resourceID string) (domain.Availability, error) {
	return s.catalog.GetCapacity(ctx, resourceID)
}

func (s *Service) observe(operation, outcome string, units int) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncCapacityOperation(operation, outcome, units)
}

func outcomeOf(err error) string {
	if domain.IsNotFound(err) {
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
