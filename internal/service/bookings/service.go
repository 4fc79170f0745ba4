package bookings

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

// Service проекции бронирований для чтения
// Никогда не изменяет состояние бронирований и вместимость ресурсов
type Service struct {
	bookingRepo BookingRepository
	resources   ResourceGetter
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	resources ResourceGetter,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		resources:   resources,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
// Удаленные бронирования не видны
func (s *Service) GetByID(ctx context.Context, id string) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s", id)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %w", ErrInternal, err)
	}

	if booking.IsDeleted() {
		s.logger.Warn("GetByID: booking id=%s is deleted", id)
		return nil, ErrBookingNotFound
	}

	return models.FromDomainBooking(booking), nil
}

// ListByResource получает бронирования ресурса
// Опционально фильтрует по статусу
func (s *Service) ListByResource(ctx context.Context, req *models.ListResourceBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListByResource: fetching bookings for resource=%s, status=%v", req.ResourceID, req.Status)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListByResource: invalid filter for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Неизвестный ресурс - 404, а не пустой список
	if _, err := s.resources.Get(ctx, req.ResourceID); err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListByResource(ctx, filter)
	if err != nil {
		s.logger.Error("ListByResource: repository error for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: ListByResource - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("ListByResource: successfully fetched %d bookings for resource=%s", len(bookings), req.ResourceID)
	return models.FromDomainBookingList(bookings), nil
}
