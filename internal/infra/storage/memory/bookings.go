package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
)

// BookingRepository in-memory реализация репозитория бронирований
// Возвращает те же ошибки, что и booking.Repository
type BookingRepository struct {
	store *Store
}

// Create создает новое бронирование
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	s := r.store
	defer s.lock(ctx)()

	if _, ok := s.bookings[b.ID]; ok {
		return nil, fmt.Errorf("%w: Create - duplicate id %s", booking.ErrExecQuery, b.ID)
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	b.Version = 1
	s.putBooking(ctx, *b)

	return b, nil
}

// GetByID получает бронирование по ID, включая удаленные
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s := r.store
	defer s.lock(ctx)()

	b, ok := s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return &b, nil
}

// ListByResource получает бронирования ресурса (без удаленных) в порядке создания
func (r *BookingRepository) ListByResource(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	s := r.store
	defer s.lock(ctx)()

	result := s.filter(func(b *domain.Booking) bool {
		if b.ResourceID != filter.ResourceID || b.IsDeleted() {
			return false
		}
		return filter.Status == nil || b.Status == *filter.Status
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// ListPendingCreatedBefore получает ожидающие решения бронирования, созданные раньше before
func (r *BookingRepository) ListPendingCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error) {
	s := r.store
	defer s.lock(ctx)()

	result := s.filter(func(b *domain.Booking) bool {
		return b.Status == domain.StatusPending && !b.IsDeleted() && b.CreatedAt.Before(before)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountHolding считает бронирования ресурса, удерживающие вместимость
func (r *BookingRepository) CountHolding(ctx context.Context, resourceID string) (int, error) {
	s := r.store
	defer s.lock(ctx)()

	count := 0
	for _, b := range s.bookings {
		if b.ResourceID == resourceID && b.HoldsCapacity() {
			count++
		}
	}
	return count, nil
}

// Update сохраняет изменения бронирования, если его версия не изменилась с момента чтения
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking, expectedVersion int64) error {
	s := r.store
	defer s.lock(ctx)()

	current, ok := s.bookings[b.ID]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if current.Version != expectedVersion {
		return booking.ErrVersionConflict
	}

	b.Version = expectedVersion + 1
	s.putBooking(ctx, *b)

	return nil
}

// filter возвращает копии бронирований, удовлетворяющих условию, отсортированные по дате создания
// Вызывается под блокировкой хранилища
func (s *Store) filter(match func(b *domain.Booking) bool) []*domain.Booking {
	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		b := b
		if match(&b) {
			result = append(result, &b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
