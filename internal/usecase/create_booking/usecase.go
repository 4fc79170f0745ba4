package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/allocator"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// UseCase use case для создания бронирования
type UseCase struct {
	resources    ResourceResolver
	allocator    Allocator
	bookingRepo  BookingRepository
	txManager    TransactionManager
	validator    *requestValidator
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case. metrics может быть nil
func NewUseCase(
	resources ResourceResolver,
	allocator Allocator,
	bookingRepo BookingRepository,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		resources:    resources,
		allocator:    allocator,
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		validator:    newRequestValidator(),
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
// Резервирование вместимости и вставка бронирования выполняются в одной транзакции:
// если вставка не удалась, занятые единицы возвращаются откатом
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: resource=%s, quantity=%d", req.ResourceID, req.Quantity)

	// 1. Валидация входных данных
	if err := uc.validator.validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Разрешаем ресурс (только статическая вместимость)
	res, err := uc.resources.Get(ctx, req.ResourceID)
	if err != nil {
		if domain.IsNotFound(err) {
			uc.logger.Warn("CreateBooking: resource id=%s not found", req.ResourceID)
			return nil, fmt.Errorf("%w: %s", ErrUnknownResource, req.ResourceID)
		}
		uc.logger.Error("CreateBooking: failed to get resource id=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %w", ErrInternal, err)
	}

	// 3. Проверяем количество против вместимости
	if err := validateQuantity(req.Quantity, res); err != nil {
		uc.logger.Warn("CreateBooking: quantity validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()
	booking := domain.NewBooking(uuid.NewString(), res, req.Quantity, domain.Contact{
		Name:  req.Contact.Name,
		Phone: req.Contact.Phone,
		Email: req.Contact.Email,
	}, now)

	var availability domain.Availability

	// 4. Резервируем вместимость и сохраняем бронирование атомарно
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		reserved, err := uc.allocator.Reserve(txCtx, res.ID, req.Quantity)
		if err != nil {
			return err
		}
		availability = reserved

		if _, err := uc.bookingRepo.Create(txCtx, booking); err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, uc.mapError(req, err)
	}

	if uc.metrics != nil {
		uc.metrics.IncBookingTransition("create", string(booking.Status))
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%s (resource=%s, available=%d)",
		booking.ID, res.ID, availability.Available)

	return &Response{
		Booking:      booking,
		Availability: availability,
	}, nil
}

func (uc *UseCase) mapError(req *Request, err error) error {
	switch {
	case errors.Is(err, allocator.ErrCapacityExhausted):
		uc.logger.Warn("CreateBooking: resource id=%s fully booked for quantity=%d", req.ResourceID, req.Quantity)
		return ErrCapacityExhausted
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidRequest):
		// Ресурс удален или выведен из каталога между проверкой и резервированием
		uc.logger.Warn("CreateBooking: resource id=%s is no longer bookable: %v", req.ResourceID, err)
		return fmt.Errorf("%w: %v", ErrUnknownResource, err)
	case errors.Is(err, txmanager.ErrSerializationFailure):
		uc.logger.Warn("CreateBooking: serialization failure for resource id=%s: %v", req.ResourceID, err)
		return ErrConflict
	case errors.Is(err, ErrInternal):
		return err
	default:
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
