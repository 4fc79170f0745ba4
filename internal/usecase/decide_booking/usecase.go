package decide_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

const (
	opApprove = "approve"
	opReject  = "reject"
	opCancel  = "cancel"
	opDelete  = "delete"
)

// transition применяет переход к заблокированному бронированию
type transition func(b *domain.Booking, now time.Time) (domain.TransitionResult, error)

// UseCase административные решения по бронированиям: approve, reject, cancel, delete
// Каждое решение выполняется в одной транзакции: блокировка строки бронирования,
// переход состояния, освобождение вместимости (если требуется), сохранение с проверкой версии
type UseCase struct {
	bookingRepo  BookingRepository
	allocator    Allocator
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case. metrics может быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	allocator Allocator,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		allocator:    allocator,
		txManager:    txManager,
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

// Approve подтверждает заявку: pending -> approved. Повтор на approved - успешный no-op
func (uc *UseCase) Approve(ctx context.Context, req *ApproveRequest) (*Response, error) {
	uc.logger.Info("Approve: booking id=%s by=%s", req.BookingID, req.By)

	if err := validateBookingID(req.BookingID); err != nil {
		return nil, err
	}
	if err := validateActor(req.By); err != nil {
		return nil, err
	}

	var reason *string
	if req.Reason != nil {
		if err := validateReason(*req.Reason, false); err != nil {
			return nil, err
		}
		if trimmed := strings.TrimSpace(*req.Reason); trimmed != "" {
			reason = &trimmed
		}
	}

	by := strings.TrimSpace(req.By)
	return uc.decide(ctx, opApprove, req.BookingID, func(b *domain.Booking, now time.Time) (domain.TransitionResult, error) {
		return b.Approve(by, reason, now)
	})
}

// Reject отклоняет заявку: pending -> rejected, вместимость освобождается
func (uc *UseCase) Reject(ctx context.Context, req *RejectRequest) (*Response, error) {
	uc.logger.Info("Reject: booking id=%s by=%s", req.BookingID, req.By)

	if err := validateBookingID(req.BookingID); err != nil {
		return nil, err
	}
	if err := validateActor(req.By); err != nil {
		return nil, err
	}
	if err := validateReason(req.Reason, true); err != nil {
		return nil, err
	}

	by, reason := strings.TrimSpace(req.By), strings.TrimSpace(req.Reason)
	return uc.decide(ctx, opReject, req.BookingID, func(b *domain.Booking, now time.Time) (domain.TransitionResult, error) {
		return b.Reject(by, reason, now)
	})
}

// Cancel отменяет бронирование: pending/approved -> cancelled, вместимость освобождается
func (uc *UseCase) Cancel(ctx context.Context, req *CancelRequest) (*Response, error) {
	uc.logger.Info("Cancel: booking id=%s by=%s", req.BookingID, req.By)

	if err := validateBookingID(req.BookingID); err != nil {
		return nil, err
	}
	if err := validateActor(req.By); err != nil {
		return nil, err
	}
	if err := validateReason(req.Reason, true); err != nil {
		return nil, err
	}
	if req.OnlyIfStatus != nil && !req.OnlyIfStatus.CanTransitionTo(domain.StatusCancelled) {
		return nil, fmt.Errorf("%w: status %s can not be cancelled", ErrInvalidInput, *req.OnlyIfStatus)
	}

	by, reason := strings.TrimSpace(req.By), strings.TrimSpace(req.Reason)
	return uc.decide(ctx, opCancel, req.BookingID, func(b *domain.Booking, now time.Time) (domain.TransitionResult, error) {
		// Уже отмененное бронирование - идемпотентный повтор, статус не сверяем
		if req.OnlyIfStatus != nil && b.Status != *req.OnlyIfStatus && b.Status != domain.StatusCancelled {
			return domain.TransitionResult{}, fmt.Errorf("%w: booking %s is %s, expected %s",
				ErrStatusMismatch, b.ID, b.Status, *req.OnlyIfStatus)
		}
		return b.Cancel(by, reason, now)
	})
}

// Delete удаляет бронирование (tombstone). Если оно удерживало вместимость - освобождает ее
// Подтвержденные оплатой бронирования удалить нельзя
func (uc *UseCase) Delete(ctx context.Context, req *DeleteRequest) (*Response, error) {
	uc.logger.Info("Delete: booking id=%s by=%s", req.BookingID, req.By)

	if err := validateBookingID(req.BookingID); err != nil {
		return nil, err
	}
	if err := validateActor(req.By); err != nil {
		return nil, err
	}

	return uc.decide(ctx, opDelete, req.BookingID, func(b *domain.Booking, now time.Time) (domain.TransitionResult, error) {
		return b.Delete(now)
	})
}

func (uc *UseCase) decide(ctx context.Context, op, bookingID string, apply transition) (*Response, error) {
	var resp *Response

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Блокируем бронирование (FOR UPDATE внутри транзакции)
		booking, err := uc.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}

		// Удаленное бронирование видно только повторному delete
		if booking.IsDeleted() && op != opDelete {
			return bookingRepo.ErrBookingNotFound
		}

		// 2. Переход состояния
		expectedVersion := booking.Version
		result, err := apply(booking, uc.timeProvider.Now())
		if err != nil {
			return err
		}

		if !result.Changed {
			availability, err := uc.allocator.Availability(txCtx, booking.ResourceID)
			if err != nil {
				return err
			}
			resp = &Response{Booking: booking, Availability: availability}
			return nil
		}

		// 3. Сохраняем с проверкой версии, проигравший гонку запрос получит ErrVersionConflict
		if err := uc.bookingRepo.Update(txCtx, booking, expectedVersion); err != nil {
			return err
		}

		// 4. Освобождаем вместимость ровно один раз - в той же транзакции, что и переход
		var availability domain.Availability
		if result.ReleaseUnits > 0 {
			availability, err = uc.allocator.Release(txCtx, booking, result.ReleaseUnits)
		} else {
			availability, err = uc.allocator.Availability(txCtx, booking.ResourceID)
		}
		if err != nil {
			return err
		}

		resp = &Response{Booking: booking, Availability: availability, Changed: true}
		return nil
	})
	if err != nil {
		return nil, uc.mapError(op, bookingID, err)
	}

	if resp.Changed {
		if uc.metrics != nil {
			uc.metrics.IncBookingTransition(op, string(resp.Booking.Status))
		}
		uc.logger.Info("%s: booking id=%s is now %s (resource=%s, available=%d/%d)",
			op, bookingID, resp.Booking.Status, resp.Booking.ResourceID,
			resp.Availability.Available, resp.Availability.Capacity)
	} else {
		uc.logger.Info("%s: booking id=%s already %s, nothing to do", op, bookingID, resp.Booking.Status)
	}

	return resp, nil
}

func (uc *UseCase) mapError(op, bookingID string, err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		uc.logger.Warn("%s: booking id=%s not found", op, bookingID)
		return ErrBookingNotFound
	case errors.Is(err, ErrStatusMismatch):
		uc.logger.Warn("%s: %v", op, err)
		return err
	case errors.Is(err, domain.ErrInvalidTransition):
		uc.logger.Warn("%s: %v", op, err)
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, bookingRepo.ErrVersionConflict), errors.Is(err, txmanager.ErrSerializationFailure):
		uc.logger.Warn("%s: concurrent update of booking id=%s: %v", op, bookingID, err)
		return ErrConflict
	default:
		uc.logger.Error("%s: failed to decide booking id=%s: %v", op, bookingID, err)
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
