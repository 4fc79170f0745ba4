package confirm_payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

const opConfirm = "confirm_payment"

// UseCase точка входа платежного сервиса
// Оплата подтверждается асинхронно и может прийти с задержкой, поэтому повторы
// различаются: тот же paymentRef - ErrAlreadyConfirmed, иначе ErrInvalidTransition
type UseCase struct {
	bookingRepo  BookingRepository
	allocator    Allocator
	canceller    Canceller
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case. metrics может быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	allocator Allocator,
	canceller Canceller,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		allocator:    allocator,
		canceller:    canceller,
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

// ConfirmPayment переводит одобренное бронирование в confirmed
// Занятые единицы остаются за бронированием навсегда
func (uc *UseCase) ConfirmPayment(ctx context.Context, req *ConfirmRequest) (*Response, error) {
	uc.logger.Info("ConfirmPayment: booking id=%s paymentRef=%s", req.BookingID, req.PaymentRef)

	if err := validateRequest(req.BookingID, req.PaymentRef); err != nil {
		uc.logger.Warn("ConfirmPayment: validation failed: %v", err)
		return nil, err
	}
	paymentRef := strings.TrimSpace(req.PaymentRef)

	var resp *Response
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			return err
		}
		if booking.IsDeleted() {
			return bookingRepo.ErrBookingNotFound
		}

		expectedVersion := booking.Version
		if _, err := booking.ConfirmPayment(paymentRef, uc.timeProvider.Now()); err != nil {
			return err
		}

		if err := uc.bookingRepo.Update(txCtx, booking, expectedVersion); err != nil {
			return err
		}

		availability, err := uc.allocator.Availability(txCtx, booking.ResourceID)
		if err != nil {
			return err
		}

		resp = &Response{Booking: booking, Availability: availability, Changed: true}
		return nil
	})
	if err != nil {
		return nil, uc.mapError(req.BookingID, err)
	}

	if uc.metrics != nil {
		uc.metrics.IncBookingTransition(opConfirm, string(resp.Booking.Status))
	}
	uc.logger.Info("ConfirmPayment: booking id=%s confirmed with paymentRef=%s", req.BookingID, paymentRef)

	return resp, nil
}

// FailPayment отменяет одобренное бронирование после неуспешной оплаты от имени платежного сервиса
// Выполняется через Cancel, поэтому вместимость освобождается тем же путем
// Для бронирования в любом другом статусе, кроме уже отмененного, возвращает ErrInvalidTransition
func (uc *UseCase) FailPayment(ctx context.Context, req *FailRequest) (*Response, error) {
	uc.logger.Info("FailPayment: booking id=%s paymentRef=%s", req.BookingID, req.PaymentRef)

	if err := validateRequest(req.BookingID, req.PaymentRef); err != nil {
		uc.logger.Warn("FailPayment: validation failed: %v", err)
		return nil, err
	}

	reason := fmt.Sprintf("payment %s failed", strings.TrimSpace(req.PaymentRef))
	if r := strings.TrimSpace(req.Reason); r != "" {
		reason = fmt.Sprintf("%s: %s", reason, r)
	}
	reason = truncateReason(reason, domain.MaxReasonLength)

	// Неуспешная оплата возможна только для одобренного бронирования
	approved := domain.StatusApproved
	cancelled, err := uc.canceller.Cancel(ctx, &decide_booking.CancelRequest{
		BookingID:    req.BookingID,
		By:           domain.ActorPayments,
		Reason:       reason,
		OnlyIfStatus: &approved,
	})
	if err != nil {
		uc.logger.Warn("FailPayment: failed to cancel booking id=%s: %v", req.BookingID, err)
		return nil, err
	}

	return &Response{
		Booking:      cancelled.Booking,
		Availability: cancelled.Availability,
		Changed:      cancelled.Changed,
	}, nil
}

func (uc *UseCase) mapError(bookingID string, err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		uc.logger.Warn("ConfirmPayment: booking id=%s not found", bookingID)
		return ErrBookingNotFound
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		uc.logger.Warn("ConfirmPayment: booking id=%s already confirmed with the same paymentRef", bookingID)
		return ErrAlreadyConfirmed
	case errors.Is(err, domain.ErrInvalidTransition):
		uc.logger.Warn("ConfirmPayment: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, bookingRepo.ErrVersionConflict), errors.Is(err, txmanager.ErrSerializationFailure):
		uc.logger.Warn("ConfirmPayment: concurrent update of booking id=%s: %v", bookingID, err)
		return ErrConflict
	default:
		uc.logger.Error("ConfirmPayment: failed to confirm booking id=%s: %v", bookingID, err)
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
