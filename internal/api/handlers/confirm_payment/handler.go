package confirm_payment

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	confirmPayment "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные данные оплаты"
	msgNotFound           = "бронирование не найдено"
	msgAlreadyConfirmed   = "оплата по бронированию уже подтверждена"
	msgInvalidTransition  = "оплата недопустима в текущем статусе бронирования"
	msgConflict           = "бронирование изменено параллельным запросом, повторите попытку"
)

// Handler точка входа платежного сервиса
type Handler struct {
	useCase PaymentUseCase
	logger  Logger
}

func NewHandler(useCase PaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Confirm POST /api/v1/internal/payments/{bookingId}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["bookingId"]

	var req ConfirmPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /internal/payments/{id}/confirm - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.ConfirmPayment(r.Context(), &confirmPayment.ConfirmRequest{
		BookingID:  bookingID,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		h.respondError(w, "confirm", bookingID, err)
		return
	}

	h.logger.Info("POST /internal/payments/{id}/confirm - Payment confirmed: booking_id=%s", bookingID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp))
}

// Fail POST /api/v1/internal/payments/{bookingId}/fail
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["bookingId"]

	var req FailPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /internal/payments/{id}/fail - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.FailPayment(r.Context(), &confirmPayment.FailRequest{
		BookingID:  bookingID,
		PaymentRef: req.PaymentRef,
		Reason:     req.Reason,
	})
	if err != nil {
		h.respondError(w, "fail", bookingID, err)
		return
	}

	h.logger.Info("POST /internal/payments/{id}/fail - Booking cancelled: booking_id=%s, changed=%t", bookingID, resp.Changed)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp))
}

func (h *Handler) respondError(w http.ResponseWriter, op, bookingID string, err error) {
	switch {
	case errors.Is(err, confirmPayment.ErrAlreadyConfirmed):
		h.logger.Warn("POST /internal/payments/{id}/%s - Already confirmed: booking_id=%s", op, bookingID)
		handlers.RespondDomainError(w, err, msgAlreadyConfirmed)

	case handlers.RespondDomainError(w, err, messageFor(err)):
		h.logger.Warn("POST /internal/payments/{id}/%s - Rejected: booking_id=%s, error=%v", op, bookingID, err)

	default:
		h.logger.Error("POST /internal/payments/{id}/%s - Failed: booking_id=%s, error=%v", op, bookingID, err)
	}
}

// messageFor выбирает сообщение по виду ошибки: FailPayment возвращает ошибки отмены бронирования
func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return msgNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return msgInvalidTransition
	case errors.Is(err, domain.ErrConflict):
		return msgConflict
	default:
		return msgInvalidInput
	}
}
