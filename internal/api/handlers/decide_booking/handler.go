package decide_booking

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	decideBooking "github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingActor       = "отсутствует ID администратора"
	msgInvalidInput       = "некорректные данные решения"
	msgNotFound           = "бронирование не найдено"
	msgInvalidTransition  = "операция недопустима в текущем статусе бронирования"
	msgConflict           = "бронирование изменено параллельным запросом, повторите попытку"
)

// Handler административные решения по бронированиям
type Handler struct {
	useCase DecideBookingUseCase
	logger  Logger
}

func NewHandler(useCase DecideBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Approve POST /api/v1/admin/bookings/{bookingId}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	bookingID, actor, body, ok := h.parse(w, r, "approve", true)
	if !ok {
		return
	}

	resp, err := h.useCase.Approve(r.Context(), &decideBooking.ApproveRequest{
		BookingID: bookingID,
		By:        actor,
		Reason:    body.Reason,
	})
	h.respond(w, "approve", bookingID, resp, err)
}

// Reject POST /api/v1/admin/bookings/{bookingId}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	bookingID, actor, body, ok := h.parse(w, r, "reject", true)
	if !ok {
		return
	}

	resp, err := h.useCase.Reject(r.Context(), &decideBooking.RejectRequest{
		BookingID: bookingID,
		By:        actor,
		Reason:    body.reason(),
	})
	h.respond(w, "reject", bookingID, resp, err)
}

// Cancel POST /api/v1/admin/bookings/{bookingId}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	bookingID, actor, body, ok := h.parse(w, r, "cancel", true)
	if !ok {
		return
	}

	resp, err := h.useCase.Cancel(r.Context(), &decideBooking.CancelRequest{
		BookingID: bookingID,
		By:        actor,
		Reason:    body.reason(),
	})
	h.respond(w, "cancel", bookingID, resp, err)
}

// Delete DELETE /api/v1/admin/bookings/{bookingId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	bookingID, actor, _, ok := h.parse(w, r, "delete", false)
	if !ok {
		return
	}

	resp, err := h.useCase.Delete(r.Context(), &decideBooking.DeleteRequest{
		BookingID: bookingID,
		By:        actor,
	})
	h.respond(w, "delete", bookingID, resp, err)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request, op string, withBody bool) (string, string, DecisionRequest, bool) {
	var body DecisionRequest
	bookingID := mux.Vars(r)["bookingId"]

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("%s /admin/bookings/{id} - Missing actor", op)
		handlers.RespondUnauthorized(w, msgMissingActor)
		return "", "", body, false
	}

	// Тело необязательно: пустой approve допустим, отсутствие причины проверит use case
	if withBody && r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &body); err != nil {
			h.logger.Warn("%s /admin/bookings/{id} - Invalid request body: %v", op, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return "", "", body, false
		}
	}

	return bookingID, actor, body, true
}

func (h *Handler) respond(w http.ResponseWriter, op, bookingID string, resp *decideBooking.Response, err error) {
	if err != nil {
		switch {
		case errors.Is(err, decideBooking.ErrBookingNotFound):
			h.logger.Warn("%s /admin/bookings/{id} - Booking not found: booking_id=%s", op, bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, decideBooking.ErrInvalidTransition):
			h.logger.Warn("%s /admin/bookings/{id} - Invalid transition: booking_id=%s, error=%v", op, bookingID, err)
			handlers.RespondDomainError(w, err, msgInvalidTransition)

		case errors.Is(err, decideBooking.ErrConflict):
			h.logger.Warn("%s /admin/bookings/{id} - Conflict: booking_id=%s", op, bookingID)
			handlers.RespondDomainError(w, err, msgConflict)

		case errors.Is(err, decideBooking.ErrInvalidInput):
			h.logger.Warn("%s /admin/bookings/{id} - Invalid input: %v", op, err)
			handlers.RespondBadRequest(w, fmt.Sprintf("%s: %v", msgInvalidInput, err))

		default:
			h.logger.Error("%s /admin/bookings/{id} - Failed: booking_id=%s, error=%v", op, bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s /admin/bookings/{id} - Done: booking_id=%s, status=%s, changed=%t",
		op, bookingID, resp.Booking.Status, resp.Changed)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp))
}
