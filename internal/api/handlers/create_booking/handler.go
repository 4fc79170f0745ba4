package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	createBooking "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные данные бронирования"
	msgUnknownResource    = "ресурс не найден или недоступен для бронирования"
	msgFullyBooked        = "недостаточно свободных мест"
	msgConflict           = "ресурс изменен параллельным запросом, повторите попытку"
)

// ValidationErrorResponse ответ с ошибками валидации по полям
type ValidationErrorResponse struct {
	handlers.ErrorResponse
	Fields createBooking.ValidationErrors `json:"fields,omitempty"`
}

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		var validationErrs createBooking.ValidationErrors
		switch {
		case errors.Is(err, createBooking.ErrCapacityExhausted):
			h.logger.Warn("POST /bookings - Fully booked: resource_id=%s, quantity=%d", req.ResourceID, req.Quantity)
			handlers.RespondDomainError(w, err, msgFullyBooked)

		case errors.Is(err, createBooking.ErrUnknownResource):
			h.logger.Warn("POST /bookings - Unknown resource: resource_id=%s", req.ResourceID)
			handlers.RespondDomainError(w, err, msgUnknownResource)

		case errors.As(err, &validationErrs):
			h.logger.Warn("POST /bookings - Validation failed: %v", err)
			handlers.RespondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				ErrorResponse: handlers.ErrorResponse{Code: handlers.CodeInvalidRequest, Message: msgInvalidInput},
				Fields:        validationErrs,
			})

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createBooking.ErrConflict):
			h.logger.Warn("POST /bookings - Conflict: resource_id=%s", req.ResourceID)
			handlers.RespondDomainError(w, err, msgConflict)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: resource_id=%s, error=%v", req.ResourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%s, resource_id=%s",
		result.Booking.ID, req.ResourceID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
