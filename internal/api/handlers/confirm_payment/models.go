package confirm_payment

import (
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	catalogModels "github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
	confirmPayment "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
)

// ConfirmPaymentRequest тело запроса подтверждения оплаты
type ConfirmPaymentRequest struct {
	PaymentRef string `json:"paymentRef"`
}

// FailPaymentRequest тело запроса неуспешной оплаты
type FailPaymentRequest struct {
	PaymentRef string `json:"paymentRef"`
	Reason     string `json:"reason,omitempty"`
}

// PaymentResponse результат обработки оплаты
type PaymentResponse struct {
	Booking      *models.BookingResponse            `json:"booking"`
	Availability catalogModels.AvailabilityResponse `json:"availability"`
	Changed      bool                               `json:"changed"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *confirmPayment.Response) *PaymentResponse {
	return &PaymentResponse{
		Booking:      models.FromDomainBooking(resp.Booking),
		Availability: catalogModels.FromDomainAvailability(resp.Availability),
		Changed:      resp.Changed,
	}
}
