package decide_booking

import (
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	catalogModels "github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
	decideBooking "github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
)

// DecisionRequest тело запроса approve / reject / cancel
type DecisionRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// DecisionResponse результат решения
type DecisionResponse struct {
	Booking      *models.BookingResponse            `json:"booking"`
	Availability catalogModels.AvailabilityResponse `json:"availability"`
	Changed      bool                               `json:"changed"`
}

func (r DecisionRequest) reason() string {
	if r.Reason == nil {
		return ""
	}
	return *r.Reason
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *decideBooking.Response) *DecisionResponse {
	return &DecisionResponse{
		Booking:      models.FromDomainBooking(resp.Booking),
		Availability: catalogModels.FromDomainAvailability(resp.Availability),
		Changed:      resp.Changed,
	}
}
