package create_booking

import (
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	catalogModels "github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
	createBooking "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ResourceID string         `json:"resourceId"`
	Quantity   int            `json:"quantity"`
	Contact    ContactRequest `json:"contact"`
}

// ContactRequest контакт клиента
type ContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	Booking      *models.BookingResponse            `json:"booking"`
	Availability catalogModels.AvailabilityResponse `json:"availability"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() *createBooking.Request {
	return &createBooking.Request{
		ResourceID: r.ResourceID,
		Quantity:   r.Quantity,
		Contact: createBooking.Contact{
			Name:  r.Contact.Name,
			Phone: r.Contact.Phone,
			Email: r.Contact.Email,
		},
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		Booking:      models.FromDomainBooking(resp.Booking),
		Availability: catalogModels.FromDomainAvailability(resp.Availability),
	}
}
