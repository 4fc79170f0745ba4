package models

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модели

// ListResourceBookingsRequest запрос на получение бронирований ресурса
type ListResourceBookingsRequest struct {
	ResourceID string  `json:"resourceId"`
	Status     *string `json:"status,omitempty"` // Фильтр по статусу (опционально)
	Limit      int     `json:"limit,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListResourceBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		ResourceID: r.ResourceID,
		Limit:      r.Limit,
	}

	if r.Status != nil {
		status, err := domain.ParseBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// ContactResponse контакт клиента
type ContactResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID           string          `json:"id"`
	ResourceID   string          `json:"resourceId"`
	ResourceKind string          `json:"resourceKind"`
	Quantity     int             `json:"quantity"`
	Contact      ContactResponse `json:"contact"`
	Status       string          `json:"status"`

	DecidedBy      *string    `json:"decidedBy,omitempty"`
	DecisionReason *string    `json:"decisionReason,omitempty"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`

	CancelledBy        *string    `json:"cancelledBy,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`

	PaymentRef  *string    `json:"paymentRef,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	return &BookingResponse{
		ID:           b.ID,
		ResourceID:   b.ResourceID,
		ResourceKind: string(b.ResourceKind),
		Quantity:     b.Quantity,
		Contact: ContactResponse{
			Name:  b.Contact.Name,
			Phone: b.Contact.Phone,
			Email: b.Contact.Email,
		},
		Status:             string(b.Status),
		DecidedBy:          b.DecidedBy,
		DecisionReason:     b.DecisionReason,
		DecidedAt:          b.DecidedAt,
		CancelledBy:        b.CancelledBy,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		PaymentRef:         b.PaymentRef,
		ConfirmedAt:        b.ConfirmedAt,
		DeletedAt:          b.DeletedAt,
		Version:            b.Version,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
