package domain

import (
	"errors"
	"fmt"
	"time"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusRejected  BookingStatus = "rejected"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// validTransitions defines the booking state machine
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusConfirmed, StatusCancelled},
	StatusRejected:  {},
	StatusConfirmed: {},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status
func (s BookingStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo returns true if a transition from this status to the target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// HoldsCapacity returns true if a booking in this status keeps a claim on its resource
func (s BookingStatus) HoldsCapacity() bool {
	return s == StatusPending || s == StatusApproved
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrInvalidRequest, s)
	}
	return status, nil
}

// ErrAlreadyConfirmed is returned when a payment confirmation is replayed for a booking
// that was already confirmed with the same payment reference
var ErrAlreadyConfirmed = fmt.Errorf("booking already confirmed: %w", ErrInvalidTransition)

// Contact is the customer contact attached to a booking
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Booking is a single customer's claim against a resource
type Booking struct {
	ID           string
	ResourceID   string
	ResourceKind ResourceKind
	Quantity     int
	Contact      Contact
	Status       BookingStatus

	DecidedBy      *string
	DecisionReason *string
	DecidedAt      *time.Time

	CancelledBy        *string
	CancellationReason *string
	CancelledAt        *time.Time

	PaymentRef  *string
	ConfirmedAt *time.Time

	DeletedAt *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransitionResult describes the effect of a transition on the booking and its resource
type TransitionResult struct {
	// Changed is false for idempotent replays that left the booking untouched
	Changed bool
	// ReleaseUnits is the number of units the caller must return to the resource
	ReleaseUnits int
}

// NewBooking creates a pending booking for an already committed quantity
func NewBooking(id string, resource *Resource, quantity int, contact Contact, now time.Time) *Booking {
	return &Booking{
		ID:           id,
		ResourceID:   resource.ID,
		ResourceKind: resource.Kind,
		Quantity:     quantity,
		Contact:      contact,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HoldsCapacity returns true while the booking keeps its units committed
func (b *Booking) HoldsCapacity() bool {
	return !b.IsDeleted() && b.Status.HoldsCapacity()
}

// IsDeleted returns true if the booking has been purged by an admin
func (b *Booking) IsDeleted() bool {
	return b.DeletedAt != nil
}

// Approve moves a pending booking to approved. Approving an approved booking is a no-op.
func (b *Booking) Approve(by string, reason *string, now time.Time) (TransitionResult, error) {
	switch b.Status {
	case StatusApproved:
		return TransitionResult{}, nil
	case StatusPending:
		b.Status = StatusApproved
		b.DecidedBy = &by
		b.DecisionReason = reason
		b.DecidedAt = &now
		b.UpdatedAt = now
		return TransitionResult{Changed: true}, nil
	default:
		return TransitionResult{}, b.transitionError("approve")
	}
}

// Reject moves a pending booking to rejected and asks the caller to release its units.
// Rejecting a rejected booking is a no-op.
func (b *Booking) Reject(by string, reason string, now time.Time) (TransitionResult, error) {
	switch b.Status {
	case StatusRejected:
		return TransitionResult{}, nil
	case StatusPending:
		b.Status = StatusRejected
		b.DecidedBy = &by
		b.DecisionReason = &reason
		b.DecidedAt = &now
		b.UpdatedAt = now
		return TransitionResult{Changed: true, ReleaseUnits: b.Quantity}, nil
	default:
		return TransitionResult{}, b.transitionError("reject")
	}
}

// Cancel moves a pending or approved booking to cancelled and asks the caller to release
// its units. Cancelling a cancelled booking is a no-op.
func (b *Booking) Cancel(by string, reason string, now time.Time) (TransitionResult, error) {
	switch b.Status {
	case StatusCancelled:
		return TransitionResult{}, nil
	case StatusPending, StatusApproved:
		b.Status = StatusCancelled
		b.CancelledBy = &by
		b.CancellationReason = &reason
		b.CancelledAt = &now
		b.UpdatedAt = now
		return TransitionResult{Changed: true, ReleaseUnits: b.Quantity}, nil
	default:
		return TransitionResult{}, b.transitionError("cancel")
	}
}

// ConfirmPayment moves an approved booking to confirmed. The units stay committed.
// Replays are rejected: ErrAlreadyConfirmed for the same payment reference,
// ErrInvalidTransition otherwise.
func (b *Booking) ConfirmPayment(paymentRef string, now time.Time) (TransitionResult, error) {
	switch b.Status {
	case StatusApproved:
		b.Status = StatusConfirmed
		b.PaymentRef = &paymentRef
		b.ConfirmedAt = &now
		b.UpdatedAt = now
		return TransitionResult{Changed: true}, nil
	case StatusConfirmed:
		if b.PaymentRef != nil && *b.PaymentRef == paymentRef {
			return TransitionResult{}, ErrAlreadyConfirmed
		}
		return TransitionResult{}, b.transitionError("confirm payment for")
	default:
		return TransitionResult{}, b.transitionError("confirm payment for")
	}
}

// Delete purges the booking. A booking that still holds capacity asks the caller to
// release it first. Confirmed bookings can not be deleted. Deleting twice is a no-op.
func (b *Booking) Delete(now time.Time) (TransitionResult, error) {
	if b.IsDeleted() {
		return TransitionResult{}, nil
	}
	if b.Status == StatusConfirmed {
		return TransitionResult{}, b.transitionError("delete")
	}

	release := 0
	if b.Status.HoldsCapacity() {
		release = b.Quantity
	}
	b.DeletedAt = &now
	b.UpdatedAt = now
	return TransitionResult{Changed: true, ReleaseUnits: release}, nil
}

func (b *Booking) transitionError(op string) error {
	return fmt.Errorf("%w: cannot %s booking %s in status %s", ErrInvalidTransition, op, b.ID, b.Status)
}

// IsInvalidTransition reports whether err is a rejected state transition
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// BookingsFilter фильтр для получения бронирований ресурса
type BookingsFilter struct {
	ResourceID string         // Обязательный параметр
	Status     *BookingStatus // Фильтр по статусу (опционально)
	Limit      int            // 0 = без ограничения
}
