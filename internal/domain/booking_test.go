package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(status BookingStatus, quantity int) *Booking {
	res := &Resource{ID: "r1", Kind: KindAdventureDeparture, Capacity: 4}
	b := NewBooking("b1", res, quantity, Contact{Name: "Ann", Phone: "+79990001122", Email: "ann@example.com"},
		time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	b.Status = status
	return b
}

func TestBooking_Transitions(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	reason := "ok"

	tests := []struct {
		name        string
		from        BookingStatus
		apply       func(b *Booking) (TransitionResult, error)
		wantStatus  BookingStatus
		wantChanged bool
		wantRelease int
		wantErr     error
	}{
		{
			name:        "approve pending",
			from:        StatusPending,
			apply:       func(b *Booking) (TransitionResult, error) { return b.Approve("admin", &reason, now) },
			wantStatus:  StatusApproved,
			wantChanged: true,
		},
		{
			name:       "approve approved is no-op",
			from:       StatusApproved,
			apply:      func(b *Booking) (TransitionResult, error) { return b.Approve("admin", nil, now) },
			wantStatus: StatusApproved,
		},
		{
			name:       "approve rejected",
			from:       StatusRejected,
			apply:      func(b *Booking) (TransitionResult, error) { return b.Approve("admin", nil, now) },
			wantStatus: StatusRejected,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:        "reject pending releases",
			from:        StatusPending,
			apply:       func(b *Booking) (TransitionResult, error) { return b.Reject("admin", "full", now) },
			wantStatus:  StatusRejected,
			wantChanged: true,
			wantRelease: 2,
		},
		{
			name:       "reject approved",
			from:       StatusApproved,
			apply:      func(b *Booking) (TransitionResult, error) { return b.Reject("admin", "late", now) },
			wantStatus: StatusApproved,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:       "reject rejected is no-op",
			from:       StatusRejected,
			apply:      func(b *Booking) (TransitionResult, error) { return b.Reject("admin", "again", now) },
			wantStatus: StatusRejected,
		},
		{
			name:        "cancel pending releases",
			from:        StatusPending,
			apply:       func(b *Booking) (TransitionResult, error) { return b.Cancel("admin", "customer call", now) },
			wantStatus:  StatusCancelled,
			wantChanged: true,
			wantRelease: 2,
		},
		{
			name:        "cancel approved releases",
			from:        StatusApproved,
			apply:       func(b *Booking) (TransitionResult, error) { return b.Cancel("admin", "customer call", now) },
			wantStatus:  StatusCancelled,
			wantChanged: true,
			wantRelease: 2,
		},
		{
			name:       "cancel confirmed",
			from:       StatusConfirmed,
			apply:      func(b *Booking) (TransitionResult, error) { return b.Cancel("admin", "refund", now) },
			wantStatus: StatusConfirmed,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:       "cancel rejected",
			from:       StatusRejected,
			apply:      func(b *Booking) (TransitionResult, error) { return b.Cancel("admin", "x", now) },
			wantStatus: StatusRejected,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:        "confirm approved",
			from:        StatusApproved,
			apply:       func(b *Booking) (TransitionResult, error) { return b.ConfirmPayment("pay-1", now) },
			wantStatus:  StatusConfirmed,
			wantChanged: true,
		},
		{
			name:       "confirm pending",
			from:       StatusPending,
			apply:      func(b *Booking) (TransitionResult, error) { return b.ConfirmPayment("pay-1", now) },
			wantStatus: StatusPending,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:       "confirm cancelled",
			from:       StatusCancelled,
			apply:      func(b *Booking) (TransitionResult, error) { return b.ConfirmPayment("pay-1", now) },
			wantStatus: StatusCancelled,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:        "delete pending releases",
			from:        StatusPending,
			apply:       func(b *Booking) (TransitionResult, error) { return b.Delete(now) },
			wantStatus:  StatusPending,
			wantChanged: true,
			wantRelease: 2,
		},
		{
			name:        "delete cancelled keeps capacity untouched",
			from:        StatusCancelled,
			apply:       func(b *Booking) (TransitionResult, error) { return b.Delete(now) },
			wantStatus:  StatusCancelled,
			wantChanged: true,
		},
		{
			name:       "delete confirmed",
			from:       StatusConfirmed,
			apply:      func(b *Booking) (TransitionResult, error) { return b.Delete(now) },
			wantStatus: StatusConfirmed,
			wantErr:    ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBooking(tt.from, 2)

			res, err := tt.apply(b)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, b.Status)
			assert.Equal(t, tt.wantChanged, res.Changed)
			assert.Equal(t, tt.wantRelease, res.ReleaseUnits)
		})
	}
}

func TestBooking_ConfirmPaymentReplay(t *testing.T) {
	now := time.Now()
	b := newTestBooking(StatusApproved, 1)

	_, err := b.ConfirmPayment("pay-1", now)
	require.NoError(t, err)
	require.NotNil(t, b.ConfirmedAt)
	confirmedAt := *b.ConfirmedAt

	_, err = b.ConfirmPayment("pay-1", now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = b.ConfirmPayment("pay-2", now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrAlreadyConfirmed)

	assert.Equal(t, confirmedAt, *b.ConfirmedAt, "confirmedAt is set once")
}

func TestBooking_DeleteTwiceIsNoop(t *testing.T) {
	b := newTestBooking(StatusApproved, 3)

	first, err := b.Delete(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, first.ReleaseUnits)
	assert.False(t, b.HoldsCapacity())

	second, err := b.Delete(time.Now())
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Zero(t, second.ReleaseUnits)
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, StatusPending.HoldsCapacity())
	assert.True(t, StatusApproved.HoldsCapacity())
	assert.False(t, StatusConfirmed.HoldsCapacity())

	for _, s := range TerminalStatuses {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.True(t, StatusApproved.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusPending.CanTransitionTo(StatusConfirmed))

	_, err := ParseBookingStatus("new")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestValidateCapacity(t *testing.T) {
	require.NoError(t, ValidateCapacity(KindVehicle, 1))
	require.NoError(t, ValidateCapacity(KindAdventureDeparture, 12))

	assert.ErrorIs(t, ValidateCapacity(KindVehicle, 2), ErrInvalidRequest)
	assert.ErrorIs(t, ValidateCapacity(KindAdventureDeparture, 0), ErrInvalidRequest)
	assert.ErrorIs(t, ValidateCapacity(ResourceKind("boat"), 1), ErrInvalidRequest)
}
