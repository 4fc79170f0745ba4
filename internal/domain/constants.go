package domain

// Capacity rules
const (
	VehicleCapacity = 1
	MinCapacity     = 1
	MaxCapacity     = 500
)

// Business validation constants
const (
	MaxContactNameLength  = 200
	MaxContactEmailLength = 254
	MaxResourceNameLength = 200
	MaxActorLength        = 100
	MaxReasonLength       = 500
	MaxPaymentRefLength   = 200
)

// Actors used by automated collaborators
const (
	ActorPayments = "payments"
	ActorExpiry   = "expiry"
)

// ActiveStatuses статусы, в которых бронирование удерживает вместимость ресурса
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusApproved,
}

// TerminalStatuses статусы, из которых невозможен переход, меняющий вместимость
var TerminalStatuses = []BookingStatus{
	StatusRejected,
	StatusCancelled,
	StatusConfirmed,
}
