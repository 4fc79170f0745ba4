package domain

import (
	"fmt"
	"time"
)

// ResourceKind is the kind of a bookable resource
type ResourceKind string

const (
	KindVehicle            ResourceKind = "vehicle"
	KindAdventureDeparture ResourceKind = "adventure_departure"
)

// IsValid returns true if the kind is known
func (k ResourceKind) IsValid() bool {
	return k == KindVehicle || k == KindAdventureDeparture
}

// ParseResourceKind converts a string to a ResourceKind
func ParseResourceKind(s string) (ResourceKind, error) {
	k := ResourceKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: unknown resource kind %q", ErrInvalidRequest, s)
	}
	return k, nil
}

// Resource is a capacity-bearing entity: a single vehicle (capacity 1)
// or an adventure departure with a fixed number of seats.
// Committed is changed only through the capacity ledger (TryCommit / Release).
type Resource struct {
	ID        string
	Kind      ResourceKind
	Name      string
	Capacity  int
	Committed int
	Version   int64
	RetiredAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available returns the number of units that can still be committed
func (r *Resource) Available() int {
	if r.Committed >= r.Capacity {
		return 0
	}
	return r.Capacity - r.Committed
}

// CanCommit returns true if quantity more units fit into the remaining capacity
func (r *Resource) CanCommit(quantity int) bool {
	return quantity > 0 && r.Committed+quantity <= r.Capacity
}

// IsRetired returns true if the resource has been withdrawn from the catalog
func (r *Resource) IsRetired() bool {
	return r.RetiredAt != nil
}

// Availability returns the capacity snapshot of the resource
func (r *Resource) Availability() Availability {
	return NewAvailability(r.ID, r.Capacity, r.Committed)
}

// ValidateCapacity checks the capacity rules of a resource kind
func ValidateCapacity(kind ResourceKind, capacity int) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown resource kind %q", ErrInvalidRequest, kind)
	}
	if kind == KindVehicle && capacity != VehicleCapacity {
		return fmt.Errorf("%w: vehicle capacity must be %d", ErrInvalidRequest, VehicleCapacity)
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return fmt.Errorf("%w: capacity must be between %d and %d", ErrInvalidRequest, MinCapacity, MaxCapacity)
	}
	return nil
}

// Availability is a point-in-time view of a resource's capacity ledger
type Availability struct {
	ResourceID string
	Capacity   int
	Committed  int
	Available  int
}

// NewAvailability builds an Availability, clamping Available at zero
func NewAvailability(resourceID string, capacity, committed int) Availability {
	available := capacity - committed
	if available < 0 {
		available = 0
	}
	return Availability{
		ResourceID: resourceID,
		Capacity:   capacity,
		Committed:  committed,
		Available:  available,
	}
}

// IsFull returns true if no more units can be committed
func (a Availability) IsFull() bool {
	return a.Available == 0
}
