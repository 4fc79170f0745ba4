package decide_booking

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

func validateBookingID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: bookingId is required", ErrInvalidInput)
	}
	return nil
}

func validateActor(by string) error {
	by = strings.TrimSpace(by)
	if by == "" {
		return fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if len(by) > domain.MaxActorLength {
		return fmt.Errorf("%w: actor must be at most %d characters", ErrInvalidInput, domain.MaxActorLength)
	}
	return nil
}

func validateReason(reason string, required bool) error {
	reason = strings.TrimSpace(reason)
	if required && reason == "" {
		return fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	if len(reason) > domain.MaxReasonLength {
		return fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidInput, domain.MaxReasonLength)
	}
	return nil
}
