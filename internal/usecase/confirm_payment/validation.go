package confirm_payment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

func validateRequest(bookingID, paymentRef string) error {
	if strings.TrimSpace(bookingID) == "" {
		return fmt.Errorf("%w: bookingId is required", ErrInvalidInput)
	}
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return fmt.Errorf("%w: paymentRef is required", ErrInvalidInput)
	}
	if len(paymentRef) > domain.MaxPaymentRefLength {
		return fmt.Errorf("%w: paymentRef must be at most %d characters", ErrInvalidInput, domain.MaxPaymentRefLength)
	}
	return nil
}

// truncateReason обрезает причину до maxBytes байт, не разрывая многобайтовые символы
func truncateReason(reason string, maxBytes int) string {
	if len(reason) <= maxBytes {
		return reason
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
