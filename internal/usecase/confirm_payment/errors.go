package confirm_payment

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("confirm_payment: invalid input data: %w", domain.ErrInvalidRequest)

	// ErrBookingNotFound возвращается, когда бронирование не найдено или удалено
	ErrBookingNotFound = fmt.Errorf("confirm_payment: booking not found: %w", domain.ErrNotFound)

	// ErrInvalidTransition возвращается, когда бронирование не в статусе approved
	ErrInvalidTransition = fmt.Errorf("confirm_payment: %w", domain.ErrInvalidTransition)

	// ErrAlreadyConfirmed возвращается при повторном подтверждении с тем же paymentRef
	// Является частным случаем domain.ErrInvalidTransition
	ErrAlreadyConfirmed = fmt.Errorf("confirm_payment: %w", domain.ErrAlreadyConfirmed)

	// ErrConflict возвращается, когда бронирование изменено параллельным запросом
	ErrConflict = fmt.Errorf("confirm_payment: concurrent update: %w", domain.ErrConflict)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_payment: internal error")
)
