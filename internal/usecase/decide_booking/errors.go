package decide_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("decide_booking: invalid input data: %w", domain.ErrInvalidRequest)

	// ErrBookingNotFound возвращается, когда бронирование не найдено или удалено
	ErrBookingNotFound = fmt.Errorf("decide_booking: booking not found: %w", domain.ErrNotFound)

	// ErrInvalidTransition возвращается, когда операция недопустима в текущем статусе
	ErrInvalidTransition = fmt.Errorf("decide_booking: %w", domain.ErrInvalidTransition)

	// ErrStatusMismatch возвращается, когда бронирование ушло из ожидаемого статуса до отмены
	ErrStatusMismatch = fmt.Errorf("decide_booking: unexpected booking status: %w", domain.ErrInvalidTransition)

	// ErrConflict возвращается, когда бронирование изменено параллельным запросом
	ErrConflict = fmt.Errorf("decide_booking: concurrent update: %w", domain.ErrConflict)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("decide_booking: internal error")
)
