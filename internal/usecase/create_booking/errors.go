package create_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_booking: invalid input data: %w", domain.ErrInvalidRequest)

	// ErrUnknownResource возвращается, когда ссылка на ресурс не разрешается или ресурс выведен из каталога
	ErrUnknownResource = fmt.Errorf("create_booking: unknown resource: %w", domain.ErrInvalidRequest)

	// ErrCapacityExhausted возвращается, когда свободных мест недостаточно (бронирование не создается)
	ErrCapacityExhausted = fmt.Errorf("create_booking: fully booked: %w", domain.ErrCapacityExhausted)

	// ErrConflict возвращается, когда транзакция проиграла гонку параллельному запросу
	ErrConflict = fmt.Errorf("create_booking: concurrent update: %w", domain.ErrConflict)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
