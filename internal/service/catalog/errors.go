package catalog

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = fmt.Errorf("resource not found: %w", domain.ErrNotFound)

	// ErrResourceRetired возвращается при попытке забронировать выведенный из каталога ресурс
	ErrResourceRetired = fmt.Errorf("resource retired: %w", domain.ErrInvalidRequest)

	// ErrResourceInUse возвращается при попытке вывести ресурс, на который есть активные бронирования
	ErrResourceInUse = fmt.Errorf("resource has active bookings: %w", domain.ErrInvalidTransition)

	// ErrConflict возвращается, когда ресурс изменен параллельной транзакцией
	ErrConflict = fmt.Errorf("resource modified concurrently: %w", domain.ErrConflict)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("invalid resource data: %w", domain.ErrInvalidRequest)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("catalog: internal error")
)
