package allocator

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrCapacityExhausted возвращается, когда запрошенное количество не помещается в свободную вместимость
	ErrCapacityExhausted = fmt.Errorf("not enough capacity: %w", domain.ErrCapacityExhausted)

	// ErrInvalidRelease возвращается при попытке освободить больше единиц, чем удерживает бронирование
	ErrInvalidRelease = errors.New("allocator: release exceeds booking quantity")
)
