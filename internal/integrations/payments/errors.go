package payments

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidEvent сообщение не удалось разобрать или в нем нет обязательных полей
	ErrInvalidEvent = fmt.Errorf("payments: invalid event: %w", domain.ErrInvalidRequest)

	// ErrUnknownEventType тип события не поддерживается
	ErrUnknownEventType = errors.New("payments: unknown event type")

	// ErrInvalidConfig некорректная конфигурация консьюмера
	ErrInvalidConfig = errors.New("payments: invalid consumer config")
)
