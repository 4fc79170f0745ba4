package catalog

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ResourceRepository интерфейс репозитория ресурсов
type ResourceRepository interface {
	Create(ctx context.Context, res *domain.Resource) (*domain.Resource, error)
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	LockByID(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context, includeRetired bool) ([]*domain.Resource, error)
	TryCommit(ctx context.Context, id string, quantity int) (*domain.Resource, error)
	Release(ctx context.Context, id string, quantity int) (*domain.Resource, error)
	Retire(ctx context.Context, id string) error
}

// BookingCounter считает бронирования, удерживающие вместимость ресурса
type BookingCounter interface {
	CountHolding(ctx context.Context, resourceID string) (int, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
