package allocator

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Catalog журнал вместимости ресурсов
type Catalog interface {
	TryCommit(ctx context.Context, resourceID string, quantity int) (bool, domain.Availability, error)
	Release(ctx context.Context, resourceID string, quantity int) (domain.Availability, error)
	GetCapacity(ctx context.Context, resourceID string) (domain.Availability, error)
}

// Metrics счетчики операций с вместимостью
type Metrics interface {
	IncCapacityOperation(operation, outcome string, units int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
