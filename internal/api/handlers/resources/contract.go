package resources

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
)

type CatalogService interface {
	CreateResource(ctx context.Context, req *models.CreateResourceRequest) (*models.ResourceResponse, error)
	GetResource(ctx context.Context, id string) (*models.ResourceResponse, error)
	ListResources(ctx context.Context, includeRetired bool) (*models.ResourceListResponse, error)
	RetireResource(ctx context.Context, id string) error
	GetCapacity(ctx context.Context, id string) (domain.Availability, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
