package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// Service каталог ресурсов и журнал их вместимости
type Service struct {
	resourceRepo ResourceRepository
	bookings     BookingCounter
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса каталога
func NewService(
	resourceRepo ResourceRepository,
	bookings BookingCounter,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		resourceRepo: resourceRepo,
		bookings:     bookings,
		txManager:    txManager,
		logger:       logger,
	}
}

// Get возвращает ресурс по ID (включая выведенные из каталога)
func (s *Service) Get(ctx context.Context, id string) (*domain.Resource, error) {
	res, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		s.logger.Error("Get: repository error for resource id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: Get - repository error: %w", ErrInternal, err)
	}
	return res, nil
}

// GetCapacity возвращает текущий снимок вместимости ресурса
func (s *Service) GetCapacity(ctx context.Context, id string) (domain.Availability, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return domain.Availability{}, err
	}
	return res.Availability(), nil
}

// TryCommit атомарно занимает quantity единиц ресурса
// Возвращает false без ошибки, если свободной вместимости недостаточно
func (s *Service) TryCommit(ctx context.Context, id string, quantity int) (bool, domain.Availability, error) {
	if quantity <= 0 {
		return false, domain.Availability{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	res, err := s.resourceRepo.TryCommit(ctx, id, quantity)
	switch {
	case err == nil:
		return true, res.Availability(), nil
	case errors.Is(err, resourceRepo.ErrCapacityExhausted):
		availability := domain.NewAvailability(id, 0, 0)
		if res != nil {
			availability = res.Availability()
		}
		return false, availability, nil
	case errors.Is(err, resourceRepo.ErrResourceNotFound):
		return false, domain.Availability{}, ErrResourceNotFound
	case errors.Is(err, resourceRepo.ErrResourceRetired):
		return false, domain.Availability{}, ErrResourceRetired
	default:
		s.logger.Error("TryCommit: repository error for resource id=%s: %v", id, err)
		return false, domain.Availability{}, fmt.Errorf("%w: TryCommit - repository error: %w", ErrInternal, err)
	}
}

// Release атомарно возвращает quantity единиц ресурса
func (s *Service) Release(ctx context.Context, id string, quantity int) (domain.Availability, error) {
	if quantity <= 0 {
		return domain.Availability{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	res, err := s.resourceRepo.Release(ctx, id, quantity)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			return domain.Availability{}, ErrResourceNotFound
		}
		s.logger.Error("Release: repository error for resource id=%s: %v", id, err)
		return domain.Availability{}, fmt.Errorf("%w: Release - repository error: %w", ErrInternal, err)
	}

	return res.Availability(), nil
}

// CreateResource добавляет ресурс в каталог
func (s *Service) CreateResource(ctx context.Context, req *models.CreateResourceRequest) (*models.ResourceResponse, error) {
	s.logger.Info("CreateResource: creating %s resource name=%q capacity=%d", req.Kind, req.Name, req.Capacity)

	kind, err := domain.ParseResourceKind(req.Kind)
	if err != nil {
		s.logger.Warn("CreateResource: invalid kind=%q", req.Kind)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Для транспорта вместимость всегда 1, ее можно не указывать
	capacity := req.Capacity
	if kind == domain.KindVehicle && capacity == 0 {
		capacity = domain.VehicleCapacity
	}
	if err := domain.ValidateCapacity(kind, capacity); err != nil {
		s.logger.Warn("CreateResource: invalid capacity=%d for kind=%s", capacity, kind)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > domain.MaxResourceNameLength {
		s.logger.Warn("CreateResource: invalid name length=%d", len(name))
		return nil, fmt.Errorf("%w: name is required and must be at most %d characters", ErrInvalidInput, domain.MaxResourceNameLength)
	}

	created, err := s.resourceRepo.Create(ctx, &domain.Resource{
		ID:       uuid.NewString(),
		Kind:     kind,
		Name:     name,
		Capacity: capacity,
	})
	if err != nil {
		s.logger.Error("CreateResource: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateResource - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("CreateResource: successfully created resource id=%s", created.ID)
	return models.FromDomainResource(created), nil
}

// GetResource получает ресурс каталога по ID
func (s *Service) GetResource(ctx context.Context, id string) (*models.ResourceResponse, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			s.logger.Warn("GetResource: resource id=%s not found", id)
		}
		return nil, err
	}
	return models.FromDomainResource(res), nil
}

// ListResources получает список ресурсов каталога
func (s *Service) ListResources(ctx context.Context, includeRetired bool) (*models.ResourceListResponse, error) {
	resources, err := s.resourceRepo.List(ctx, includeRetired)
	if err != nil {
		s.logger.Error("ListResources: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListResources - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("ListResources: fetched %d resources (includeRetired=%t)", len(resources), includeRetired)
	return models.FromDomainResourceList(resources), nil
}

// RetireResource выводит ресурс из каталога
// Разрешено только если ни одно бронирование не удерживает его вместимость
func (s *Service) RetireResource(ctx context.Context, id string) error {
	s.logger.Info("RetireResource: retiring resource id=%s", id)

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		// Блокируем строку ресурса, чтобы параллельный TryCommit дождался решения
		if _, err := s.resourceRepo.LockByID(ctx, id); err != nil {
			return err
		}

		holding, err := s.bookings.CountHolding(ctx, id)
		if err != nil {
			return err
		}
		if holding > 0 {
			s.logger.Warn("RetireResource: resource id=%s has %d active bookings", id, holding)
			return ErrResourceInUse
		}

		return s.resourceRepo.Retire(ctx, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, resourceRepo.ErrResourceNotFound):
			s.logger.Warn("RetireResource: resource id=%s not found", id)
			return ErrResourceNotFound
		case errors.Is(err, ErrResourceInUse):
			return err
		case errors.Is(err, txmanager.ErrSerializationFailure):
			s.logger.Warn("RetireResource: concurrent modification of resource id=%s: %v", id, err)
			return ErrConflict
		default:
			s.logger.Error("RetireResource: failed to retire resource id=%s: %v", id, err)
			return fmt.Errorf("%w: RetireResource - %w", ErrInternal, err)
		}
	}

	s.logger.Info("RetireResource: successfully retired resource id=%s", id)
	return nil
}
