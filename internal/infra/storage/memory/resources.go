package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/resource"
)

// ResourceRepository in-memory реализация репозитория ресурсов
// Возвращает те же ошибки, что и resource.Repository
type ResourceRepository struct {
	store *Store
}

// Create создает новый ресурс
func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) (*domain.Resource, error) {
	s := r.store
	defer s.lock(ctx)()

	if _, ok := s.resources[res.ID]; ok {
		return nil, fmt.Errorf("%w: Create - duplicate id %s", resource.ErrExecQuery, res.ID)
	}

	now := time.Now()
	res.Committed = 0
	res.Version = 1
	res.CreatedAt = now
	res.UpdatedAt = now
	s.putResource(ctx, *res)

	return res, nil
}

// GetByID получает ресурс по ID
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	s := r.store
	defer s.lock(ctx)()

	res, ok := s.resources[id]
	if !ok {
		return nil, resource.ErrResourceNotFound
	}
	return &res, nil
}

// LockByID внутри транзакции хранилище уже заблокировано целиком
func (r *ResourceRepository) LockByID(ctx context.Context, id string) (*domain.Resource, error) {
	return r.GetByID(ctx, id)
}

// List получает список ресурсов каталога (новые первыми)
func (r *ResourceRepository) List(ctx context.Context, includeRetired bool) ([]*domain.Resource, error) {
	s := r.store
	defer s.lock(ctx)()

	resources := make([]*domain.Resource, 0, len(s.resources))
	for _, res := range s.resources {
		if !includeRetired && res.IsRetired() {
			continue
		}
		res := res
		resources = append(resources, &res)
	}
	sort.Slice(resources, func(i, j int) bool {
		if resources[i].CreatedAt.Equal(resources[j].CreatedAt) {
			return resources[i].ID < resources[j].ID
		}
		return resources[i].CreatedAt.After(resources[j].CreatedAt)
	})

	return resources, nil
}

// TryCommit атомарно занимает quantity единиц, если они помещаются в вместимость
func (r *ResourceRepository) TryCommit(ctx context.Context, id string, quantity int) (*domain.Resource, error) {
	s := r.store
	defer s.lock(ctx)()

	res, ok := s.resources[id]
	if !ok {
		return nil, resource.ErrResourceNotFound
	}
	if res.IsRetired() {
		return nil, resource.ErrResourceRetired
	}
	if !res.CanCommit(quantity) {
		return &res, resource.ErrCapacityExhausted
	}

	res.Committed += quantity
	res.Version++
	res.UpdatedAt = time.Now()
	s.putResource(ctx, res)

	return &res, nil
}

// Release атомарно возвращает quantity единиц (committed не опускается ниже нуля)
func (r *ResourceRepository) Release(ctx context.Context, id string, quantity int) (*domain.Resource, error) {
	s := r.store
	defer s.lock(ctx)()

	res, ok := s.resources[id]
	if !ok {
		return nil, resource.ErrResourceNotFound
	}

	res.Committed -= quantity
	if res.Committed < 0 {
		res.Committed = 0
	}
	res.Version++
	res.UpdatedAt = time.Now()
	s.putResource(ctx, res)

	return &res, nil
}

// Retire выводит ресурс из каталога; повторный вызов не является ошибкой
func (r *ResourceRepository) Retire(ctx context.Context, id string) error {
	s := r.store
	defer s.lock(ctx)()

	res, ok := s.resources[id]
	if !ok {
		return resource.ErrResourceNotFound
	}
	if res.IsRetired() {
		return nil
	}

	now := time.Now()
	res.RetiredAt = &now
	res.Version++
	res.UpdatedAt = now
	s.putResource(ctx, res)

	return nil
}
