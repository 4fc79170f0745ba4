package models

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модели

// CreateResourceRequest запрос на создание ресурса
type CreateResourceRequest struct {
	Kind     string `json:"kind"`     // vehicle | adventure_departure
	Name     string `json:"name"`
	Capacity int    `json:"capacity"` // Для vehicle всегда 1
}

// Response модели

// ResourceResponse ответ с данными ресурса
type ResourceResponse struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Capacity  int        `json:"capacity"`
	Committed int        `json:"committed"`
	Available int        `json:"available"`
	Version   int64      `json:"version"`
	RetiredAt *time.Time `json:"retiredAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ResourceListResponse ответ со списком ресурсов
type ResourceListResponse struct {
	Resources []ResourceResponse `json:"resources"`
}

// AvailabilityResponse снимок вместимости ресурса
type AvailabilityResponse struct {
	ResourceID string `json:"resourceId"`
	Capacity   int    `json:"capacity"`
	Committed  int    `json:"committed"`
	Available  int    `json:"available"`
}

// Методы конвертации

// FromDomainResource конвертирует domain модель в DTO
func FromDomainResource(r *domain.Resource) *ResourceResponse {
	if r == nil {
		return nil
	}

	return &ResourceResponse{
		ID:        r.ID,
		Kind:      string(r.Kind),
		Name:      r.Name,
		Capacity:  r.Capacity,
		Committed: r.Committed,
		Available: r.Available(),
		Version:   r.Version,
		RetiredAt: r.RetiredAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// FromDomainResourceList конвертирует список domain моделей в DTO
func FromDomainResourceList(resources []*domain.Resource) *ResourceListResponse {
	resp := &ResourceListResponse{
		Resources: make([]ResourceResponse, 0, len(resources)),
	}

	for _, r := range resources {
		if item := FromDomainResource(r); item != nil {
			resp.Resources = append(resp.Resources, *item)
		}
	}

	return resp
}

// FromDomainAvailability конвертирует снимок вместимости в DTO
func FromDomainAvailability(a domain.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ResourceID: a.ResourceID,
		Capacity:   a.Capacity,
		Committed:  a.Committed,
		Available:  a.Available,
	}
}
