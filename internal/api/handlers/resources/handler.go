package resources

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidParams      = "некорректные параметры запроса"
	msgInvalidResource    = "некорректные данные ресурса"
	msgNotFound           = "ресурс не найден"
	msgInUse              = "на ресурс есть активные бронирования"
	msgConflict           = "ресурс изменен параллельным запросом, повторите попытку"
)

// Handler каталог ресурсов: управление (admin) и публичная вместимость
type Handler struct {
	service CatalogService
	logger  Logger
}

func NewHandler(service CatalogService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Create POST /api/v1/admin/resources
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateResourceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /admin/resources - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resource, err := h.service.CreateResource(r.Context(), &req)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			h.logger.Warn("POST /admin/resources - Invalid resource: %v", err)
			handlers.RespondBadRequest(w, msgInvalidResource)
			return
		}
		h.logger.Error("POST /admin/resources - Failed to create resource: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /admin/resources - Resource created successfully: resource_id=%s", resource.ID)
	handlers.RespondJSON(w, http.StatusCreated, resource)
}

// List GET /api/v1/admin/resources
// Query params: includeRetired (опционально)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeRetired := false
	if v := r.URL.Query().Get("includeRetired"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.logger.Warn("GET /admin/resources - Invalid includeRetired: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)
			return
		}
		includeRetired = parsed
	}

	result, err := h.service.ListResources(r.Context(), includeRetired)
	if err != nil {
		h.logger.Error("GET /admin/resources - Failed to list resources: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Get GET /api/v1/admin/resources/{resourceId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	resourceID := mux.Vars(r)["resourceId"]

	resource, err := h.service.GetResource(r.Context(), resourceID)
	if err != nil {
		h.respondError(w, "GET /admin/resources/{id}", resourceID, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resource)
}

// Retire DELETE /api/v1/admin/resources/{resourceId}
func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	resourceID := mux.Vars(r)["resourceId"]

	if err := h.service.RetireResource(r.Context(), resourceID); err != nil {
		h.respondError(w, "DELETE /admin/resources/{id}", resourceID, err)
		return
	}

	h.logger.Info("DELETE /admin/resources/{id} - Resource retired: resource_id=%s", resourceID)
	w.WriteHeader(http.StatusNoContent)
}

// Availability GET /api/v1/resources/{resourceId}/availability
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	resourceID := mux.Vars(r)["resourceId"]

	availability, err := h.service.GetCapacity(r.Context(), resourceID)
	if err != nil {
		h.respondError(w, "GET /resources/{id}/availability", resourceID, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAvailability(availability))
}

func (h *Handler) respondError(w http.ResponseWriter, route, resourceID string, err error) {
	switch {
	case errors.Is(err, catalog.ErrResourceNotFound):
		h.logger.Warn("%s - Resource not found: resource_id=%s", route, resourceID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, catalog.ErrResourceInUse):
		h.logger.Warn("%s - Resource in use: resource_id=%s", route, resourceID)
		handlers.RespondDomainError(w, err, msgInUse)

	case errors.Is(err, catalog.ErrConflict):
		h.logger.Warn("%s - Conflict: resource_id=%s", route, resourceID)
		handlers.RespondDomainError(w, err, msgConflict)

	default:
		h.logger.Error("%s - Failed: resource_id=%s, error=%v", route, resourceID, err)
		handlers.RespondInternalError(w)
	}
}
