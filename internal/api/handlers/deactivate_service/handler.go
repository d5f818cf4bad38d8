package deactivate_service

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/api/middleware"
	"github.com/m04kA/SMC-QueueService/internal/service/catalog"
)

const (
	msgNotFound  = "услуга не найдена"
	msgForbidden = "доступно только администраторам"
)

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

// Handle PATCH /api/v1/services/{serviceId}/deactivate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	serviceID := mux.Vars(r)["serviceId"]

	service, err := h.service.DeactivateService(r.Context(), session, serviceID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrServiceNotFound):
			h.logger.Warn("PATCH /services/{id}/deactivate - Service not found: service_id=%s", serviceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, catalog.ErrAccessDenied):
			h.logger.Warn("PATCH /services/{id}/deactivate - Access denied: user_id=%s", session.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, catalog.ErrUnauthenticated):
			handlers.RespondUnauthorized(w)

		default:
			h.logger.Error("PATCH /services/{id}/deactivate - Failed to deactivate service: service_id=%s, error=%v",
				serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /services/{id}/deactivate - Service deactivated successfully: service_id=%s", serviceID)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromService(service))
}
