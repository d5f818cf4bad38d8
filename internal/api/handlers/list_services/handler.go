package list_services

import (
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
)

const (
	msgInvalidFlag = "параметр includeInactive должен быть true или false"
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

// Handle GET /api/v1/services
// Query params: includeInactive (optional, по умолчанию только активные)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	includeInactive := false
	if v := r.URL.Query().Get("includeInactive"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.logger.Warn("GET /services - Invalid includeInactive: %v", err)
			handlers.RespondBadRequest(w, msgInvalidFlag)
			return
		}
		includeInactive = parsed
	}

	services, err := h.service.ListServices(r.Context(), !includeInactive)
	if err != nil {
		h.logger.Error("GET /services - Failed to list services: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	response := make([]*handlers.ServiceResponse, len(services))
	for i, s := range services {
		response[i] = handlers.FromService(s)
	}

	handlers.RespondJSON(w, http.StatusOK, response)
}
