package list_appointments

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/api/middleware"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments"
)

const (
	msgInvalidQuery = "некорректные параметры запроса"
	msgForbidden    = "доступно только персоналу"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/appointments
// Query params: serviceId, date (YYYY-MM-DD), status, limit (все опциональны)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	req, err := ToServiceRequest(r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /appointments - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	list, err := h.service.ListAppointments(r.Context(), session, req)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrValidation):
			h.logger.Warn("GET /appointments - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		case errors.Is(err, appointments.ErrAccessDenied):
			h.logger.Warn("GET /appointments - Access denied: user_id=%s", session.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, appointments.ErrUnauthenticated):
			handlers.RespondUnauthorized(w)

		default:
			h.logger.Error("GET /appointments - Failed to list appointments: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /appointments - Appointments listed successfully: count=%d, user_id=%s", len(list), session.UserID)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromAppointments(list))
}
