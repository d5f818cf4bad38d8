package get_service_queue

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments"
)

const (
	msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidData = "некорректные параметры запроса"
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

// Handle GET /api/v1/services/{serviceId}/queue
// Query params: date (optional, YYYY-MM-DD, по умолчанию сегодня)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID := mux.Vars(r)["serviceId"]

	date := h.service.Today()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := handlers.ParseDate(dateStr)
		if err != nil {
			h.logger.Warn("GET /services/{id}/queue - Invalid date format: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		date = parsed
	}

	queue, err := h.service.GetServiceQueue(r.Context(), serviceID, date)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrValidation):
			h.logger.Warn("GET /services/{id}/queue - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			h.logger.Error("GET /services/{id}/queue - Failed to get queue: service_id=%s, error=%v", serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /services/{id}/queue - Queue retrieved successfully: service_id=%s, date=%s, waiting=%d",
		serviceID, date.Format(domain.DateFormat), queue.WaitingCount)
	handlers.RespondJSON(w, http.StatusOK, FromServiceQueue(queue))
}
