package create_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/api/middleware"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgValidationFailed   = "некорректные данные записи"
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

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /appointments - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	appointment, err := h.service.BookAppointment(r.Context(), session, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrValidation):
			h.logger.Warn("POST /appointments - Validation failed: user_id=%s, error=%v", session.UserID, err)
			handlers.RespondBadRequest(w, msgValidationFailed)

		case errors.Is(err, appointments.ErrUnauthenticated):
			handlers.RespondUnauthorized(w)

		default:
			h.logger.Error("POST /appointments - Failed to book appointment: user_id=%s, error=%v", session.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%s, queue_number=%s, user_id=%s",
		appointment.ID, appointment.QueueNumber, session.UserID)
	handlers.RespondJSON(w, http.StatusCreated, handlers.FromAppointment(appointment))
}
