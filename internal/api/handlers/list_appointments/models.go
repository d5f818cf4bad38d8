package list_appointments

import (
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments/models"
)

// ToServiceRequest собирает фильтр из query параметров: serviceId, date, status, limit
func ToServiceRequest(query url.Values) (*models.ListAppointmentsRequest, error) {
	req := &models.ListAppointmentsRequest{}

	if serviceID := query.Get("serviceId"); serviceID != "" {
		req.ServiceID = &serviceID
	}

	if dateStr := query.Get("date"); dateStr != "" {
		date, err := handlers.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		req.Date = &date
	}

	if status := query.Get("status"); status != "" {
		s := domain.AppointmentStatus(status)
		req.Status = &s
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.ParseUint(limitStr, 10, 64)
		if err != nil {
			return nil, err
		}
		req.Limit = limit
	}

	return req, nil
}
