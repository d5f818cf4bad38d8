package get_appointment_activity

import (
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

// ActivityResponse HTTP модель записи журнала
type ActivityResponse struct {
	ID            string    `json:"id"`
	StaffID       string    `json:"staffId"`
	AppointmentID string    `json:"appointmentId"`
	Action        string    `json:"action"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FromActivity конвертирует журнал в HTTP response
func FromActivity(entries []*domain.StaffActivityLog) []ActivityResponse {
	result := make([]ActivityResponse, len(entries))
	for i, e := range entries {
		result[i] = ActivityResponse{
			ID:            e.ID,
			StaffID:       e.StaffID,
			AppointmentID: e.AppointmentID,
			Action:        string(e.Action),
			CreatedAt:     e.CreatedAt,
		}
	}
	return result
}
