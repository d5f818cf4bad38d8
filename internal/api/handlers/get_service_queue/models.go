package get_service_queue

import (
	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/domain"
)

// QueueResponse HTTP response model
type QueueResponse struct {
	ServiceID    string       `json:"serviceId"`
	Date         string       `json:"date"`
	WaitingCount int          `json:"waitingCount"`
	ServedCount  int          `json:"servedCount"`
	Entries      []QueueEntry `json:"entries"`
}

// QueueEntry запись очереди; position только у ожидающих
type QueueEntry struct {
	*handlers.AppointmentResponse
	Position *int `json:"position,omitempty"`
}

// FromServiceQueue конвертирует domain очередь в HTTP response
func FromServiceQueue(q *domain.ServiceQueue) *QueueResponse {
	entries := make([]QueueEntry, len(q.Entries))
	for i, e := range q.Entries {
		entries[i] = QueueEntry{
			AppointmentResponse: handlers.FromAppointment(e.Appointment),
			Position:            e.Position,
		}
	}

	return &QueueResponse{
		ServiceID:    q.ServiceID,
		Date:         q.Date.Format(domain.DateFormat),
		WaitingCount: q.WaitingCount,
		ServedCount:  q.ServedCount,
		Entries:      entries,
	}
}
