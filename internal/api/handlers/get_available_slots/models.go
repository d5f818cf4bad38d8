package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/pkg/types"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	ServiceID string   `json:"serviceId"`
	Date      string   `json:"date"`
	Slots     []string `json:"slots"`
}

// ToResponse конвертирует слоты в HTTP response
func ToResponse(serviceID string, date time.Time, slots []types.TimeString) *AvailableSlotsResponse {
	labels := make([]string, len(slots))
	for i, slot := range slots {
		labels[i] = slot.String()
	}

	return &AvailableSlotsResponse{
		ServiceID: serviceID,
		Date:      date.Format(domain.DateFormat),
		Slots:     labels,
	}
}
