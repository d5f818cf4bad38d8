package appointments

import (
	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/pkg/types"
)

// freeSlots убирает из сетки слоты, занятые переданными записями.
// Сетка уже отсортирована, поэтому результат тоже по возрастанию.
func freeSlots(grid []types.TimeString, occupied []*domain.Appointment) []types.TimeString {
	taken := make(map[types.TimeString]struct{}, len(occupied))
	for _, a := range occupied {
		if a.IsWaiting() {
			taken[a.AppointmentTime] = struct{}{}
		}
	}

	available := make([]types.TimeString, 0, len(grid))
	for _, slot := range grid {
		if _, busy := taken[slot]; !busy {
			available = append(available, slot)
		}
	}
	return available
}
