package domain

import "github.com/m04kA/SMC-QueueService/pkg/types"

// SlotGrid возвращает фиксированную сетку слотов дня по возрастанию: 09:00, 09:30 ... 17:30
func SlotGrid() []types.TimeString {
	slots := make([]types.TimeString, 0, (SlotGridEndHour-SlotGridStartHour+1)*60/SlotDurationMinutes)
	for hour := SlotGridStartHour; hour <= SlotGridEndHour; hour++ {
		for minute := 0; minute < 60; minute += SlotDurationMinutes {
			// значения всегда в пределах суток
			slot, _ := types.NewTimeStringFromMinutes(hour*60 + minute)
			slots = append(slots, slot)
		}
	}
	return slots
}

// IsGridSlot returns true if the label is one of the grid slots
func IsGridSlot(t types.TimeString) bool {
	for _, slot := range SlotGrid() {
		if slot == t {
			return true
		}
	}
	return false
}
