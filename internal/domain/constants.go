package domain

// Slot grid: 09:00 - 17:30 inclusive, 30 minute step
const (
	SlotGridStartHour   = 9
	SlotGridEndHour     = 17 // последний час, в котором еще есть слоты
	SlotDurationMinutes = 30
)

// Service defaults
const (
	DefaultAvgServiceTimeMinutes = 15
	DefaultCapacityPerSlot       = 1
	MaxServiceNameLength         = 200
	MaxCustomerNameLength        = 200
)

// Queue number
const (
	QueueNumberPrefix       = "Q"
	QueueNumberServiceRunes = 4
	QueueNumberDateDigits   = 4
	QueueNumberRandomRange  = 1000 // суффикс 000-999
)

// Analytics
const (
	BusiestSlotsLimit  = 5
	UnknownServiceName = "Unknown"
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// OccupyingStatuses статусы, при которых слот считается занятым
var OccupyingStatuses = []AppointmentStatus{
	StatusWaiting,
}

// QueueStatuses статусы, попадающие в отображение очереди услуги
var QueueStatuses = []AppointmentStatus{
	StatusWaiting,
	StatusServed,
}
