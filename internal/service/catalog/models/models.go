package models

// CreateServiceRequest запрос на создание услуги
type CreateServiceRequest struct {
	Name                  string
	Description           *string
	AvgServiceTimeMinutes *int // nil = значение по умолчанию
	CapacityPerSlot       *int // nil = значение по умолчанию
}
