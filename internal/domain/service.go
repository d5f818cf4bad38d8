package domain

import "time"

// Service represents a bookable service line with its own queue
type Service struct {
	ID                    string
	Name                  string
	Description           *string
	AvgServiceTimeMinutes int
	CapacityPerSlot       int
	IsActive              bool
	CreatedAt             time.Time
}

// SupportsParallelAppointments returns true if several customers can be served in one slot.
// Capacity is informational: slot availability does not consult it.
func (s *Service) SupportsParallelAppointments() bool {
	return s.CapacityPerSlot > 1
}

// ServiceFilter фильтр выборки услуг
type ServiceFilter struct {
	ActiveOnly bool
}
