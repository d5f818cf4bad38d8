package domain

import "time"

// StaffAction действие сотрудника, попадающее в журнал
type StaffAction string

const (
	ActionMarkedServed StaffAction = "marked_served"
)

// StaffActivityLog запись журнала действий персонала
type StaffActivityLog struct {
	ID            string
	StaffID       string
	AppointmentID string
	Action        StaffAction
	CreatedAt     time.Time
}
