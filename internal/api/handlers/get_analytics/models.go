package get_analytics

import (
	"fmt"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

// AnalyticsResponse HTTP response model
type AnalyticsResponse struct {
	TotalAppointments     int            `json:"totalAppointments"`
	TodayAppointments     int            `json:"todayAppointments"`
	WaitingAppointments   int            `json:"waitingAppointments"`
	ServedAppointments    int            `json:"servedAppointments"`
	CancelledAppointments int            `json:"cancelledAppointments"`
	BusiestTimeSlots      []HourCount    `json:"busiestTimeSlots"`
	ServiceBreakdown      []ServiceCount `json:"serviceBreakdown"`
}

// HourCount часовой интервал в формате HH:00
type HourCount struct {
	Time  string `json:"time"`
	Count int    `json:"count"`
}

// ServiceCount количество записей по услуге
type ServiceCount struct {
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName"`
	Count       int    `json:"count"`
}

// FromAnalytics конвертирует domain модель в HTTP response
func FromAnalytics(a *domain.Analytics) *AnalyticsResponse {
	hours := make([]HourCount, len(a.BusiestSlots))
	for i, b := range a.BusiestSlots {
		hours[i] = HourCount{Time: fmt.Sprintf("%02d:00", b.Hour), Count: b.Count}
	}

	services := make([]ServiceCount, len(a.ServiceBreakdown))
	for i, s := range a.ServiceBreakdown {
		services[i] = ServiceCount{ServiceID: s.ServiceID, ServiceName: s.ServiceName, Count: s.Count}
	}

	return &AnalyticsResponse{
		TotalAppointments:     a.Stats.Total,
		TodayAppointments:     a.Stats.Today,
		WaitingAppointments:   a.Stats.Waiting,
		ServedAppointments:    a.Stats.Served,
		CancelledAppointments: a.Stats.Cancelled,
		BusiestTimeSlots:      hours,
		ServiceBreakdown:      services,
	}
}
