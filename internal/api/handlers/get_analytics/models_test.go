package get_analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

func TestFromAnalytics(t *testing.T) {
	resp := FromAnalytics(&domain.Analytics{
		Stats:            domain.Stats{Total: 12, Today: 4, Waiting: 3, Served: 8, Cancelled: 1},
		BusiestSlots:     []domain.HourBucket{{Hour: 9, Count: 5}, {Hour: 14, Count: 2}},
		ServiceBreakdown: []domain.ServiceCount{{ServiceID: "svc-x", ServiceName: domain.UnknownServiceName, Count: 12}},
	})

	assert.Equal(t, 12, resp.TotalAppointments)
	assert.Equal(t, 4, resp.TodayAppointments)
	assert.Equal(t, []HourCount{{Time: "09:00", Count: 5}, {Time: "14:00", Count: 2}}, resp.BusiestTimeSlots)
	assert.Equal(t, "Unknown", resp.ServiceBreakdown[0].ServiceName)
}
