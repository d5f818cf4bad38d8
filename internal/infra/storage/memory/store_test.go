package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/appointment"
	serviceRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/service"
	"github.com/m04kA/SMC-QueueService/pkg/ptr"
	"github.com/m04kA/SMC-QueueService/pkg/types"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *AppointmentRepository, id string, slot types.TimeString, status domain.AppointmentStatus) {
	t.Helper()
	_, err := repo.Create(context.Background(), &domain.Appointment{
		ID:              id,
		UserID:          "user-" + id,
		ServiceID:       "svc-1",
		AppointmentDate: day,
		AppointmentTime: slot,
		QueueNumber:     "Q-SVC1-0315-001",
		Status:          status,
		CustomerName:    "Customer " + id,
	})
	require.NoError(t, err)
}

func TestAppointmentRepository_ListOrderingAndFilter(t *testing.T) {
	repo := NewStore().Appointments()
	seed(t, repo, "c", "11:00", domain.StatusWaiting)
	seed(t, repo, "a", "09:00", domain.StatusServed)
	seed(t, repo, "b", "10:00", domain.StatusCancelled)
	seed(t, repo, "d", "09:30", domain.StatusWaiting)

	list, err := repo.List(context.Background(), domain.AppointmentFilter{
		ServiceID: ptr.To("svc-1"),
		Date:      ptr.To(day),
		Statuses:  domain.QueueStatuses,
		OrderBy:   domain.OrderByAppointmentTime,
	})

	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"a", "d", "c"}, ids)
}

func TestAppointmentRepository_ReturnsCopies(t *testing.T) {
	repo := NewStore().Appointments()
	seed(t, repo, "a", "09:00", domain.StatusWaiting)

	got, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	got.Status = domain.StatusServed

	again, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, again.Status)
}

func TestAppointmentRepository_UpdateMissing(t *testing.T) {
	repo := NewStore().Appointments()
	status := domain.StatusCancelled

	_, err := repo.Update(context.Background(), "nope", domain.AppointmentPatch{Status: &status})
	assert.ErrorIs(t, err, appointmentRepo.ErrAppointmentNotFound)

	_, err = repo.Update(context.Background(), "nope", domain.AppointmentPatch{})
	assert.ErrorIs(t, err, appointmentRepo.ErrEmptyPatch)
}

func TestAppointmentRepository_Aggregates(t *testing.T) {
	store := NewStore()
	_, err := store.Services().Create(context.Background(), &domain.Service{ID: "svc-1", Name: "Passports", IsActive: true})
	require.NoError(t, err)

	repo := store.Appointments()
	seed(t, repo, "a", "09:00", domain.StatusServed)
	seed(t, repo, "b", "09:30", domain.StatusWaiting)
	seed(t, repo, "c", "10:00", domain.StatusCancelled)

	stats, err := repo.Stats(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Date: day, Today: 3, Total: 3, Waiting: 1, Served: 1, Cancelled: 1}, *stats)

	other, err := repo.Stats(context.Background(), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, other.Today)
	assert.Equal(t, 3, other.Total)

	hours, err := repo.BusiestHours(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.HourBucket{{Hour: 9, Count: 2}}, hours)

	byService, err := repo.CountByService(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ServiceCount{{ServiceID: "svc-1", ServiceName: "Passports", Count: 3}}, byService)
}

func TestServiceRepository(t *testing.T) {
	repo := NewStore().Services()
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.Service{ID: "s2", Name: "Visas", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.Service{ID: "s1", Name: "Passports", IsActive: true})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.Service{ID: "s3", Name: "Visas"})
	assert.ErrorIs(t, err, serviceRepo.ErrDuplicateService)

	require.NoError(t, repo.Deactivate(ctx, "s2"))
	assert.ErrorIs(t, repo.Deactivate(ctx, "missing"), serviceRepo.ErrServiceNotFound)

	active, err := repo.List(ctx, domain.ServiceFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Passports", active[0].Name)

	all, err := repo.List(ctx, domain.ServiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestActivityRepository(t *testing.T) {
	repo := NewStore().Activity()
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, &domain.StaffActivityLog{ID: "l1", StaffID: "st", AppointmentID: "a", Action: domain.ActionMarkedServed}))
	require.NoError(t, repo.Record(ctx, &domain.StaffActivityLog{ID: "l2", StaffID: "st", AppointmentID: "b", Action: domain.ActionMarkedServed}))

	entries, err := repo.ListByAppointment(ctx, "a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "l1", entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestAppointmentRepository_UnknownServiceIsAccepted(t *testing.T) {
	store := NewStore()
	repo := store.Appointments()

	// каталог пуст: внешнего ключа нет, запись сохраняется
	seed(t, repo, "a", "09:00", domain.StatusWaiting)

	got, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "svc-1", got.ServiceID)

	byService, err := repo.CountByService(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ServiceCount{{ServiceID: "svc-1", ServiceName: domain.UnknownServiceName, Count: 1}}, byService)
}
