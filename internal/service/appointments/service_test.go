package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/events"
	"github.com/m04kA/SMC-QueueService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments/models"
	"github.com/m04kA/SMC-QueueService/pkg/logger"
	"github.com/m04kA/SMC-QueueService/pkg/ptr"
	"github.com/m04kA/SMC-QueueService/pkg/types"
)

var (
	testNow  = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	testDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	customer      = domain.Session{UserID: "user-1", Role: domain.RoleCustomer}
	otherCustomer = domain.Session{UserID: "user-2", Role: domain.RoleCustomer}
	staff         = domain.Session{UserID: "staff-1", Role: domain.RoleStaff}
	admin         = domain.Session{UserID: "admin-1", Role: domain.RoleAdmin}
)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fixedRandom struct{ n int }

func (f fixedRandom) IntN(int) int { return f.n }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type transitionCounter struct {
	counts map[string]int
}

func (c *transitionCounter) Transition(status string) {
	c.counts[status]++
}

// failingAppointments подменяет отдельные методы хранилища ошибками
type failingAppointments struct {
	AppointmentRepository
	getErr    error
	createErr error
}

func (f *failingAppointments) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.AppointmentRepository.GetByID(ctx, id)
}

func (f *failingAppointments) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.AppointmentRepository.Create(ctx, a)
}

type failingActivity struct {
	ActivityRepository
}

func (failingActivity) Record(context.Context, *domain.StaffActivityLog) error {
	return errors.New("activity store unavailable")
}

type fixture struct {
	store     *memory.Store
	svc       *Service
	publisher *recordingPublisher
	metrics   *transitionCounter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return newFixtureWith(t, store, store.Appointments(), store.Activity())
}

func newFixtureWith(t *testing.T, store *memory.Store, appts AppointmentRepository, activity ActivityRepository) *fixture {
	t.Helper()
	publisher := &recordingPublisher{}
	metrics := &transitionCounter{counts: make(map[string]int)}
	svc := NewServiceWithDeps(appts, activity, publisher, metrics, time.UTC,
		fixedTime{now: testNow}, fixedRandom{n: 7}, logger.NewNop())
	return &fixture{store: store, svc: svc, publisher: publisher, metrics: metrics}
}

func bookRequest(serviceID string, slot string) *models.BookAppointmentRequest {
	return &models.BookAppointmentRequest{
		ServiceID:     serviceID,
		Date:          testDate,
		Time:          types.TimeString(slot),
		CustomerName:  "Alice",
		CustomerEmail: ptr.To("alice@example.com"),
	}
}

func (f *fixture) book(t *testing.T, session domain.Session, slot string) *domain.Appointment {
	t.Helper()
	a, err := f.svc.BookAppointment(context.Background(), session, bookRequest("svc-1", slot))
	require.NoError(t, err)
	return a
}

func TestGenerateQueueNumber(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Q-SVC1-0315-007", f.svc.GenerateQueueNumber("svc1-passports", testDate))
	assert.Equal(t, "Q-AB-0315-007", f.svc.GenerateQueueNumber("ab", testDate))
	assert.Equal(t, "Q-ÄБВГ-0101-999", formatQueueNumber("äбвгд", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 999))
}

func TestComputeAvailableSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	slots, err := f.svc.ComputeAvailableSlots(ctx, "svc-1", testDate)
	require.NoError(t, err)
	require.Len(t, slots, 18)
	assert.Equal(t, types.TimeString("09:00"), slots[0])
	assert.Equal(t, types.TimeString("17:30"), slots[17])

	waiting := f.book(t, customer, "09:00")
	served := f.book(t, customer, "09:30")
	cancelled := f.book(t, customer, "10:00")
	f.book(t, customer, "10:30")
	_, err = f.svc.MarkAsServed(ctx, staff, served.ID)
	require.NoError(t, err)
	_, err = f.svc.CancelAppointment(ctx, customer, cancelled.ID)
	require.NoError(t, err)

	slots, err = f.svc.ComputeAvailableSlots(ctx, "svc-1", testDate)
	require.NoError(t, err)
	assert.Len(t, slots, 16)
	assert.NotContains(t, slots, waiting.AppointmentTime)
	assert.NotContains(t, slots, types.TimeString("10:30"))
	assert.Contains(t, slots, served.AppointmentTime)
	assert.Contains(t, slots, cancelled.AppointmentTime)

	// другая услуга и другая дата не затронуты
	other, err := f.svc.ComputeAvailableSlots(ctx, "svc-2", testDate)
	require.NoError(t, err)
	assert.Len(t, other, 18)
	nextDay, err := f.svc.ComputeAvailableSlots(ctx, "svc-1", testDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, nextDay, 18)
}

func TestBookAppointment(t *testing.T) {
	f := newFixture(t)

	a := f.book(t, customer, "11:00")

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "user-1", a.UserID)
	assert.Equal(t, domain.StatusWaiting, a.Status)
	assert.Equal(t, "Q-SVC--0315-007", a.QueueNumber)
	assert.Equal(t, testDate, a.AppointmentDate)
	require.NotNil(t, a.CustomerEmail)
	assert.Nil(t, a.CustomerPhone)
	assert.Nil(t, a.ServedAt)
	assert.Nil(t, a.CancelledAt)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeAppointmentBooked, f.publisher.events[0].Type)
	assert.Equal(t, a.ID, f.publisher.events[0].Key)
	assert.Equal(t, 1, f.metrics.counts["waiting"])
}

func TestBookAppointment_DoubleBookingAllowed(t *testing.T) {
	f := newFixture(t)

	first := f.book(t, customer, "09:00")
	second := f.book(t, otherCustomer, "09:00")

	assert.NotEqual(t, first.ID, second.ID)
	queue, err := f.svc.GetServiceQueue(context.Background(), "svc-1", testDate)
	require.NoError(t, err)
	assert.Equal(t, 2, queue.WaitingCount)
}

func TestBookAppointment_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.BookAppointmentRequest)
	}{
		{name: "missing service", mutate: func(r *models.BookAppointmentRequest) { r.ServiceID = " " }},
		{name: "missing date", mutate: func(r *models.BookAppointmentRequest) { r.Date = time.Time{} }},
		{name: "missing time", mutate: func(r *models.BookAppointmentRequest) { r.Time = "" }},
		{name: "malformed time", mutate: func(r *models.BookAppointmentRequest) { r.Time = "9am" }},
		{name: "off-grid time", mutate: func(r *models.BookAppointmentRequest) { r.Time = "09:15" }},
		{name: "after grid", mutate: func(r *models.BookAppointmentRequest) { r.Time = "18:00" }},
		{name: "missing name", mutate: func(r *models.BookAppointmentRequest) { r.CustomerName = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := bookRequest("svc-1", "09:00")
			tt.mutate(req)

			_, err := f.svc.BookAppointment(context.Background(), customer, req)

			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestBookAppointment_Anonymous(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.BookAppointment(context.Background(), domain.Session{}, bookRequest("svc-1", "09:00"))

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestBookAppointment_StoreFailure(t *testing.T) {
	store := memory.NewStore()
	appts := &failingAppointments{AppointmentRepository: store.Appointments(), createErr: errors.New("connection refused")}
	f := newFixtureWith(t, store, appts, store.Activity())

	_, err := f.svc.BookAppointment(context.Background(), customer, bookRequest("svc-1", "09:00"))

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, f.publisher.events)
}

func TestBookAppointment_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker closed")

	a, err := f.svc.BookAppointment(context.Background(), customer, bookRequest("svc-1", "09:00"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, a.Status)
}

func TestCancelAppointment(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels", func(t *testing.T) {
		f := newFixture(t)
		a := f.book(t, customer, "09:00")

		cancelled, err := f.svc.CancelAppointment(ctx, customer, a.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		assert.Equal(t, testNow, *cancelled.CancelledAt)
		assert.Equal(t, a.QueueNumber, cancelled.QueueNumber)
		assert.Equal(t, []events.Type{events.TypeAppointmentBooked, events.TypeAppointmentCancelled}, f.publisher.types())
	})

	t.Run("other customer denied", func(t *testing.T) {
		f := newFixture(t)
		a := f.book(t, customer, "09:00")

		_, err := f.svc.CancelAppointment(ctx, otherCustomer, a.ID)

		assert.ErrorIs(t, err, ErrAccessDenied)
		stored, err := f.store.Appointments().GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWaiting, stored.Status)
	})

	t.Run("staff cancels any", func(t *testing.T) {
		f := newFixture(t)
		a := f.book(t, customer, "09:00")

		_, err := f.svc.CancelAppointment(ctx, staff, a.ID)

		require.NoError(t, err)
	})

	t.Run("cancel twice is not rejected", func(t *testing.T) {
		f := newFixture(t)
		a := f.book(t, customer, "09:00")

		_, err := f.svc.CancelAppointment(ctx, customer, a.ID)
		require.NoError(t, err)
		again, err := f.svc.CancelAppointment(ctx, customer, a.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, again.Status)
	})

	t.Run("served appointment can be cancelled", func(t *testing.T) {
		f := newFixture(t)
		a := f.book(t, customer, "09:00")
		_, err := f.svc.MarkAsServed(ctx, staff, a.ID)
		require.NoError(t, err)

		cancelled, err := f.svc.CancelAppointment(ctx, staff, a.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.Nil(t, cancelled.ServedAt)
		assert.Nil(t, cancelled.ServedBy)
		assert.NotNil(t, cancelled.CancelledAt)

		log, err := f.svc.GetAppointmentActivity(ctx, staff, a.ID)
		require.NoError(t, err)
		assert.Len(t, log, 1)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CancelAppointment(ctx, staff, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = f.svc.CancelAppointment(ctx, customer, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMarkAsServed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.book(t, customer, "09:00")

	served, err := f.svc.MarkAsServed(ctx, staff, a.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusServed, served.Status)
	require.NotNil(t, served.ServedAt)
	assert.Equal(t, testNow, *served.ServedAt)
	require.NotNil(t, served.ServedBy)
	assert.Equal(t, "staff-1", *served.ServedBy)
	assert.Nil(t, served.CancelledAt)

	log, err := f.svc.GetAppointmentActivity(ctx, staff, a.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "staff-1", log[0].StaffID)
	assert.Equal(t, domain.ActionMarkedServed, log[0].Action)

	assert.Equal(t, events.TypeCustomerServed, f.publisher.events[len(f.publisher.events)-1].Type)
	assert.Equal(t, 1, f.metrics.counts["served"])
}

func TestMarkAsServed_Customer(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, customer, "09:00")

	_, err := f.svc.MarkAsServed(context.Background(), customer, a.ID)

	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestMarkAsServed_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.MarkAsServed(ctx, admin, "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	log, err := f.svc.GetAppointmentActivity(ctx, admin, "missing")
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestMarkAsServed_ReadFailureSkipsAudit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	appts := &failingAppointments{AppointmentRepository: store.Appointments()}
	f := newFixtureWith(t, store, appts, store.Activity())
	a := f.book(t, customer, "09:00")
	appts.getErr = errors.New("read timeout")

	served, err := f.svc.MarkAsServed(ctx, staff, a.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusServed, served.Status)
	log, err := store.Activity().ListByAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestMarkAsServed_AuditFailureSwallowed(t *testing.T) {
	store := memory.NewStore()
	f := newFixtureWith(t, store, store.Appointments(), failingActivity{ActivityRepository: store.Activity()})
	a := f.book(t, customer, "09:00")

	served, err := f.svc.MarkAsServed(context.Background(), staff, a.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusServed, served.Status)
}

func TestGetServiceQueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	late := f.book(t, customer, "11:00")
	early := f.book(t, otherCustomer, "09:00")
	middle := f.book(t, customer, "10:00")
	cancelled := f.book(t, customer, "09:30")
	_, err := f.svc.MarkAsServed(ctx, staff, early.ID)
	require.NoError(t, err)
	_, err = f.svc.CancelAppointment(ctx, customer, cancelled.ID)
	require.NoError(t, err)

	queue, err := f.svc.GetServiceQueue(ctx, "svc-1", testDate)

	require.NoError(t, err)
	require.Len(t, queue.Entries, 3)
	assert.Equal(t, early.ID, queue.Entries[0].Appointment.ID)
	assert.Nil(t, queue.Entries[0].Position)
	assert.Equal(t, middle.ID, queue.Entries[1].Appointment.ID)
	assert.Equal(t, ptr.To(0), queue.Entries[1].Position)
	assert.Equal(t, late.ID, queue.Entries[2].Appointment.ID)
	assert.Equal(t, ptr.To(1), queue.Entries[2].Position)
	assert.Equal(t, 2, queue.WaitingCount)
	assert.Equal(t, 1, queue.ServedCount)
}

func TestGetUserAppointments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, customer, "09:00")
	req := bookRequest("svc-1", "10:00")
	req.Date = testDate.AddDate(0, 0, 2)
	later, err := f.svc.BookAppointment(ctx, customer, req)
	require.NoError(t, err)
	f.book(t, otherCustomer, "09:30")

	list, err := f.svc.GetUserAppointments(ctx, customer, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, later.ID, list[0].ID)

	_, err = f.svc.GetUserAppointments(ctx, otherCustomer, "user-1")
	assert.ErrorIs(t, err, ErrAccessDenied)

	list, err = f.svc.GetUserAppointments(ctx, staff, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestListAppointments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.book(t, customer, "09:00")
	f.book(t, otherCustomer, "09:30")
	_, err := f.svc.MarkAsServed(ctx, staff, a.ID)
	require.NoError(t, err)

	status := domain.StatusServed
	list, err := f.svc.ListAppointments(ctx, staff, &models.ListAppointmentsRequest{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	bad := domain.AppointmentStatus("lost")
	_, err = f.svc.ListAppointments(ctx, staff, &models.ListAppointmentsRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.ListAppointments(ctx, customer, &models.ListAppointmentsRequest{})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetTodayStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.book(t, customer, "09:00")
	b := f.book(t, customer, "09:30")
	f.book(t, customer, "10:00")
	req := bookRequest("svc-1", "10:00")
	req.Date = testDate.AddDate(0, 0, -1)
	_, err := f.svc.BookAppointment(ctx, customer, req)
	require.NoError(t, err)
	_, err = f.svc.MarkAsServed(ctx, staff, a.ID)
	require.NoError(t, err)
	_, err = f.svc.CancelAppointment(ctx, customer, b.ID)
	require.NoError(t, err)

	stats, err := f.svc.GetTodayStats(ctx, staff)

	require.NoError(t, err)
	assert.Equal(t, testDate, stats.Date)
	assert.Equal(t, 3, stats.Today)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Waiting)
	assert.Equal(t, 1, stats.Served)
	assert.Equal(t, 1, stats.Cancelled)

	_, err = f.svc.GetTodayStats(ctx, customer)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = f.svc.GetTodayStats(ctx, domain.Session{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestToday_UsesLocation(t *testing.T) {
	store := memory.NewStore()
	loc := time.FixedZone("UTC+3", 3*60*60)
	svc := NewServiceWithDeps(store.Appointments(), store.Activity(), nil, nil, loc,
		fixedTime{now: time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)}, fixedRandom{}, logger.NewNop())

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), svc.Today())
}

func TestGetAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.store.Services().Create(ctx, &domain.Service{ID: "svc-1", Name: "Passports", IsActive: true})
	require.NoError(t, err)

	f.book(t, customer, "09:00")
	f.book(t, customer, "09:30")
	f.book(t, customer, "10:00")
	_, err = f.svc.BookAppointment(ctx, customer, bookRequest("svc-gone", "10:30"))
	require.NoError(t, err)

	analytics, err := f.svc.GetAnalytics(ctx, admin)

	require.NoError(t, err)
	assert.Equal(t, 4, analytics.Stats.Total)
	assert.Equal(t, []domain.HourBucket{{Hour: 9, Count: 2}, {Hour: 10, Count: 2}}, analytics.BusiestSlots)
	require.Len(t, analytics.ServiceBreakdown, 2)
	assert.Equal(t, domain.ServiceCount{ServiceID: "svc-1", ServiceName: "Passports", Count: 3}, analytics.ServiceBreakdown[0])
	assert.Equal(t, domain.UnknownServiceName, analytics.ServiceBreakdown[1].ServiceName)

	_, err = f.svc.GetAnalytics(ctx, staff)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
