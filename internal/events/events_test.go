package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type countingMetrics struct {
	mu        sync.Mutex
	published map[string]int
	dropped   map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{published: map[string]int{}, dropped: map[string]int{}}
}

func (m *countingMetrics) EventPublished(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[t]++
}

func (m *countingMetrics) EventDropped(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[t]++
}

func (m *countingMetrics) SetSubscribers(string, int) {}

func mustEvent(t *testing.T, typ Type, key string) Event {
	t.Helper()
	e, err := New(typ, key, map[string]string{"id": key}, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return e
}

func TestBroker_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroker(nil)
	ch1, unsub1 := b.Subscribe(4)
	ch2, unsub2 := b.Subscribe(4)
	defer unsub1()
	defer unsub2()

	evt := mustEvent(t, TypeAppointmentBooked, "a-1")
	require.NoError(t, b.Publish(context.Background(), evt))

	got1 := <-ch1
	got2 := <-ch2
	assert.Equal(t, evt.ID, got1.ID)
	assert.Equal(t, evt.ID, got2.ID)
	assert.Equal(t, b.Origin(), got1.Origin)
}

func TestBroker_DropsWhenSubscriberIsFull(t *testing.T) {
	m := newCountingMetrics()
	b := NewBroker(m)
	ch, unsub := b.Subscribe(1)
	defer unsub()

	require.NoError(t, b.Publish(context.Background(), mustEvent(t, TypeCustomerServed, "a-1")))
	require.NoError(t, b.Publish(context.Background(), mustEvent(t, TypeCustomerServed, "a-2")))

	first := <-ch
	assert.Equal(t, "a-1", first.Key)
	assert.Equal(t, 2, m.published[string(TypeCustomerServed)])
	assert.Equal(t, 1, m.dropped[string(TypeCustomerServed)])
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker(nil)
	ch, unsub := b.Subscribe(1)
	assert.Equal(t, 1, b.SubscriberCount())

	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(nil)
	ch, _ := b.Subscribe(1)
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, b.Publish(context.Background(), mustEvent(t, TypeQueuesUpdated, "svc")))

	late, _ := b.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, Event) error { return p.err }

func TestFanout_JoinsErrors(t *testing.T) {
	b := NewBroker(nil)
	ch, unsub := b.Subscribe(1)
	defer unsub()
	boom := errors.New("boom")

	err := Fanout{b, nil, failingPublisher{err: boom}}.Publish(context.Background(), mustEvent(t, TypeAppointmentCancelled, "a-1"))

	assert.ErrorIs(t, err, boom)
	assert.Len(t, ch, 1)
}

func TestRedisBus_RelaySkipsOwnEvents(t *testing.T) {
	local := NewBroker(nil)
	bus := NewRedisBus(nil, "queue-events", local, nopLogger{})
	ch, unsub := local.Subscribe(4)
	defer unsub()

	own := mustEvent(t, TypeAppointmentBooked, "own")
	own.Origin = local.Origin()
	remote := mustEvent(t, TypeAppointmentBooked, "remote")
	remote.Origin = "other-instance"

	ownPayload, err := json.Marshal(own)
	require.NoError(t, err)
	remotePayload, err := json.Marshal(remote)
	require.NoError(t, err)

	require.NoError(t, bus.relay(context.Background(), string(ownPayload)))
	require.NoError(t, bus.relay(context.Background(), string(remotePayload)))

	require.Len(t, ch, 1)
	got := <-ch
	assert.Equal(t, "remote", got.Key)
	assert.Equal(t, "other-instance", got.Origin)

	assert.ErrorIs(t, bus.relay(context.Background(), "{not json"), ErrRedisDecode)
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_WritesLifecycleEventsOnly(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w)

	booked := mustEvent(t, TypeAppointmentBooked, "a-1")
	require.NoError(t, sink.Publish(context.Background(), booked))
	require.NoError(t, sink.Publish(context.Background(), mustEvent(t, TypeQueuesUpdated, "svc-1")))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, []byte("a-1"), msg.Key)
	assert.JSONEq(t, `{"id":"a-1"}`, string(msg.Value))
	assert.Equal(t, "event_type", msg.Headers[1].Key)
	assert.Equal(t, []byte(TypeAppointmentBooked), msg.Headers[1].Value)
}

func TestKafkaSink_WrapsWriteError(t *testing.T) {
	sink := NewKafkaSink(&fakeWriter{err: errors.New("leader not available")})

	err := sink.Publish(context.Background(), mustEvent(t, TypeCustomerServed, "a-1"))
	assert.ErrorIs(t, err, ErrKafkaWrite)
}

type fakeQueues struct {
	today  time.Time
	queues map[string]*domain.ServiceQueue
}

func (f *fakeQueues) Today() time.Time { return f.today }

func (f *fakeQueues) GetServiceQueue(_ context.Context, serviceID string, _ time.Time) (*domain.ServiceQueue, error) {
	q, ok := f.queues[serviceID]
	if !ok {
		return nil, errors.New("store unavailable")
	}
	return q, nil
}

type fakeServices []*domain.Service

func (f fakeServices) ListServices(context.Context, bool) ([]*domain.Service, error) {
	return f, nil
}

func TestReconciler_PublishesSnapshots(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	queue := domain.BuildServiceQueue("svc-1", today, []*domain.Appointment{
		{ID: "a", QueueNumber: "Q-SVC1-0315-001", AppointmentTime: "09:00", Status: domain.StatusServed},
		{ID: "b", QueueNumber: "Q-SVC1-0315-002", AppointmentTime: "09:30", Status: domain.StatusWaiting},
	})
	queues := &fakeQueues{today: today, queues: map[string]*domain.ServiceQueue{"svc-1": queue}}
	services := fakeServices{{ID: "svc-1", IsActive: true}, {ID: "svc-broken", IsActive: true}}

	b := NewBroker(nil)
	ch, unsub := b.Subscribe(4)
	defer unsub()

	r := NewReconciler(queues, services, b, time.Second, nopLogger{})
	n, err := r.ReconcileOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)

	evt := <-ch
	assert.Equal(t, TypeQueuesUpdated, evt.Type)
	var snap QueueSnapshot
	require.NoError(t, json.Unmarshal(evt.Data, &snap))
	assert.Equal(t, "2024-03-15", snap.Date)
	assert.Equal(t, 1, snap.Waiting)
	assert.Equal(t, 1, snap.Served)
	require.NotNil(t, snap.NextQueueNumber)
	assert.Equal(t, "Q-SVC1-0315-002", *snap.NextQueueNumber)
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	queues := &fakeQueues{today: time.Now(), queues: map[string]*domain.ServiceQueue{}}
	r := NewReconciler(queues, fakeServices{}, NewBroker(nil), 10*time.Millisecond, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func servedAppointment() *domain.Appointment {
	email := "alice@example.com"
	phone := "+10000000000"
	return &domain.Appointment{
		ID:              "a-1",
		UserID:          "user-1",
		ServiceID:       "svc-1",
		AppointmentDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		AppointmentTime: "09:30",
		QueueNumber:     "Q-SVC1-0315-007",
		Status:          domain.StatusServed,
		CustomerName:    "Alice",
		CustomerEmail:   &email,
		CustomerPhone:   &phone,
	}
}

func TestNewAppointmentEvent_ContactsOnlyInNotification(t *testing.T) {
	e, err := NewAppointmentEvent(TypeCustomerServed, servedAppointment(), "staff-1", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "a-1", e.Key)
	assert.JSONEq(t, `{
		"id": "a-1",
		"serviceId": "svc-1",
		"appointmentDate": "2024-03-15",
		"appointmentTime": "09:30",
		"queueNumber": "Q-SVC1-0315-007",
		"status": "served"
	}`, string(e.Data))

	var notification NotificationData
	require.NoError(t, json.Unmarshal(e.Notification, &notification))
	assert.Equal(t, "user-1", notification.UserID)
	assert.Equal(t, "Alice", notification.CustomerName)
	require.NotNil(t, notification.CustomerEmail)
	assert.Equal(t, "alice@example.com", *notification.CustomerEmail)
	assert.Equal(t, "staff-1", notification.ActorID)

	// notification не сериализуется вместе с событием (websocket, Redis)
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "customerEmail")
	assert.NotContains(t, string(raw), "customerPhone")
	assert.NotContains(t, string(raw), "alice@example.com")
}

func TestBroker_StripsNotification(t *testing.T) {
	b := NewBroker(nil)
	ch, unsub := b.Subscribe(1)
	defer unsub()

	e, err := NewAppointmentEvent(TypeAppointmentBooked, servedAppointment(), "user-1", time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, e.Notification)

	require.NoError(t, b.Publish(context.Background(), e))

	got := <-ch
	assert.Nil(t, got.Notification)
	assert.NotContains(t, string(got.Data), "customerEmail")
	assert.NotContains(t, string(got.Data), "customerPhone")
	assert.NotContains(t, string(got.Data), "customerName")
}

func TestKafkaSink_WritesNotificationPayload(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w)

	e, err := NewAppointmentEvent(TypeAppointmentBooked, servedAppointment(), "user-1", time.Now())
	require.NoError(t, err)
	require.NoError(t, sink.Publish(context.Background(), e))

	require.Len(t, w.messages, 1)
	var notification NotificationData
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &notification))
	assert.Equal(t, "a-1", notification.ID)
	require.NotNil(t, notification.CustomerPhone)
	assert.Equal(t, "+10000000000", *notification.CustomerPhone)
}
