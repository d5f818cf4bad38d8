package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

// Type тип события
type Type string

const (
	TypeAppointmentBooked    Type = "appointment_booked"
	TypeAppointmentCancelled Type = "appointment_cancelled"
	TypeCustomerServed       Type = "customer_served"
	TypeQueuesUpdated        Type = "queues_updated"
	TypeServiceCreated       Type = "service_created"
	TypeServiceDeactivated   Type = "service_deactivated"
)

// IsLifecycle returns true for appointment state transitions
func (t Type) IsLifecycle() bool {
	switch t {
	case TypeAppointmentBooked, TypeAppointmentCancelled, TypeCustomerServed:
		return true
	}
	return false
}

// Event уведомление подписчиков об изменении. Доставка не гарантируется:
// потерянное событие компенсируется периодической сверкой.
//
// Data уходит всем подписчикам, включая публичный websocket, поэтому в нем нет
// персональных данных. Notification читает только KafkaSink: поле не сериализуется
// и брокер убирает его перед рассылкой.
type Event struct {
	ID           string          `json:"id"`
	Type         Type            `json:"type"`
	Key          string          `json:"key,omitempty"`
	Data         json.RawMessage `json:"data"`
	Notification json.RawMessage `json:"-"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Origin       string          `json:"origin,omitempty"`
}

// New создает событие с сериализованными данными
func New(t Type, key string, data interface{}, at time.Time) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("events: marshal %s payload: %w", t, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Key:        key,
		Data:       raw,
		OccurredAt: at.UTC(),
	}, nil
}

// AppointmentData публичный снимок записи: ровно то, что нужно табло для обновления
type AppointmentData struct {
	ID          string `json:"id"`
	ServiceID   string `json:"serviceId"`
	Date        string `json:"appointmentDate"`
	Time        string `json:"appointmentTime"`
	QueueNumber string `json:"queueNumber"`
	Status      string `json:"status"`
}

// NewAppointmentData снимок записи для события
func NewAppointmentData(a *domain.Appointment) AppointmentData {
	return AppointmentData{
		ID:          a.ID,
		ServiceID:   a.ServiceID,
		Date:        a.AppointmentDate.Format(domain.DateFormat),
		Time:        a.AppointmentTime.String(),
		QueueNumber: a.QueueNumber,
		Status:      string(a.Status),
	}
}

// NotificationData данные для сервиса уведомлений, с контактами клиента
type NotificationData struct {
	AppointmentData
	UserID        string  `json:"userId"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail *string `json:"customerEmail,omitempty"`
	CustomerPhone *string `json:"customerPhone,omitempty"`
	ActorID       string  `json:"actorId,omitempty"`
}

// NewAppointmentEvent событие жизненного цикла записи: публичный снимок в Data,
// контакты клиента в Notification
func NewAppointmentEvent(t Type, a *domain.Appointment, actorID string, at time.Time) (Event, error) {
	data := NewAppointmentData(a)
	e, err := New(t, a.ID, data, at)
	if err != nil {
		return Event{}, err
	}

	raw, err := json.Marshal(NotificationData{
		AppointmentData: data,
		UserID:          a.UserID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		CustomerPhone:   a.CustomerPhone,
		ActorID:         actorID,
	})
	if err != nil {
		return Event{}, fmt.Errorf("events: marshal %s notification: %w", t, err)
	}
	e.Notification = raw
	return e, nil
}

// QueueSnapshot данные события queues_updated
type QueueSnapshot struct {
	ServiceID       string  `json:"serviceId"`
	Date            string  `json:"date"`
	Waiting         int     `json:"waiting"`
	Served          int     `json:"served"`
	NextQueueNumber *string `json:"nextQueueNumber,omitempty"`
}

// NewQueueSnapshot сводка очереди для события
func NewQueueSnapshot(q *domain.ServiceQueue) QueueSnapshot {
	snap := QueueSnapshot{
		ServiceID: q.ServiceID,
		Date:      q.Date.Format(domain.DateFormat),
		Waiting:   q.WaitingCount,
		Served:    q.ServedCount,
	}
	for _, e := range q.Entries {
		if e.Position != nil && *e.Position == 0 {
			next := e.Appointment.QueueNumber
			snap.NextQueueNumber = &next
			break
		}
	}
	return snap
}

// ServiceData данные событий каталога услуг
type ServiceData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}
