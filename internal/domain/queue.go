package domain

import "time"

// QueueEntry запись в очереди услуги. Position заполнена только для waiting
// и равна индексу среди ожидающих, отсортированных по времени слота (с 0).
type QueueEntry struct {
	Appointment *Appointment
	Position    *int
}

// ServiceQueue очередь услуги на дату
type ServiceQueue struct {
	ServiceID    string
	Date         time.Time
	Entries      []QueueEntry
	WaitingCount int
	ServedCount  int
}

// BuildServiceQueue раскладывает записи (уже отсортированные по appointment_time)
// в очередь с позициями
func BuildServiceQueue(serviceID string, date time.Time, appointments []*Appointment) *ServiceQueue {
	queue := &ServiceQueue{
		ServiceID: serviceID,
		Date:      date,
		Entries:   make([]QueueEntry, 0, len(appointments)),
	}

	for _, a := range appointments {
		entry := QueueEntry{Appointment: a}
		switch a.Status {
		case StatusWaiting:
			pos := queue.WaitingCount
			entry.Position = &pos
			queue.WaitingCount++
		case StatusServed:
			queue.ServedCount++
		}
		queue.Entries = append(queue.Entries, entry)
	}

	return queue
}

// Stats агрегаты по записям: Today считается за дату Date, остальные счетчики по всем записям
type Stats struct {
	Date      time.Time
	Today     int
	Total     int
	Waiting   int
	Served    int
	Cancelled int
}

// HourBucket количество записей в часовом интервале
type HourBucket struct {
	Hour  int
	Count int
}

// ServiceCount количество записей по услуге
type ServiceCount struct {
	ServiceID   string
	ServiceName string
	Count       int
}

// Analytics расширенная статистика для администраторов
type Analytics struct {
	Stats            Stats
	BusiestSlots     []HourBucket
	ServiceBreakdown []ServiceCount
}
