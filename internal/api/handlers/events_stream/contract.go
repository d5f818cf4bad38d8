package events_stream

import (
	"github.com/m04kA/SMC-QueueService/internal/events"
)

type Subscriber interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
