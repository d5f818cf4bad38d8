package events_stream

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/m04kA/SMC-QueueService/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Handler struct {
	broker   Subscriber
	upgrader websocket.Upgrader
	logger   Logger
}

// NewHandler создает обработчик потока событий.
// allowedOrigins пустой означает проверку по умолчанию (тот же хост).
func NewHandler(broker Subscriber, allowedOrigins []string, logger Logger) *Handler {
	h := &Handler{
		broker: broker,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = originChecker(allowedOrigins)
	}
	return h
}

// Handle GET /api/v1/events (websocket)
// Query params: types (optional, через запятую)
// Поток только уведомляет: клиент перечитывает очередь по событию или по таймеру.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	filter := parseTypes(r.URL.Query().Get("types"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("GET /events - Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	stream, unsubscribe := h.broker.Subscribe(events.DefaultSubscriberBuf)
	defer unsubscribe()

	done := make(chan struct{})
	go h.readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	h.logger.Info("GET /events - Subscriber connected: remote=%s", r.RemoteAddr)

	for {
		select {
		case <-done:
			h.logger.Info("GET /events - Subscriber disconnected: remote=%s", r.RemoteAddr)
			return

		case e, ok := <-stream:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			if len(filter) > 0 && !filter[e.Type] {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Warn("GET /events - Write failed: remote=%s, error=%v", r.RemoteAddr, err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop читает входящие кадры до закрытия соединения, чтобы обрабатывать pong и close
func (h *Handler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func parseTypes(raw string) map[events.Type]bool {
	if raw == "" {
		return nil
	}
	filter := make(map[events.Type]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter[events.Type(t)] = true
		}
	}
	return filter
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
