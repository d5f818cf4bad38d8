package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/domain"
)

const (
	// HeaderUserID идентификатор пользователя, проставляется шлюзом идентификации
	HeaderUserID = "X-User-ID"
	// HeaderUserRole роль пользователя: customer (по умолчанию), staff, admin
	HeaderUserRole = "X-User-Role"

	msgInvalidRole = "некорректная роль пользователя"
)

type sessionKey struct{}

// Auth собирает сессию из заголовков шлюза. Без X-User-ID запрос отклоняется с 401.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			handlers.RespondUnauthorized(w)
			return
		}

		role, ok := domain.ParseRole(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
		if !ok {
			handlers.RespondBadRequest(w, msgInvalidRole)
			return
		}

		session := domain.Session{UserID: userID, Role: role}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// WithSession кладет сессию в контекст
func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSession достает сессию из контекста. Для публичных маршрутов возвращает анонимную сессию.
func GetSession(ctx context.Context) domain.Session {
	session, _ := ctx.Value(sessionKey{}).(domain.Session)
	return session
}
