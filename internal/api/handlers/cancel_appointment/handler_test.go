package cancel_appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/api/middleware"
	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments/models"
	"github.com/m04kA/SMC-QueueService/pkg/logger"
)

func setup(t *testing.T) (http.Handler, *domain.Appointment) {
	t.Helper()
	store := memory.NewStore()
	svc := appointments.NewService(store.Appointments(), store.Activity(), nil, nil, time.UTC, logger.NewNop())

	a, err := svc.BookAppointment(context.Background(), domain.Session{UserID: "user-1"}, &models.BookAppointmentRequest{
		ServiceID:    "svc-1",
		Date:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Time:         "09:00",
		CustomerName: "Alice",
	})
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(middleware.Auth)
	r.HandleFunc("/api/v1/appointments/{appointmentId}/cancel", NewHandler(svc, logger.NewNop()).Handle).
		Methods(http.MethodPatch)
	return r, a
}

func patch(h http.Handler, id, userID, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/"+id+"/cancel", nil)
	req.Header.Set(middleware.HeaderUserID, userID)
	req.Header.Set(middleware.HeaderUserRole, role)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandle_Owner(t *testing.T) {
	h, a := setup(t)

	rec := patch(h, a.ID, "user-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "cancelled", resp.Status)
	assert.NotNil(t, resp.CancelledAt)
}

func TestHandle_Errors(t *testing.T) {
	h, a := setup(t)

	assert.Equal(t, http.StatusForbidden, patch(h, a.ID, "user-2", "customer").Code)
	assert.Equal(t, http.StatusNotFound, patch(h, "missing", "staff-1", "staff").Code)
}
