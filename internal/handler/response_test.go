package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/simonkvalheim/hm9-accounts/internal/middleware"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	return &buf
}

func TestRequestLogger(t *testing.T) {
	callerID := uuid.New()

	tests := []struct {
		name       string
		callerID   uuid.UUID
		wantCaller bool
	}{
		{name: "authenticated", callerID: callerID, wantCaller: true},
		{name: "anonymous", callerID: uuid.Nil, wantCaller: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
			if tt.callerID != uuid.Nil {
				ctx = context.WithValue(ctx, appMiddleware.CustomerIDKey, tt.callerID)
			}
			req := httptest.NewRequest(http.MethodGet, "/accounts", nil).WithContext(ctx)

			requestLogger(req).Info("hello")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "req-1", entry["request_id"])
			if tt.wantCaller {
				assert.Equal(t, tt.callerID.String(), entry["caller_id"])
			} else {
				assert.NotContains(t, entry, "caller_id")
			}
		})
	}
}

func TestAsyncOperationLogsCaller(t *testing.T) {
	buf := captureLogs(t)
	s, account := newAsyncServer(t)
	callerID := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/accounts/"+account.ID.String()+"/deposit",
		bytes.NewBufferString(`{"amount": "10"}`))
	req = req.WithContext(context.WithValue(req.Context(), appMiddleware.CustomerIDKey, callerID))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, buf.String(), `"msg":"operation queued"`)
	assert.Contains(t, buf.String(), callerID.String())
}
