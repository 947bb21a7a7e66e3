package jobs

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJobsRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestEnqueueIntegrityWithoutClient(t *testing.T) {
	router := newJobsRouter(NewHandler(nil, nil, discardLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/integrity", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEnqueueIntegrityRejectsBadPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	router := newJobsRouter(NewHandler(nil, client, discardLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/integrity", strings.NewReader(`{"product_id":`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnqueueIntegrityQueuesTask(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = inspector.Close() })

	router := newJobsRouter(NewHandler(inspector, client, discardLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/integrity", strings.NewReader(`{"product_id":7}`)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), "task_id")

	info, err := inspector.GetQueueInfo(QueueDefault)
	require.NoError(t, err)
	require.Equal(t, 1, info.Pending)
}
