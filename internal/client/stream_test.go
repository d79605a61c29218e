package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func newStreamServer(t *testing.T, handler func(conn *websocket.Conn, jobID string)) *client.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ws/{id}", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn, r.PathValue("id"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return client.New(srv.URL + "/api")
}

func TestWatchStatusUntilTerminal(t *testing.T) {
	c := newStreamServer(t, func(conn *websocket.Conn, jobID string) {
		for _, status := range []string{"pending", "pending", "finished"} {
			if err := conn.WriteJSON(map[string]string{"job_id": jobID, "status": status}); err != nil {
				return
			}
		}
		// Hold the connection open; the client must stop on its own.
		_, _, _ = conn.ReadMessage()
	})

	var seen []models.JobStatus
	err := c.WatchStatus(context.Background(), "j1", func(r client.StatusReport) error {
		assert.Equal(t, "j1", r.JobID)
		seen = append(seen, r.Status)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []models.JobStatus{"pending", "pending", "finished"}, seen)
}

func TestWatchStatusErrorMessage(t *testing.T) {
	c := newStreamServer(t, func(conn *websocket.Conn, jobID string) {
		_ = conn.WriteJSON(map[string]string{"status": "error", "error": "engine crashed"})
		_, _, _ = conn.ReadMessage()
	})

	var last client.StatusReport
	err := c.WatchStatus(context.Background(), "j1", func(r client.StatusReport) error {
		last = r
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, last.Status)
	assert.Equal(t, "engine crashed", last.Error)
}

func TestWatchStatusUnknownJob(t *testing.T) {
	c := newStreamServer(t, func(conn *websocket.Conn, jobID string) {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "job not found")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	err := c.WatchStatus(context.Background(), "missing", func(client.StatusReport) error {
		t.Fatal("no status expected")
		return nil
	})

	var be *client.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusNotFound, be.StatusCode)
}

func TestWatchStatusCancel(t *testing.T) {
	c := newStreamServer(t, func(conn *websocket.Conn, jobID string) {
		_ = conn.WriteJSON(map[string]string{"status": "pending"})
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	err := c.WatchStatus(ctx, "j1", func(client.StatusReport) error {
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchStatusEmptyID(t *testing.T) {
	c := client.New("http://127.0.0.1:1/api")
	err := c.WatchStatus(context.Background(), "", func(client.StatusReport) error { return nil })

	var verr *client.ValidationError
	assert.ErrorAs(t, err, &verr)
}
