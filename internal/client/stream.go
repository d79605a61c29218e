package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// errStreamClosed is returned when the server closes the stream before a terminal status.
var errStreamClosed = errors.New("status stream closed before a terminal status")

// WatchStatus subscribes to /ws/{job_id} and invokes onStatus for every status
// payload pushed by the server. It returns nil once a terminal status has been
// delivered. Return an error from onStatus to abort.
//
// Stream payloads carry the status and error only; result fields are fetched
// with the status endpoints or DownloadFile.
func (c *Client) WatchStatus(ctx context.Context, jobID string, onStatus func(StatusReport) error) error {
	if strings.TrimSpace(jobID) == "" {
		return &ValidationError{Field: "job_id", Message: "job id is required"}
	}

	wsEndpoint := c.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/ws/" + url.PathEscape(jobID))
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	header.Set(RequestIDHeader, uuid.NewString())

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && !isSuccess(resp.StatusCode) && resp.StatusCode != http.StatusSwitchingProtocols {
			return &BackendError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &NetworkError{Op: "websocket connect", Err: err}
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				return &BackendError{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("job %s not found", jobID)}
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errStreamClosed
			}
			return &NetworkError{Op: "websocket read", Err: err}
		}

		report, err := decodeStatus("", jobID, data)
		if err != nil {
			return err
		}

		c.logger.Debug("status pushed", "job_id", jobID, "status", report.Status)
		if err := onStatus(report); err != nil {
			return err
		}
		if report.Status.Terminal() {
			return nil
		}
	}
}
