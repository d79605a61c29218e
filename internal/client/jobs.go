package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// FileKey names a result artifact stored for a job.
type FileKey string

const (
	FileOutput      FileKey = "output"
	FileMapping     FileKey = "mapping"
	FileLogEntities FileKey = "log_entities"
	FileAuditLog    FileKey = "audit_log"
)

// FileKeys lists the artifacts the service can serve.
var FileKeys = []FileKey{FileOutput, FileMapping, FileLogEntities, FileAuditLog}

// DeleteJob removes all server-side artifacts of a job.
// Any 2xx status (204 expected) is success.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return &ValidationError{Field: "job_id", Message: "job id is required"}
	}

	resp, err := c.do(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(jobID), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if !isSuccess(resp.StatusCode) {
		return newBackendError(resp.StatusCode, body)
	}
	return nil
}

// DownloadFile streams a job artifact into w and returns the number of bytes written.
func (c *Client) DownloadFile(ctx context.Context, jobID string, key FileKey, w io.Writer) (int64, error) {
	if strings.TrimSpace(jobID) == "" {
		return 0, &ValidationError{Field: "job_id", Message: "job id is required"}
	}
	if !slices.Contains(FileKeys, key) {
		return 0, &ValidationError{Field: "file_key", Message: fmt.Sprintf("unknown file key %q", key)}
	}

	path := "/files/" + url.PathEscape(jobID) + "/" + string(key)
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, newBackendError(resp.StatusCode, body)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &NetworkError{Op: "download " + string(key), Err: err}
	}
	return n, nil
}
