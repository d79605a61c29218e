package client

import (
	"fmt"

	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"github.com/tidwall/gjson"
)

// Submission is the decoded response of a submit call: either an immediate
// result or a deferred job to be polled. Exactly one of JobID and Result is set.
type Submission struct {
	JobID  string
	Result *models.JobResult
}

// Deferred reports whether the service queued a background job.
func (s Submission) Deferred() bool {
	return s.JobID != ""
}

// StatusReport is the decoded body of a status poll or stream message.
type StatusReport struct {
	JobID  string
	Status models.JobStatus
	Result models.JobResult
	Error  string
}

// Field-name variants produced by different backend versions, first match wins.
var (
	anonymizedTextKeys   = []string{"outputText", "anonymized_text"}
	auditLogKeys         = []string{"auditLog", "audit_log"}
	mappingCSVKeys       = []string{"mappingCSV", "mapping_csv"}
	deanonymizedTextKeys = []string{"deanonymized_text"}
)

// decodeSubmission normalises a submit response. Malformed or empty bodies
// become empty immediate results.
func decodeSubmission(op models.Operation, body []byte) Submission {
	if gjson.ValidBytes(body) {
		if id := gjson.GetBytes(body, "job_id").String(); id != "" {
			return Submission{JobID: id}
		}
	}
	result := decodeResult(op, body)
	return Submission{Result: &result}
}

// decodeStatus normalises a status body. Unlike submit responses, an
// unparsable status is an error.
func decodeStatus(op models.Operation, jobID string, body []byte) (StatusReport, error) {
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return StatusReport{}, fmt.Errorf("%w: status for job %s", ErrMalformedResponse, jobID)
	}

	report := StatusReport{
		JobID:  jobID,
		Status: models.JobStatus(gjson.GetBytes(body, "status").String()),
		Error:  gjson.GetBytes(body, "error").String(),
	}
	if report.Status == models.JobStatusFinished {
		report.Result = decodeResult(op, body)
		report.Result.JobID = jobID
	}
	return report, nil
}

func decodeResult(op models.Operation, body []byte) models.JobResult {
	result := models.JobResult{Operation: op}
	if !gjson.ValidBytes(body) {
		return result
	}

	switch op {
	case models.OperationAnonymize:
		result.Text = firstString(body, anonymizedTextKeys...)
		result.AuditLog = decodeAuditLog(firstArray(body, auditLogKeys...))
		result.MappingCSV = firstString(body, mappingCSVKeys...)
	case models.OperationDeanonymize:
		result.Text = firstString(body, deanonymizedTextKeys...)
	}
	return result
}

func firstString(body []byte, keys ...string) string {
	for _, key := range keys {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func firstArray(body []byte, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := gjson.GetBytes(body, key); v.IsArray() {
			return v
		}
	}
	return gjson.Result{}
}

func decodeAuditLog(arr gjson.Result) []models.AuditEntry {
	if !arr.IsArray() {
		return nil
	}
	items := arr.Array()
	entries := make([]models.AuditEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, models.AuditEntry{
			Pattern:     item.Get("pattern").String(),
			Replacement: item.Get("replacement").String(),
			Type:        item.Get("type").String(),
			Count:       int(item.Get("count").Int()),
		})
	}
	return entries
}
