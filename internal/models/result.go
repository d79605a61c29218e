package models

import (
	"strings"
	"unicode/utf8"
)

// AuditEntry records one applied transformation.
type AuditEntry struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
	Type        string `json:"type" yaml:"type"`
	Count       int    `json:"count" yaml:"count"`
}

// JobResult is the materialised output of a finished operation.
// JobID is the job that produced it (empty for immediate results); it is kept for
// follow-up downloads and cleanup and is never polled again.
type JobResult struct {
	JobID      string       `json:"job_id,omitempty"`
	Operation  Operation    `json:"operation"`
	Text       string       `json:"text"`
	AuditLog   []AuditEntry `json:"audit_log,omitempty"`
	MappingCSV string       `json:"mapping_csv,omitempty"`
}

// LineCount returns the number of lines in the output text, 0 when empty.
func (r JobResult) LineCount() int {
	if r.Text == "" {
		return 0
	}
	return strings.Count(r.Text, "\n") + 1
}

// CharCount returns the number of characters in the output text.
func (r JobResult) CharCount() int {
	return utf8.RuneCountInString(r.Text)
}

// TotalReplacements sums the occurrence counts of the audit log.
func (r JobResult) TotalReplacements() int {
	total := 0
	for _, e := range r.AuditLog {
		total += e.Count
	}
	return total
}
