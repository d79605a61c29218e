// Package models defines data structures shared by the anonyfiles client.
package models

// Operation identifies one of the two job slots tracked by the client.
type Operation string

const (
	OperationAnonymize   Operation = "anonymize"
	OperationDeanonymize Operation = "deanonymize"
)

// JobStatus is the status string reported by the processing service.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusFinished JobStatus = "finished"
	JobStatusError    JobStatus = "error"
)

// Terminal reports whether the status ends a polling loop.
// Anything other than finished or error, including unknown values, is non-terminal.
func (s JobStatus) Terminal() bool {
	return s == JobStatusFinished || s == JobStatusError
}
