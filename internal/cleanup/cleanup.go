// Package cleanup deletes server-side job artifacts after user confirmation.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/metrics"
)

// Deleter removes a job on the service.
type Deleter interface {
	DeleteJob(ctx context.Context, jobID string) error
}

// Confirmer asks the user whether a job may be deleted.
type Confirmer interface {
	Confirm(jobID string) bool
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(jobID string) bool

func (f ConfirmerFunc) Confirm(jobID string) bool { return f(jobID) }

// AlwaysConfirm skips the prompt.
var AlwaysConfirm = ConfirmerFunc(func(string) bool { return true })

// neverConfirm declines every deletion.
var neverConfirm = ConfirmerFunc(func(string) bool { return false })

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a user-facing outcome message.
type Notification struct {
	Kind    Kind
	JobID   string
	Message string
}

// Notifier receives cleanup outcomes.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Options configures a Cleaner.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Cleaner deletes jobs and reports the outcome through a Notifier.
type Cleaner struct {
	deleter   Deleter
	confirmer Confirmer
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// New creates a Cleaner. A nil confirmer declines every deletion; pass
// AlwaysConfirm to skip the prompt.
func New(deleter Deleter, confirmer Confirmer, notifier Notifier, opts Options) *Cleaner {
	if confirmer == nil {
		confirmer = neverConfirm
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		deleter:   deleter,
		confirmer: confirmer,
		notifier:  notifier,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// DeleteJob asks for confirmation and deletes the job's artifacts.
// It reports true only when the service confirmed the deletion. A declined
// confirmation returns false without a notification.
func (c *Cleaner) DeleteJob(ctx context.Context, jobID string) bool {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		c.metrics.RecordCleanup(metrics.OutcomeError)
		c.notifier.Notify(Notification{Kind: KindError, Message: "no job id to delete"})
		return false
	}

	if !c.confirmer.Confirm(jobID) {
		c.metrics.RecordCleanup(metrics.OutcomeDeclined)
		c.logger.Debug("job deletion declined", "job_id", jobID)
		return false
	}

	start := time.Now()
	err := c.deleter.DeleteJob(ctx, jobID)
	c.metrics.RecordTiming(metrics.OpDelete, time.Since(start))
	if err != nil {
		c.metrics.RecordCleanup(metrics.OutcomeError)
		c.logger.Warn("job deletion failed", "job_id", jobID, "error", err)
		c.notifier.Notify(Notification{Kind: KindError, JobID: jobID, Message: failureMessage(jobID, err)})
		return false
	}

	c.metrics.RecordCleanup(metrics.OutcomeSuccess)
	c.logger.Info("job deleted", "job_id", jobID)
	c.notifier.Notify(Notification{Kind: KindSuccess, JobID: jobID, Message: fmt.Sprintf("job %s deleted", jobID)})
	return true
}

func failureMessage(jobID string, err error) string {
	var be *client.BackendError
	if errors.As(err, &be) {
		if be.Structured && be.Message != "" {
			return be.Message
		}
		return fmt.Sprintf("failed to delete job %s: status %d", jobID, be.StatusCode)
	}

	var ne *client.NetworkError
	if errors.As(err, &ne) {
		return fmt.Sprintf("network error while deleting job %s: %v", jobID, ne.Err)
	}

	return err.Error()
}
