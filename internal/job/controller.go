package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/metrics"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
)

// DefaultPollInterval is the wait between two status polls.
const DefaultPollInterval = 1200 * time.Millisecond

// Transport is the subset of the service client used by the controller.
type Transport interface {
	SubmitAnonymize(ctx context.Context, req models.SubmissionRequest) (client.Submission, error)
	AnonymizeStatus(ctx context.Context, jobID string) (client.StatusReport, error)
	SubmitDeanonymize(ctx context.Context, req models.DeanonymizeRequest) (client.Submission, error)
	DeanonymizeStatus(ctx context.Context, jobID string) (client.StatusReport, error)
}

// Options tunes the polling loop.
type Options struct {
	PollInterval time.Duration // 0 means DefaultPollInterval
	MaxPolls     int           // 0 means unbounded
	Timeout      time.Duration // overall polling timeout, 0 means unbounded
	Logger       *slog.Logger
	Metrics      *metrics.Collector
}

// Controller runs one operation per slot: submit, then poll until the job
// reaches a terminal status, handing the outcome to the Store.
type Controller struct {
	transport Transport
	store     *Store
	opts      Options
	logger    *slog.Logger
}

// NewController creates a controller writing to store.
func NewController(transport Transport, store *Store, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		transport: transport,
		store:     store,
		opts:      opts,
		logger:    logger,
	}
}

// Store returns the store the controller writes to.
func (c *Controller) Store() *Store {
	return c.store
}

// Anonymize submits req and follows the job until it finishes.
func (c *Controller) Anonymize(ctx context.Context, req models.SubmissionRequest) (models.JobResult, error) {
	submit := func(ctx context.Context) (client.Submission, error) {
		return c.transport.SubmitAnonymize(ctx, req)
	}
	return c.run(ctx, models.OperationAnonymize, submit, c.transport.AnonymizeStatus)
}

// Deanonymize submits req and follows the job until it finishes.
func (c *Controller) Deanonymize(ctx context.Context, req models.DeanonymizeRequest) (models.JobResult, error) {
	submit := func(ctx context.Context) (client.Submission, error) {
		return c.transport.SubmitDeanonymize(ctx, req)
	}
	return c.run(ctx, models.OperationDeanonymize, submit, c.transport.DeanonymizeStatus)
}

type submitFunc func(ctx context.Context) (client.Submission, error)

type statusFunc func(ctx context.Context, jobID string) (client.StatusReport, error)

func (c *Controller) run(ctx context.Context, op models.Operation, submit submitFunc, status statusFunc) (models.JobResult, error) {
	token := c.store.Begin(op)
	defer c.store.Update(op, token, func(s *Snapshot) { s.Loading = false })

	logger := c.logger.With("operation", op)
	m := c.opts.Metrics

	start := time.Now()
	sub, err := submit(ctx)
	m.RecordTiming(metrics.OpSubmit, time.Since(start))
	if err != nil {
		m.RecordSubmission(string(op), metrics.OutcomeError)
		logger.Error("submission failed", "error", err)
		return c.fail(op, token, err)
	}
	if !c.store.Current(op, token) {
		return c.superseded(op, logger)
	}

	if !sub.Deferred() {
		m.RecordSubmission(string(op), metrics.OutcomeImmediate)
		var result models.JobResult
		if sub.Result != nil {
			result = *sub.Result
		}
		result.Operation = op
		logger.Info("immediate result", "chars", result.CharCount())
		return c.done(op, token, result)
	}

	m.RecordSubmission(string(op), metrics.OutcomeDeferred)
	jobID := sub.JobID
	logger = logger.With("job_id", jobID)
	logger.Info("job queued")
	c.store.Update(op, token, func(s *Snapshot) {
		s.Phase = PhasePolling
		s.JobID = jobID
		s.LastStatus = models.JobStatusPending
	})

	return c.poll(ctx, op, token, jobID, status, logger)
}

func (c *Controller) poll(ctx context.Context, op models.Operation, token uint64, jobID string, status statusFunc, logger *slog.Logger) (models.JobResult, error) {
	m := c.opts.Metrics

	var deadline <-chan time.Time
	if c.opts.Timeout > 0 {
		timer := time.NewTimer(c.opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	wait := time.NewTimer(c.opts.PollInterval)
	defer wait.Stop()

	for polls := 0; ; {
		if !c.store.Current(op, token) {
			return c.superseded(op, logger)
		}
		if c.opts.MaxPolls > 0 && polls >= c.opts.MaxPolls {
			return c.fail(op, token, fmt.Errorf("%w: job %s after %d polls", ErrPollLimit, jobID, polls))
		}

		if err := ctx.Err(); err != nil {
			logger.Warn("polling cancelled", "polls", polls)
			return c.fail(op, token, err)
		}

		select {
		case <-ctx.Done():
			logger.Warn("polling cancelled", "polls", polls)
			return c.fail(op, token, ctx.Err())
		case <-deadline:
			return c.fail(op, token, fmt.Errorf("%w: job %s after %s", ErrPollTimeout, jobID, c.opts.Timeout))
		case <-wait.C:
		}

		if !c.store.Current(op, token) {
			return c.superseded(op, logger)
		}

		start := time.Now()
		report, err := status(ctx, jobID)
		m.RecordTiming(metrics.OpPoll, time.Since(start))
		polls++
		if err != nil {
			m.RecordPoll(string(op), "failed")
			logger.Error("status poll failed", "polls", polls, "error", err)
			return c.fail(op, token, err)
		}
		m.RecordPoll(string(op), string(report.Status))

		// A late response for a superseded job must not touch the slot.
		if !c.store.Current(op, token) {
			return c.superseded(op, logger)
		}

		switch report.Status {
		case models.JobStatusFinished:
			result := report.Result
			result.JobID = jobID
			result.Operation = op
			logger.Info("job finished", "polls", polls, "replacements", result.TotalReplacements())
			return c.done(op, token, result)

		case models.JobStatusError:
			logger.Error("job reported error", "polls", polls, "message", report.Error)
			return c.fail(op, token, &PollingError{JobID: jobID, Message: report.Error})

		case models.JobStatusPending:
			logger.Debug("job pending", "polls", polls)

		default:
			logger.Warn("unknown job status, still polling", "status", report.Status, "polls", polls)
		}

		c.store.Update(op, token, func(s *Snapshot) {
			s.Polls = polls
			s.LastStatus = report.Status
		})
		wait.Reset(c.opts.PollInterval)
	}
}

func (c *Controller) done(op models.Operation, token uint64, result models.JobResult) (models.JobResult, error) {
	if !c.store.Update(op, token, func(s *Snapshot) {
		s.Phase = PhaseDone
		s.JobID = ""
		s.LastStatus = models.JobStatusFinished
		s.Result = result
		s.Error = ""
		s.Loading = false
	}) {
		return models.JobResult{}, ErrSuperseded
	}
	c.opts.Metrics.RecordJob(string(op), metrics.OutcomeDone)
	return result, nil
}

func (c *Controller) fail(op models.Operation, token uint64, err error) (models.JobResult, error) {
	if !c.store.Update(op, token, func(s *Snapshot) {
		s.Phase = PhaseFailed
		s.JobID = ""
		s.Result = models.JobResult{}
		s.Error = errorMessage(err)
		s.Loading = false
		var perr *PollingError
		if errors.As(err, &perr) {
			s.LastStatus = models.JobStatusError
		}
	}) {
		return models.JobResult{}, ErrSuperseded
	}
	c.opts.Metrics.RecordJob(string(op), metrics.OutcomeFailed)
	return models.JobResult{}, err
}

func (c *Controller) superseded(op models.Operation, logger *slog.Logger) (models.JobResult, error) {
	logger.Info("operation superseded")
	c.opts.Metrics.RecordJob(string(op), metrics.OutcomeSuperseded)
	return models.JobResult{}, ErrSuperseded
}

// errorMessage returns the human-readable message shown for err.
func errorMessage(err error) string {
	var be *client.BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
