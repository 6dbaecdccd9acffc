package cloudbuild

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"

	"github.com/dosanma1/cloudbuild-action/internal/console"
)

const (
	// DefaultPollInterval is how often the in-memory build status is checked.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultReportInterval is the longest gap between two status lines.
	DefaultReportInterval = 5 * time.Second
)

// Reporter receives human readable status lines.
type Reporter interface {
	Report(line string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(line string)

func (f ReporterFunc) Report(line string) { f(line) }

// Client submits builds and waits for them to finish.
type Client struct {
	service        BuildService
	reporter       Reporter
	pollInterval   time.Duration
	reportInterval time.Duration
	now            func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithReporter sets where status lines go. The default logs them at info level.
func WithReporter(r Reporter) Option {
	return func(c *Client) {
		c.reporter = r
	}
}

// WithPollInterval sets the status check interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithReportInterval sets how often an unchanged status is repeated.
func WithReportInterval(d time.Duration) Option {
	return func(c *Client) {
		c.reportInterval = d
	}
}

// WithClock sets the clock used to space out repeated status lines.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for the given build service.
func NewClient(service BuildService, opts ...Option) *Client {
	c := &Client{
		service:        service,
		reporter:       ReporterFunc(console.Info),
		pollInterval:   DefaultPollInterval,
		reportInterval: DefaultReportInterval,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type waitOutcome struct {
	build *cloudbuildpb.Build
	err   error
}

// BuildDockerImage submits a docker build and blocks until it resolves.
//
// Every failure is reported through the returned result: remote build
// failures carry the service's code and message, anything else carries
// ExceptionCode. There is no local timeout; only ctx can end the wait early.
func (c *Client) BuildDockerImage(ctx context.Context, opts BuildOptions) (result BuildResult) {
	defer func() {
		if r := recover(); r != nil {
			result = exceptionResult(fmt.Errorf("panic: %v", r))
		}
	}()

	req, err := NewRequest(opts)
	if err != nil {
		return exceptionResult(err)
	}

	op, err := c.service.CreateBuild(ctx, req)
	if err != nil {
		return exceptionResult(err)
	}

	console.Infof("Requested build with id %s", op.Metadata().GetBuild().GetId())
	console.Debugf("Tracking operation %s", op.Name())

	done := make(chan waitOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- waitOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		build, err := op.Wait(ctx)
		done <- waitOutcome{build: build, err: err}
	}()

	outcome, err := c.poll(ctx, op, done)
	if err != nil {
		return exceptionResult(err)
	}

	if st := op.LatestError(); st != nil {
		return remoteFailureResult(op.Metadata().GetBuild().GetLogUrl(), st)
	}
	if outcome.err != nil {
		return exceptionResult(outcome.err)
	}
	if outcome.build == nil {
		return exceptionResult(fmt.Errorf("operation %s finished without a build", op.Name()))
	}
	return successResult(outcome.build)
}

// poll reports the build status until the wait goroutine delivers an outcome.
func (c *Client) poll(ctx context.Context, op Operation, done <-chan waitOutcome) (waitOutcome, error) {
	tracker := newStatusTracker(c.reportInterval, c.now)
	c.observe(tracker, op)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case outcome := <-done:
			return outcome, nil
		case <-ctx.Done():
			return waitOutcome{}, ctx.Err()
		case <-ticker.C:
			c.observe(tracker, op)
		}
	}
}

func (c *Client) observe(tracker *statusTracker, op Operation) {
	if line, ok := tracker.observe(op.Metadata().GetBuild().GetStatus()); ok {
		c.reporter.Report(line)
	}
}

// statusTracker decides when a status line is due: on every change, and
// whenever the same status has been held for the report interval.
type statusTracker struct {
	every     time.Duration
	now       func() time.Time
	current   cloudbuildpb.Build_Status
	lastPrint time.Time
	printed   bool
}

func newStatusTracker(every time.Duration, now func() time.Time) *statusTracker {
	return &statusTracker{every: every, now: now}
}

func (t *statusTracker) observe(status cloudbuildpb.Build_Status) (string, bool) {
	now := t.now()
	if t.printed && status == t.current && now.Sub(t.lastPrint) < t.every {
		return "", false
	}
	t.current = status
	t.lastPrint = now
	t.printed = true
	return StatusText(status), true
}
