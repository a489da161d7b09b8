package studio

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
)

// JobState is the lifecycle state of a video job.
type JobState string

const (
	StateIdle       JobState = "idle"
	StateSubmitting JobState = "submitting"
	StatePolling    JobState = "polling"
	StateSucceeded  JobState = "succeeded"
	StateFailed     JobState = "failed"
)

func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollDuration = 10 * time.Minute
)

// Transition is called on every state change of a job.
type Transition func(state JobState, handle JobHandle)

// VideoResult is a finished video job.
type VideoResult struct {
	Handle JobHandle
	URI    string
	Polls  int
}

type OrchestratorOptions struct {
	Provider        Provider
	Keys            KeySource
	Gate            *Gate
	SessionID       string
	PollInterval    time.Duration
	MaxPollDuration time.Duration
	Recorder        JobRecorder
	Observer        Observer
	Logger          *infra.Logger
}

// Orchestrator drives long-running video jobs from submission to a
// resolved, fetchable URI.
type Orchestrator struct {
	provider  Provider
	keys      KeySource
	gate      *Gate
	sessionID string
	interval  time.Duration
	maxWait   time.Duration
	recorder  JobRecorder
	observer  Observer
	logger    *infra.Logger
}

func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	o := &Orchestrator{
		provider:  opts.Provider,
		keys:      opts.Keys,
		gate:      opts.Gate,
		sessionID: opts.SessionID,
		interval:  opts.PollInterval,
		maxWait:   opts.MaxPollDuration,
		recorder:  opts.Recorder,
		observer:  opts.Observer,
		logger:    ensureLogger(opts.Logger),
	}
	if o.interval <= 0 {
		o.interval = DefaultPollInterval
	}
	if o.maxWait <= 0 {
		o.maxWait = DefaultMaxPollDuration
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.keys == nil {
		o.keys = StaticKey("")
	}
	return o
}

var errPollDeadline = errors.New("poll deadline reached")

// GenerateVideo submits req and polls it to completion. States move
// Idle -> Submitting -> Polling -> Succeeded|Failed; a submission failure
// goes straight to Failed. At most one poll is outstanding at a time.
func (o *Orchestrator) GenerateVideo(ctx context.Context, req MediaJobRequest, onState Transition) (*VideoResult, error) {
	if err := validateVideo(req); err != nil {
		return nil, err
	}
	claim, err := o.gate.Reserve(ctx)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return nil, &JobError{Kind: ErrBusy, Detail: "api key selection in progress"}
		}
		return nil, sessionClosed(err)
	}
	return o.GenerateReserved(ctx, req, claim, onState)
}

// GenerateReserved runs a job whose gate was already reserved by the caller.
// A nil claim means the key was ready at reservation time. The claim is
// released when the job leaves the gate.
func (o *Orchestrator) GenerateReserved(ctx context.Context, req MediaJobRequest, claim *GateClaim, onState Transition) (*VideoResult, error) {
	defer claim.Release()
	if err := validateVideo(req); err != nil {
		return nil, err
	}
	if onState == nil {
		onState = func(JobState, JobHandle) {}
	}

	outcome, err := claim.Wait(ctx)
	if err != nil {
		return nil, sessionClosed(err)
	}
	if outcome == CredentialNeedsSelection {
		o.logger.Info().Msg("studio: proceeding without a confirmed api key")
	}

	job := &jobRun{
		o:       o,
		onState: onState,
		record: JobRecord{
			ID:        uuid.NewString(),
			SessionID: o.sessionID,
			Kind:      KindVideo,
			Prompt:    req.Prompt,
			StartedAt: time.Now().UTC(),
		},
	}
	return job.run(ctx, req)
}

type jobRun struct {
	o       *Orchestrator
	onState Transition
	record  JobRecord
}

func validateVideo(req MediaJobRequest) error {
	if req.Kind != KindVideo || (!req.HasImage() && strings.TrimSpace(req.Prompt) == "") {
		return invalidInput("video requires a prompt or an image")
	}
	return nil
}

func (j *jobRun) run(ctx context.Context, req MediaJobRequest) (*VideoResult, error) {
	o := j.o
	start := time.Now()
	j.transition(ctx, StateSubmitting)

	o.observer.VideoSubmitted()
	op, err := o.provider.SubmitVideo(ctx, req)
	if err != nil {
		return nil, j.fail(ctx, start, classifyProviderError(ctx, err))
	}
	if op == nil || op.Handle == "" {
		return nil, j.fail(ctx, start, requestFailed(errors.New("provider returned no operation handle")))
	}
	j.record.Handle = op.Handle
	j.transition(ctx, StatePolling)

	deadline := start.Add(o.maxWait)
	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	polls := 0
	for !op.Done {
		if err := o.wait(ctx, deadline); err != nil {
			if errors.Is(err, errPollDeadline) {
				return nil, j.fail(ctx, start, &JobError{Kind: ErrTimeout, Detail: "video generation exceeded " + o.maxWait.String()})
			}
			return nil, j.fail(ctx, start, sessionClosed(err))
		}
		polls++
		o.observer.VideoPolled()
		next, err := o.provider.PollVideo(pollCtx, op)
		if err != nil {
			if ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
				return nil, j.fail(ctx, start, &JobError{Kind: ErrTimeout, Detail: "video generation exceeded " + o.maxWait.String(), Err: err})
			}
			return nil, j.fail(ctx, start, classifyProviderError(ctx, err))
		}
		if next == nil {
			return nil, j.fail(ctx, start, requestFailed(errors.New("provider returned no operation")))
		}
		if next.Handle == "" {
			next.Handle = op.Handle
		}
		op = next
		o.logger.Debug().Str("operation", string(op.Handle)).Int("poll", polls).Bool("done", op.Done).Msg("studio: polled video operation")
	}

	if op.Error != nil {
		reason := op.Error.Message
		if reason == "" {
			reason = "provider reported an error"
		}
		return nil, j.fail(ctx, start, jobFailed(reason))
	}
	if op.VideoURI == "" {
		reason := "no video returned"
		if len(op.FilteredReasons) > 0 {
			reason += ": " + strings.Join(op.FilteredReasons, "; ")
		}
		return nil, j.fail(ctx, start, jobFailed(reason))
	}

	resolved, err := o.resolveURI(ctx, op.VideoURI)
	if err != nil {
		return nil, j.fail(ctx, start, err)
	}

	j.record.ResultLocation = op.VideoURI
	j.transition(ctx, StateSucceeded)
	o.observer.VideoFinished(StateSucceeded, time.Since(start))
	return &VideoResult{Handle: op.Handle, URI: resolved, Polls: polls}, nil
}

func (j *jobRun) transition(ctx context.Context, state JobState) {
	j.record.State = state
	j.record.UpdatedAt = time.Now().UTC()
	j.onState(state, j.record.Handle)
	j.persist(ctx)
}

func (j *jobRun) fail(ctx context.Context, start time.Time, err error) error {
	j.record.Error = err.Error()
	j.transition(ctx, StateFailed)
	j.o.observer.VideoFinished(StateFailed, time.Since(start))
	j.o.logger.Warn().Err(err).Str("operation", string(j.record.Handle)).Msg("studio: video job failed")
	return err
}

func (j *jobRun) persist(ctx context.Context) {
	if j.o.recorder == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := j.o.recorder.RecordJob(writeCtx, j.record); err != nil {
		j.o.logger.Warn().Err(err).Str("job_id", j.record.ID).Msg("studio: record job")
	}
}

// wait sleeps one poll interval, or until the deadline when that is sooner.
func (o *Orchestrator) wait(ctx context.Context, deadline time.Time) error {
	d := o.interval
	last := false
	if remaining := time.Until(deadline); remaining <= d {
		d, last = max(remaining, 0), true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		if last {
			return errPollDeadline
		}
		return nil
	}
}

// resolveURI appends the current access key; the provider's media URIs are
// not fetchable without it.
func (o *Orchestrator) resolveURI(ctx context.Context, raw string) (string, error) {
	key, err := o.keys.APIKey(ctx)
	if err != nil {
		return "", classifyProviderError(ctx, err)
	}
	if key == "" {
		return "", &JobError{Kind: ErrAuthRequired, Detail: "no api key to resolve video uri"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", jobFailed("provider returned an invalid video uri")
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
