package studio

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrAuthRequired   = errors.New("auth required")
	ErrRequestFailed  = errors.New("request failed")
	ErrTimeout        = errors.New("timeout")
	ErrJobFailed      = errors.New("job failed")
	ErrBusy           = errors.New("busy")
	ErrSessionClosed  = errors.New("session closed")
	ErrUnknownSession = errors.New("unknown session")
)

// JobError is the discriminated failure handed to the session controller.
// Kind is one of the sentinel errors above; Detail carries provider text that
// must not be shown to end users verbatim.
type JobError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *JobError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *JobError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func invalidInput(detail string) error {
	return &JobError{Kind: ErrInvalidInput, Detail: detail}
}

func requestFailed(err error) error {
	return &JobError{Kind: ErrRequestFailed, Detail: errDetail(err), Err: err}
}

func jobFailed(reason string) error {
	return &JobError{Kind: ErrJobFailed, Detail: reason}
}

func sessionClosed(err error) error {
	return &JobError{Kind: ErrSessionClosed, Err: err}
}

// classifyProviderError maps a provider error onto the taxonomy. Auth failures
// keep their own kind; anything else is a transport/provider failure.
func classifyProviderError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return sessionClosed(ctx.Err())
	}
	if errors.Is(err, ErrAuthRequired) {
		return &JobError{Kind: ErrAuthRequired, Detail: errDetail(err), Err: err}
	}
	return requestFailed(err)
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// KindOf returns the taxonomy sentinel carried by err, or nil when err is not
// a classified studio error.
func KindOf(err error) error {
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr.Kind
	}
	for _, kind := range []error{ErrInvalidInput, ErrAuthRequired, ErrBusy, ErrTimeout, ErrJobFailed, ErrRequestFailed, ErrSessionClosed, ErrUnknownSession} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
