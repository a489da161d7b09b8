package studio

import (
	"context"
	"time"
)

// JobHandle identifies a provider-side long-running operation.
type JobHandle string

// InlineImage is an image returned inline by the provider. Data is base64.
type InlineImage struct {
	MIMEType string
	Data     string
}

// OperationError is the failure reported by the provider on a finished
// operation.
type OperationError struct {
	Code    int
	Message string
}

// Operation is the provider's view of a long-running video job.
type Operation struct {
	Handle          JobHandle
	Done            bool
	VideoURI        string
	Error           *OperationError
	FilteredReasons []string
}

// Provider is the remote generative-media backend. Implementations must honor
// ctx cancellation on every call.
type Provider interface {
	// EditImage returns the first inline image of the response, or nil when the
	// provider answered without one.
	EditImage(ctx context.Context, req MediaJobRequest) (*InlineImage, error)
	SubmitVideo(ctx context.Context, req MediaJobRequest) (*Operation, error)
	PollVideo(ctx context.Context, op *Operation) (*Operation, error)
}

// KeySource yields the provider access key at call time so a key selected
// after startup is picked up by the next request.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a KeySource that always returns the same key.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) { return string(k), nil }

// Observer receives studio activity for metrics. All methods must be cheap
// and safe for concurrent use.
type Observer interface {
	EditFinished(outcome string, elapsed time.Duration)
	VideoSubmitted()
	VideoPolled()
	VideoFinished(state JobState, elapsed time.Duration)
	TextFinished(call, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) EditFinished(string, time.Duration)         {}
func (nopObserver) VideoSubmitted()                            {}
func (nopObserver) VideoPolled()                               {}
func (nopObserver) VideoFinished(JobState, time.Duration)      {}
func (nopObserver) TextFinished(string, string, time.Duration) {}

// JobRecord is the persisted history row of a studio job.
type JobRecord struct {
	ID             string
	SessionID      string
	Kind           Kind
	State          JobState
	Handle         JobHandle
	Prompt         string
	ResultLocation string
	Error          string
	StartedAt      time.Time
	UpdatedAt      time.Time
}

// JobRecorder persists job history. Recording is best effort; failures are
// logged and never change the job outcome.
type JobRecorder interface {
	RecordJob(ctx context.Context, rec JobRecord) error
}

// ResultArchive stores finished edit results.
type ResultArchive interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}
