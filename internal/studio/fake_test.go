package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeProvider struct {
	mu sync.Mutex

	editFn   func(ctx context.Context, req MediaJobRequest) (*InlineImage, error)
	submitFn func(ctx context.Context, req MediaJobRequest) (*Operation, error)
	pollFn   func(ctx context.Context, op *Operation) (*Operation, error)

	edits    atomic.Int32
	submits  atomic.Int32
	polls    atomic.Int32
	inflight atomic.Int32
	maxPolls atomic.Int32

	submitted []MediaJobRequest
}

func (f *fakeProvider) EditImage(ctx context.Context, req MediaJobRequest) (*InlineImage, error) {
	f.edits.Add(1)
	if f.editFn == nil {
		return &InlineImage{MIMEType: "image/png", Data: "ZWRpdGVk"}, nil
	}
	return f.editFn(ctx, req)
}

func (f *fakeProvider) SubmitVideo(ctx context.Context, req MediaJobRequest) (*Operation, error) {
	f.submits.Add(1)
	f.mu.Lock()
	f.submitted = append(f.submitted, req)
	f.mu.Unlock()
	if f.submitFn == nil {
		return &Operation{Handle: "operations/op-1"}, nil
	}
	return f.submitFn(ctx, req)
}

func (f *fakeProvider) PollVideo(ctx context.Context, op *Operation) (*Operation, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		cur := f.maxPolls.Load()
		if n <= cur || f.maxPolls.CompareAndSwap(cur, n) {
			break
		}
	}
	f.polls.Add(1)
	if f.pollFn == nil {
		return &Operation{Handle: op.Handle, Done: true, VideoURI: "https://media.example/v.mp4?alt=media"}, nil
	}
	return f.pollFn(ctx, op)
}

// doneAfter returns a poll function that finishes on the nth poll.
func doneAfter(n int32, uri string) func(context.Context, *Operation) (*Operation, error) {
	var count atomic.Int32
	return func(_ context.Context, op *Operation) (*Operation, error) {
		if count.Add(1) < n {
			return &Operation{Handle: op.Handle}, nil
		}
		return &Operation{Handle: op.Handle, Done: true, VideoURI: uri}, nil
	}
}

type transitions struct {
	mu     sync.Mutex
	states []JobState
}

func (t *transitions) record(state JobState, _ JobHandle) {
	t.mu.Lock()
	t.states = append(t.states, state)
	t.mu.Unlock()
}

func (t *transitions) list() []JobState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JobState(nil), t.states...)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type selectorFunc struct {
	selected func() bool
	request  func(ctx context.Context) error
}

func (s selectorFunc) IsSelected(context.Context) (bool, error) { return s.selected(), nil }

func (s selectorFunc) RequestSelection(ctx context.Context) error { return s.request(ctx) }

type memArchive struct {
	mu   sync.Mutex
	keys []string
}

func (m *memArchive) Write(_ context.Context, key string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return key, nil
}

type memRecorder struct {
	mu      sync.Mutex
	records []JobRecord
}

func (m *memRecorder) RecordJob(_ context.Context, rec JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}
