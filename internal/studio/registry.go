package studio

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
)

const (
	DefaultSelectionTimeout = 2 * time.Minute
	DefaultIdleTimeout      = 30 * time.Minute
)

type RegistryOptions struct {
	Provider         Provider
	Keys             KeySource
	Selector         CredentialSelector
	Builder          *RequestBuilder
	Archive          ResultArchive
	Recorder         JobRecorder
	Messages         *Messages
	Observer         Observer
	Logger           *infra.Logger
	PollInterval     time.Duration
	MaxPollDuration  time.Duration
	SelectionTimeout time.Duration
	IdleTimeout      time.Duration
}

// Registry owns the live sessions of a host process.
type Registry struct {
	opts   RegistryOptions
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Builder == nil {
		opts.Builder = NewRequestBuilder(BuilderOptions{})
	}
	if opts.Messages == nil {
		opts.Messages = NewMessages()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.SelectionTimeout <= 0 {
		opts.SelectionTimeout = DefaultSelectionTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	opts.Logger = ensureLogger(opts.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{opts: opts, ctx: ctx, cancel: cancel, sessions: make(map[string]*Session)}
}

// Messages returns the catalog used for session notices.
func (r *Registry) Messages() *Messages { return r.opts.Messages }

// Create opens a new session for the given Accept-Language preference.
func (r *Registry) Create(acceptLanguage string) *Session {
	id := uuid.NewString()
	gate := NewGate(r.opts.Selector, r.opts.SelectionTimeout, r.opts.Logger)
	sess := newSession(r.ctx, id, r.opts.Messages.Locale(acceptLanguage), sessionDeps{
		builder: r.opts.Builder,
		editor:  NewEditor(r.opts.Provider, r.opts.Observer, r.opts.Logger),
		videos: NewOrchestrator(OrchestratorOptions{
			Provider:        r.opts.Provider,
			Keys:            r.opts.Keys,
			Gate:            gate,
			SessionID:       id,
			PollInterval:    r.opts.PollInterval,
			MaxPollDuration: r.opts.MaxPollDuration,
			Recorder:        r.opts.Recorder,
			Observer:        r.opts.Observer,
			Logger:          r.opts.Logger,
		}),
		gate:     gate,
		archive:  r.opts.Archive,
		messages: r.opts.Messages,
		logger:   r.opts.Logger,
	})

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()
	r.opts.Logger.Debug().Str("session_id", id).Msg("studio: session opened")
	return sess
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

// Close tears down a session and forgets it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	sess.Close()
	r.opts.Logger.Debug().Str("session_id", id).Msg("studio: session closed")
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many were closed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []*Session
	for id, sess := range r.sessions {
		if now.Sub(sess.idleSince()) > r.opts.IdleTimeout {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		r.opts.Logger.Info().Int("sessions", len(expired)).Msg("studio: expired idle sessions")
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context) error {
	interval := r.opts.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Shutdown()
			return nil
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Shutdown closes all sessions.
func (r *Registry) Shutdown() {
	r.cancel()
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sessions = append(sessions, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}
