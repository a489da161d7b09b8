package studio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
)

// CredentialSelector is the host's interactive key picker.
type CredentialSelector interface {
	IsSelected(ctx context.Context) (bool, error)
	// RequestSelection blocks until the user finishes the selection flow or
	// ctx is done.
	RequestSelection(ctx context.Context) error
}

// CredentialOutcome is the result of passing through the gate.
type CredentialOutcome int

const (
	CredentialReady CredentialOutcome = iota
	CredentialNeedsSelection
)

func (o CredentialOutcome) String() string {
	if o == CredentialReady {
		return "ready"
	}
	return "needs_selection"
}

// Gate makes sure a provider key is selected before a video submission. A
// gate belongs to one session and admits one caller at a time.
type Gate struct {
	selector CredentialSelector
	timeout  time.Duration
	logger   *infra.Logger

	mu        sync.Mutex
	selecting bool
}

func NewGate(selector CredentialSelector, timeout time.Duration, logger *infra.Logger) *Gate {
	return &Gate{selector: selector, timeout: timeout, logger: ensureLogger(logger)}
}

// Selecting reports whether a selection flow is currently open.
func (g *Gate) Selecting() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selecting
}

// Ensure returns CredentialReady when a key is already selected. Otherwise it
// opens the selection flow and waits for it. The outcome is permissive: once
// the flow returns the caller proceeds even if selection cannot be confirmed,
// and the provider decides. Concurrent calls fail with ErrBusy.
func (g *Gate) Ensure(ctx context.Context) (CredentialOutcome, error) {
	claim, err := g.Reserve(ctx)
	if err != nil {
		return CredentialNeedsSelection, err
	}
	if claim == nil {
		return CredentialReady, nil
	}
	return claim.Wait(ctx)
}

// Reserve checks the key and, when none is selected, claims the gate for the
// caller before any waiting starts. A nil claim means the key is ready. Once
// claimed, Selecting reports true until the claim is waited on or released.
func (g *Gate) Reserve(ctx context.Context) (*GateClaim, error) {
	if g == nil || g.selector == nil {
		return nil, nil
	}
	g.mu.Lock()
	if g.selecting {
		g.mu.Unlock()
		return nil, ErrBusy
	}
	g.selecting = true
	g.mu.Unlock()

	selected, err := g.selector.IsSelected(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("studio: credential check failed")
	} else if selected {
		g.release()
		return nil, nil
	}
	return &GateClaim{gate: g}, nil
}

func (g *Gate) release() {
	g.mu.Lock()
	g.selecting = false
	g.mu.Unlock()
}

// GateClaim is an open selection flow owned by one caller.
type GateClaim struct {
	gate *Gate
	once sync.Once
}

// Release gives the gate back without waiting.
func (c *GateClaim) Release() {
	if c == nil {
		return
	}
	c.once.Do(c.gate.release)
}

// Wait runs the selection flow, bounded by the gate timeout, then releases
// the claim.
func (c *GateClaim) Wait(ctx context.Context) (CredentialOutcome, error) {
	if c == nil {
		return CredentialReady, nil
	}
	defer c.Release()
	g := c.gate

	waitCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	g.logger.Info().Msg("studio: waiting for api key selection")
	if err := g.selector.RequestSelection(waitCtx); err != nil {
		if ctx.Err() != nil {
			return CredentialNeedsSelection, ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			g.logger.Warn().Err(err).Msg("studio: key selection flow failed")
		}
		return CredentialNeedsSelection, nil
	}

	if selected, err := g.selector.IsSelected(ctx); err == nil && selected {
		return CredentialReady, nil
	}
	return CredentialNeedsSelection, nil
}
