package studio

import (
	"context"
	"strings"
	"sync"
)

// Keyring holds the live provider key. It is both the KeySource read by
// providers and the CredentialSelector used by hosts where the key is
// supplied out of band (the HTTP credential endpoint, a terminal prompt).
type Keyring struct {
	mu       sync.Mutex
	key      string
	changed  chan struct{}
	waiting  int
	onSelect func(ctx context.Context, key string) error
}

func NewKeyring(initial string) *Keyring {
	return &Keyring{key: strings.TrimSpace(initial), changed: make(chan struct{})}
}

// OnSelect registers a hook invoked by Select before the key is published,
// typically used to persist it.
func (k *Keyring) OnSelect(fn func(ctx context.Context, key string) error) {
	k.mu.Lock()
	k.onSelect = fn
	k.mu.Unlock()
}

func (k *Keyring) APIKey(context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.key, nil
}

func (k *Keyring) IsSelected(context.Context) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.key != "", nil
}

// RequestSelection waits for the next Select call.
func (k *Keyring) RequestSelection(ctx context.Context) error {
	k.mu.Lock()
	ch := k.changed
	k.waiting++
	k.mu.Unlock()
	defer func() {
		k.mu.Lock()
		k.waiting--
		k.mu.Unlock()
	}()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether any session is waiting for a key.
func (k *Keyring) Pending() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.waiting > 0
}

// Select publishes a new key and releases every waiting selection.
func (k *Keyring) Select(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return invalidInput("api key is empty")
	}
	k.mu.Lock()
	hook := k.onSelect
	k.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, key); err != nil {
			return err
		}
	}

	k.mu.Lock()
	k.key = key
	close(k.changed)
	k.changed = make(chan struct{})
	k.mu.Unlock()
	return nil
}
