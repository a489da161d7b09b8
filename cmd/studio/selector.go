package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

// terminalSelector asks for an API key on the terminal and hands it to the
// keyring. Input is hidden when stdin is a terminal.
type terminalSelector struct {
	keys   *studio.Keyring
	in     io.Reader
	out    io.Writer
	hidden func() (string, error)
}

func newTerminalSelector(keys *studio.Keyring) *terminalSelector {
	s := &terminalSelector{keys: keys, in: os.Stdin, out: os.Stderr}
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		s.hidden = func() (string, error) {
			raw, err := term.ReadPassword(fd)
			return string(raw), err
		}
	}
	return s
}

func (s *terminalSelector) IsSelected(ctx context.Context) (bool, error) {
	return s.keys.IsSelected(ctx)
}

func (s *terminalSelector) RequestSelection(ctx context.Context) error {
	type result struct {
		key string
		err error
	}
	done := make(chan result, 1)
	go func() {
		key, err := s.read()
		done <- result{key, err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("read api key: %w", r.err)
		}
		return s.keys.Select(ctx, r.key)
	}
}

func (s *terminalSelector) read() (string, error) {
	fmt.Fprint(s.out, "Gemini API key: ")
	if s.hidden != nil {
		key, err := s.hidden()
		fmt.Fprintln(s.out)
		return strings.TrimSpace(key), err
	}
	line, err := bufio.NewReader(s.in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
