package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

func TestTerminalSelectorSelectsTypedKey(t *testing.T) {
	keys := studio.NewKeyring("")
	sel := &terminalSelector{keys: keys, in: strings.NewReader("  typed-key \n"), out: io.Discard}

	if err := sel.RequestSelection(context.Background()); err != nil {
		t.Fatalf("RequestSelection: %v", err)
	}
	got, _ := keys.APIKey(context.Background())
	if got != "typed-key" {
		t.Fatalf("key = %q, want typed-key", got)
	}
	if ok, _ := sel.IsSelected(context.Background()); !ok {
		t.Fatal("expected key to be selected")
	}
}

func TestTerminalSelectorRejectsEmptyInput(t *testing.T) {
	keys := studio.NewKeyring("")
	sel := &terminalSelector{keys: keys, in: strings.NewReader("\n"), out: io.Discard}

	err := sel.RequestSelection(context.Background())
	if !errors.Is(err, studio.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestTerminalSelectorUsesHiddenReader(t *testing.T) {
	keys := studio.NewKeyring("")
	sel := &terminalSelector{
		keys:   keys,
		in:     strings.NewReader(""),
		out:    io.Discard,
		hidden: func() (string, error) { return "hidden-key", nil },
	}
	if err := sel.RequestSelection(context.Background()); err != nil {
		t.Fatalf("RequestSelection: %v", err)
	}
	if got, _ := keys.APIKey(context.Background()); got != "hidden-key" {
		t.Fatalf("key = %q", got)
	}
}
