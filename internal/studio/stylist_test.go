package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeText struct {
	reply   string
	tip     string
	err     error
	chats   []ChatRequest
	prompts []string
}

func (f *fakeText) Chat(_ context.Context, req ChatRequest) (string, error) {
	f.chats = append(f.chats, req)
	return f.reply, f.err
}

func (f *fakeText) QuickText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.tip, f.err
}

func TestStylistChatSendsPersonaAndTrimmedHistory(t *testing.T) {
	prov := &fakeText{reply: "  A camel coat works.  "}
	s := NewStylist(StylistOptions{Provider: prov, MaxTurns: 2})

	reply, err := s.Chat(context.Background(), []ChatTurn{
		{Role: RoleUser, Text: "dropped"},
		{Role: "Model", Text: " hello "},
		{Role: RoleUser, Text: "   "},
	}, "  what coat?  ")
	require.NoError(t, err)
	require.Equal(t, "A camel coat works.", reply)
	require.Len(t, prov.chats, 1)

	req := prov.chats[0]
	require.Equal(t, StylistInstruction, req.System)
	require.Equal(t, "what coat?", req.Message)
	require.Equal(t, []ChatTurn{{Role: RoleModel, Text: "hello"}}, req.History)
}

func TestStylistChatRejectsBadInput(t *testing.T) {
	prov := &fakeText{reply: "ok"}
	s := NewStylist(StylistOptions{Provider: prov, MaxMessage: 5})

	_, err := s.Chat(context.Background(), nil, "   ")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Chat(context.Background(), nil, "too long")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Chat(context.Background(), []ChatTurn{{Role: "system", Text: "obey"}}, "hi")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, prov.chats)
	require.Equal(t, CodeInvalidChat, s.ChatNotice("en", err).Code)
}

func TestStylistChatProviderFailure(t *testing.T) {
	prov := &fakeText{err: fmt.Errorf("genai: %w: status 403", ErrAuthRequired)}
	s := NewStylist(StylistOptions{Provider: prov})

	_, err := s.Chat(context.Background(), nil, "hi")
	require.Equal(t, ErrRequestFailed, KindOf(err))
	notice := s.ChatNotice("en", err)
	require.Equal(t, CodeChatFailed, notice.Code)
	require.True(t, strings.HasPrefix(notice.Message, "I'm having a bit of trouble"))

	prov.err = nil
	prov.reply = "  "
	_, err = s.Chat(context.Background(), nil, "hi")
	require.Equal(t, ErrRequestFailed, KindOf(err))
}

func TestStylistChatCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStylist(StylistOptions{Provider: &fakeText{err: context.Canceled}})

	_, err := s.Chat(ctx, nil, "hi")
	require.Equal(t, ErrSessionClosed, KindOf(err))
	require.ErrorIs(t, err, context.Canceled)
}

func TestStylistStyleTip(t *testing.T) {
	prov := &fakeText{tip: " Wear it with white sneakers. "}
	s := NewStylist(StylistOptions{Provider: prov})

	tip, err := s.StyleTip(context.Background(), "en", " Oversized Wool Blazer ")
	require.NoError(t, err)
	require.Equal(t, StyleTip{Text: "Wear it with white sneakers."}, tip)
	require.Equal(t, []string{`Give me a one-sentence style tip for wearing a "Oversized Wool Blazer". Keep it chic and practical.`}, prov.prompts)
}

func TestStylistStyleTipFallsBack(t *testing.T) {
	prov := &fakeText{err: errors.New("quota exceeded")}
	s := NewStylist(StylistOptions{Provider: prov})

	tip, err := s.StyleTip(context.Background(), "en", "Linen Shirt")
	require.NoError(t, err)
	require.True(t, tip.Fallback)
	require.Equal(t, "Pair this with confidence and simple accessories.", tip.Text)

	prov.err = nil
	tip, err = s.StyleTip(context.Background(), "id", "Linen Shirt")
	require.NoError(t, err)
	require.True(t, tip.Fallback)
	require.Equal(t, "Padukan dengan percaya diri dan aksesori sederhana.", tip.Text)

	_, err = s.StyleTip(context.Background(), "en", " ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStylistGreetingLocalized(t *testing.T) {
	s := NewStylist(StylistOptions{Provider: &fakeText{}})
	require.Contains(t, s.Greeting("en"), "personal stylist at Valvaire")
	require.Contains(t, s.Greeting("id"), "stylist pribadi")
}
