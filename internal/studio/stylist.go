package studio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
)

const (
	StylistInstruction = "You are Valvaire's expert personal stylist. Your tone is premium, helpful, minimal, and fashion-forward. You help users find clothes, match outfits, and answer questions about fabric and care. Keep answers concise and elegant."

	DefaultMaxChatTurns   = 40
	DefaultMaxChatMessage = 2000
	maxProductName        = 200
)

// ChatRole names the author of a chat turn.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatTurn is one message of a stylist conversation.
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// ChatRequest is a single stylist exchange: prior turns plus the new message.
type ChatRequest struct {
	System  string
	History []ChatTurn
	Message string
}

// TextProvider produces text replies for the stylist.
type TextProvider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	QuickText(ctx context.Context, prompt string) (string, error)
}

// StyleTip is a short wearing suggestion for a product. Fallback is set when
// the provider could not answer and the stock tip is shown instead.
type StyleTip struct {
	Text     string `json:"tip"`
	Fallback bool   `json:"fallback"`
}

type StylistOptions struct {
	Provider   TextProvider
	Messages   *Messages
	Observer   Observer
	Logger     *infra.Logger
	MaxTurns   int
	MaxMessage int
}

// Stylist answers fashion questions and gives one-line style tips.
type Stylist struct {
	provider   TextProvider
	messages   *Messages
	observer   Observer
	logger     *infra.Logger
	maxTurns   int
	maxMessage int
}

func NewStylist(opts StylistOptions) *Stylist {
	if opts.Messages == nil {
		opts.Messages = NewMessages()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxChatTurns
	}
	if opts.MaxMessage <= 0 {
		opts.MaxMessage = DefaultMaxChatMessage
	}
	return &Stylist{
		provider:   opts.Provider,
		messages:   opts.Messages,
		observer:   opts.Observer,
		logger:     ensureLogger(opts.Logger),
		maxTurns:   opts.MaxTurns,
		maxMessage: opts.MaxMessage,
	}
}

// Greeting is the opening line of a new conversation.
func (s *Stylist) Greeting(locale string) string {
	return s.messages.Notice(locale, CodeStylistGreeting).Message
}

// Chat sends message with the prior conversation and returns the reply. Only
// the most recent turns are forwarded. Provider failures are RequestFailed.
func (s *Stylist) Chat(ctx context.Context, history []ChatTurn, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", invalidInput("chat message is empty")
	}
	if len([]rune(message)) > s.maxMessage {
		return "", invalidInput(fmt.Sprintf("chat message exceeds %d characters", s.maxMessage))
	}
	turns, err := normalizeHistory(history, s.maxTurns)
	if err != nil {
		return "", err
	}

	start := time.Now()
	reply, err := s.provider.Chat(ctx, ChatRequest{System: StylistInstruction, History: turns, Message: message})
	if err != nil {
		s.observer.TextFinished("chat", "failed", time.Since(start))
		if ctx.Err() != nil {
			return "", sessionClosed(ctx.Err())
		}
		s.logger.Warn().Err(err).Msg("studio: stylist chat failed")
		return "", requestFailed(err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		s.observer.TextFinished("chat", "empty", time.Since(start))
		return "", &JobError{Kind: ErrRequestFailed, Detail: "stylist returned no text"}
	}
	s.observer.TextFinished("chat", "ok", time.Since(start))
	return reply, nil
}

// StyleTip asks for a one-sentence tip for productName. When the provider
// fails or answers with nothing, the stock tip is returned with Fallback set.
func (s *Stylist) StyleTip(ctx context.Context, locale, productName string) (StyleTip, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return StyleTip{}, invalidInput("product name is empty")
	}
	if len([]rune(productName)) > maxProductName {
		return StyleTip{}, invalidInput("product name is too long")
	}

	start := time.Now()
	prompt := fmt.Sprintf("Give me a one-sentence style tip for wearing a %q. Keep it chic and practical.", productName)
	tip, err := s.provider.QuickText(ctx, prompt)
	tip = strings.TrimSpace(tip)
	switch {
	case err != nil:
		s.observer.TextFinished("style_tip", "failed", time.Since(start))
		if ctx.Err() != nil {
			return StyleTip{}, sessionClosed(ctx.Err())
		}
		s.logger.Warn().Err(err).Str("product", productName).Msg("studio: style tip failed")
	case tip == "":
		s.observer.TextFinished("style_tip", "empty", time.Since(start))
	default:
		s.observer.TextFinished("style_tip", "ok", time.Since(start))
		return StyleTip{Text: tip}, nil
	}
	return StyleTip{Text: s.messages.Notice(locale, CodeStyleTipFallback).Message, Fallback: true}, nil
}

func normalizeHistory(history []ChatTurn, maxTurns int) ([]ChatTurn, error) {
	out := make([]ChatTurn, 0, min(len(history), maxTurns))
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	for _, turn := range history {
		role := ChatRole(strings.ToLower(strings.TrimSpace(string(turn.Role))))
		if role != RoleUser && role != RoleModel {
			return nil, invalidInput(fmt.Sprintf("unknown chat role %q", turn.Role))
		}
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		out = append(out, ChatTurn{Role: role, Text: text})
	}
	return out, nil
}

// ChatNotice is the localized notice for a failed Chat call.
func (s *Stylist) ChatNotice(locale string, err error) Notice {
	return s.messages.ChatNotice(locale, err)
}
