package genaisdk

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

func TestMissingKeyIsAuthRequired(t *testing.T) {
	c := New(Options{Keys: studio.StaticKey("")})
	_, err := c.SubmitVideo(context.Background(), studio.MediaJobRequest{Kind: studio.KindVideo, Prompt: "x"})
	if !errors.Is(err, studio.ErrAuthRequired) {
		t.Fatalf("error = %v, want ErrAuthRequired", err)
	}
}

func TestToOperation(t *testing.T) {
	op := toOperation(&genai.GenerateVideosOperation{
		Name: "models/veo/operations/1",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "https://files.test/v"}}},
		},
	})
	if op.Handle != "models/veo/operations/1" || !op.Done || op.VideoURI != "https://files.test/v" || op.Error != nil {
		t.Fatalf("unexpected operation: %#v", op)
	}

	failed := toOperation(&genai.GenerateVideosOperation{
		Name:  "models/veo/operations/2",
		Done:  true,
		Error: map[string]any{"code": float64(3), "message": "bad prompt"},
	})
	if failed.Error == nil || failed.Error.Code != 3 || failed.Error.Message != "bad prompt" {
		t.Fatalf("unexpected error mapping: %#v", failed.Error)
	}
}

func TestClassifyAuthErrors(t *testing.T) {
	err := classify(genai.APIError{Code: 403, Message: "denied", Status: "PERMISSION_DENIED"})
	if !errors.Is(err, studio.ErrAuthRequired) {
		t.Fatalf("error = %v, want ErrAuthRequired", err)
	}
	if errors.Is(classify(genai.APIError{Code: 500, Message: "internal"}), studio.ErrAuthRequired) {
		t.Fatal("server errors must not be classified as auth failures")
	}
}

func TestHTTPOptionsSplitsVersion(t *testing.T) {
	got := httpOptions("https://generativelanguage.googleapis.com/v1beta/")
	if got.BaseURL != "https://generativelanguage.googleapis.com/" || got.APIVersion != "v1beta" {
		t.Fatalf("unexpected options: %+v", got)
	}
	got = httpOptions("http://127.0.0.1:9000")
	if got.BaseURL != "http://127.0.0.1:9000/" || got.APIVersion != "" {
		t.Fatalf("unexpected options: %+v", got)
	}
}

func TestChatMissingKeyIsAuthRequired(t *testing.T) {
	c := New(Options{Keys: studio.StaticKey("")})
	_, err := c.Chat(context.Background(), studio.ChatRequest{Message: "hi"})
	if !errors.Is(err, studio.ErrAuthRequired) {
		t.Fatalf("error = %v, want ErrAuthRequired", err)
	}
}

func TestResponseTextSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking about denim", Thought: true},
			{Text: "Roll the cuffs "},
			{Text: "once."},
		}},
	}}}
	if got := responseText(resp); got != "Roll the cuffs once." {
		t.Fatalf("text = %q", got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Fatalf("empty response text = %q", got)
	}
}
