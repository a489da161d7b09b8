package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(key string, fn roundTripFunc) *Client {
	return NewClient(Options{
		Keys:       studio.StaticKey(key),
		BaseURL:    "https://gemini.test/v1beta",
		HTTPClient: &http.Client{Transport: fn},
	})
}

func editRequest() studio.MediaJobRequest {
	return studio.MediaJobRequest{
		Kind:   studio.KindEdit,
		Prompt: "make it blue",
		Image:  studio.SourceImage{MIMEType: "image/png", Encoded: "aW1n"},
	}
}

func TestEditImageSendsImageAndInstruction(t *testing.T) {
	var captured geminiGenerateContentRequest
	client := newTestClient("k-1", func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash-image:generateContent" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "k-1" {
			t.Fatalf("api key header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"b3V0"}}]}}]}`), nil
	})

	img, err := client.EditImage(context.Background(), editRequest())
	if err != nil {
		t.Fatalf("EditImage error: %v", err)
	}
	if img == nil || img.Data != "b3V0" || img.MIMEType != "image/png" {
		t.Fatalf("unexpected image: %#v", img)
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.Data != "aW1n" {
		t.Fatalf("unexpected parts: %#v", parts)
	}
	if parts[1].Text != "Edit this image: make it blue. Return the image only." {
		t.Fatalf("instruction = %q", parts[1].Text)
	}
}

func TestEditImageWithoutImagePart(t *testing.T) {
	client := newTestClient("k", func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]}}]}`), nil
	})
	img, err := client.EditImage(context.Background(), editRequest())
	if err != nil {
		t.Fatalf("EditImage error: %v", err)
	}
	if img != nil {
		t.Fatalf("expected nil image, got %#v", img)
	}
}

func TestMissingKeyIsAuthRequired(t *testing.T) {
	client := newTestClient("", func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected without a key")
		return nil, nil
	})
	_, err := client.SubmitVideo(context.Background(), studio.MediaJobRequest{Kind: studio.KindVideo, Prompt: "x"})
	if !errors.Is(err, studio.ErrAuthRequired) {
		t.Fatalf("error = %v, want ErrAuthRequired", err)
	}
}

func TestStatusErrorsAreClassified(t *testing.T) {
	cases := []struct {
		status int
		body   string
		auth   bool
	}{
		{status: http.StatusForbidden, body: `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`, auth: true},
		{status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, auth: true},
		{status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"internal"}}`},
		{status: http.StatusBadGateway, body: `upstream down`},
	}
	for _, tc := range cases {
		client := newTestClient("k", func(r *http.Request) (*http.Response, error) {
			return jsonResponse(tc.status, tc.body), nil
		})
		_, err := client.SubmitVideo(context.Background(), studio.MediaJobRequest{Kind: studio.KindVideo, Prompt: "x"})
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := errors.Is(err, studio.ErrAuthRequired); got != tc.auth {
			t.Fatalf("status %d: auth = %v, want %v (%v)", tc.status, got, tc.auth, err)
		}
	}
}

func TestSubmitVideoPayload(t *testing.T) {
	var captured veoPredictRequest
	client := newTestClient("k", func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1beta/models/veo-3.1-fast-generate-preview:predictLongRunning" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"name":"models/veo/operations/abc"}`), nil
	})

	op, err := client.SubmitVideo(context.Background(), studio.MediaJobRequest{
		Kind:        studio.KindVideo,
		Prompt:      studio.DefaultAnimatePrompt,
		Image:       studio.SourceImage{MIMEType: "image/jpeg", Encoded: "anBn"},
		AspectRatio: studio.AspectTall,
		Resolution:  studio.VideoResolution,
		Count:       1,
	})
	if err != nil {
		t.Fatalf("SubmitVideo error: %v", err)
	}
	if op.Handle != "models/veo/operations/abc" || op.Done {
		t.Fatalf("unexpected operation: %#v", op)
	}
	inst := captured.Instances[0]
	if inst.Image == nil || inst.Image.MimeType != "image/jpeg" || inst.Prompt != studio.DefaultAnimatePrompt {
		t.Fatalf("unexpected instance: %#v", inst)
	}
	if captured.Parameters != (veoParameters{AspectRatio: "9:16", Resolution: "720p", SampleCount: 1}) {
		t.Fatalf("unexpected parameters: %#v", captured.Parameters)
	}
}

func TestPollVideoDecodesResponses(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		done   bool
		uri    string
		hasErr bool
	}{
		{name: "pending", body: `{"name":"operations/1"}`},
		{name: "samples", body: `{"name":"operations/1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://files.test/v?alt=media"}}]}}}`, done: true, uri: "https://files.test/v?alt=media"},
		{name: "videos", body: `{"name":"operations/1","done":true,"response":{"generatedVideos":[{"video":{"uri":"https://files.test/w"}}]}}`, done: true, uri: "https://files.test/w"},
		{name: "filtered", body: `{"name":"operations/1","done":true,"response":{"generateVideoResponse":{"raiMediaFilteredCount":1,"raiMediaFilteredReasons":["unsafe"]}}}`, done: true},
		{name: "error", body: `{"name":"operations/1","done":true,"error":{"code":13,"message":"internal"}}`, done: true, hasErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient("k", func(r *http.Request) (*http.Response, error) {
				if r.Method != http.MethodGet || r.URL.Path != "/v1beta/operations/1" {
					t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				return jsonResponse(http.StatusOK, tc.body), nil
			})
			op, err := client.PollVideo(context.Background(), &studio.Operation{Handle: "operations/1"})
			if err != nil {
				t.Fatalf("PollVideo error: %v", err)
			}
			if op.Done != tc.done || op.VideoURI != tc.uri || (op.Error != nil) != tc.hasErr {
				t.Fatalf("unexpected operation: %#v", op)
			}
		})
	}
}

func TestChatSendsInstructionAndHistory(t *testing.T) {
	var captured geminiGenerateContentRequest
	client := newTestClient("k", func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1beta/models/gemini-3-pro-preview:generateContent" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Try the "},{"text":"linen blazer."}]}}]}`), nil
	})

	reply, err := client.Chat(context.Background(), studio.ChatRequest{
		System:  "be a stylist",
		History: []studio.ChatTurn{{Role: studio.RoleUser, Text: "hi"}, {Role: studio.RoleModel, Text: "hello"}},
		Message: "what goes with jeans?",
	})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if reply != "Try the linen blazer." {
		t.Fatalf("reply = %q", reply)
	}
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "be a stylist" {
		t.Fatalf("system instruction = %#v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" || captured.Contents[2].Role != "user" || captured.Contents[2].Parts[0].Text != "what goes with jeans?" {
		t.Fatalf("unexpected contents: %#v", captured.Contents)
	}
}

func TestQuickTextUsesTipModel(t *testing.T) {
	client := newTestClient("k", func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash-lite:generateContent" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
	})
	tip, err := client.QuickText(context.Background(), "tip please")
	if err != nil {
		t.Fatalf("QuickText error: %v", err)
	}
	if tip != "" {
		t.Fatalf("tip = %q, want empty", tip)
	}
}

func TestChatAuthFailure(t *testing.T) {
	client := newTestClient("k", func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`), nil
	})
	_, err := client.Chat(context.Background(), studio.ChatRequest{Message: "hi"})
	if !errors.Is(err, studio.ErrAuthRequired) {
		t.Fatalf("expected auth error, got %v", err)
	}
}
