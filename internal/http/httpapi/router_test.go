package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/imranraza-AI/Clothing-brand-website/internal/http/handlers"
	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/storage"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

type stubProvider struct{}

func (stubProvider) EditImage(context.Context, studio.MediaJobRequest) (*studio.InlineImage, error) {
	return &studio.InlineImage{MIMEType: "image/png", Data: "ZWRpdGVk"}, nil
}

func (stubProvider) SubmitVideo(context.Context, studio.MediaJobRequest) (*studio.Operation, error) {
	return &studio.Operation{Handle: "operations/test"}, nil
}

func (stubProvider) PollVideo(_ context.Context, op *studio.Operation) (*studio.Operation, error) {
	return &studio.Operation{Handle: op.Handle, Done: true, VideoURI: "https://files.test/video?alt=media"}, nil
}

func (stubProvider) Chat(_ context.Context, req studio.ChatRequest) (string, error) {
	if req.Message == "fail" {
		return "", errors.New("upstream unavailable")
	}
	return fmt.Sprintf("%d turns, you said: %s", len(req.History), req.Message), nil
}

func (stubProvider) QuickText(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "Mystery") {
		return "", errors.New("upstream unavailable")
	}
	return "Tuck it in.", nil
}

// memHistory keeps job records in memory, upserted by id.
type memHistory struct {
	mu      sync.Mutex
	order   []string
	records map[string]studio.JobRecord
}

func (h *memHistory) RecordJob(_ context.Context, rec studio.JobRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.records == nil {
		h.records = make(map[string]studio.JobRecord)
	}
	if _, ok := h.records[rec.ID]; !ok {
		h.order = append(h.order, rec.ID)
	}
	h.records[rec.ID] = rec
	return nil
}

func (h *memHistory) ListBySession(_ context.Context, sessionID string, _ int) ([]studio.JobRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []studio.JobRecord
	for i := len(h.order) - 1; i >= 0; i-- {
		if rec := h.records[h.order[i]]; rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type testServer struct {
	*httptest.Server
	keys *studio.Keyring
}

func newTestServer(t *testing.T, initialKey string) *testServer {
	t.Helper()
	logger := zerolog.New(io.Discard)
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	keys := studio.NewKeyring(initialKey)
	history := &memHistory{}
	reg := studio.NewRegistry(studio.RegistryOptions{
		Provider:         stubProvider{},
		Keys:             keys,
		Selector:         keys,
		Archive:          store,
		Recorder:         history,
		Logger:           &logger,
		PollInterval:     time.Millisecond,
		MaxPollDuration:  time.Second,
		SelectionTimeout: time.Minute,
	})
	t.Cleanup(reg.Shutdown)

	app := &handlers.App{
		Config:  &infra.Config{RateLimitPerMin: 1000, MaxImageBytes: 1 << 20},
		Logger:  &logger,
		Studio:  reg,
		Keys:    keys,
		Results: store,
		Jobs:    history,
		Stylist: studio.NewStylist(studio.StylistOptions{Provider: stubProvider{}, Logger: &logger}),
	}
	srv := httptest.NewServer(NewRouter(app, Options{}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, keys: keys}
}

func (s *testServer) createSession(t *testing.T, lang string) studio.Snapshot {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, s.URL+"/v1/studio/sessions", nil)
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}
	var snap studio.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func (s *testServer) snapshot(t *testing.T, id string) studio.Snapshot {
	t.Helper()
	resp, err := http.Get(s.URL + "/v1/studio/sessions/" + id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	defer resp.Body.Close()
	var snap studio.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "look.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(image)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func (s *testServer) post(t *testing.T, path string, fields map[string]string, image []byte) *http.Response {
	t.Helper()
	body, ctype := multipartBody(t, fields, image)
	resp, err := http.Post(s.URL+path, ctype, body)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, "k")
	resp, err := http.Get(srv.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("healthz status = %d, request id = %q", resp.StatusCode, resp.Header.Get("X-Request-ID"))
	}
}

func TestVideoFlow(t *testing.T) {
	srv := newTestServer(t, "secret")
	snap := srv.createSession(t, "")

	resp := srv.post(t, "/v1/studio/sessions/"+snap.ID+"/videos", map[string]string{"prompt": "runway walk", "aspect_ratio": "portrait"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit video status = %d", resp.StatusCode)
	}

	waitFor(t, func() bool { return srv.snapshot(t, snap.ID).Video.State == studio.StateSucceeded })
	got := srv.snapshot(t, snap.ID).Video
	if got.Result != "https://files.test/video?alt=media&key=secret" {
		t.Fatalf("result = %q", got.Result)
	}
	if got.AspectRatio != studio.AspectTall {
		t.Fatalf("aspect ratio = %q", got.AspectRatio)
	}
}

func TestEmptyVideoRequestIsRejected(t *testing.T) {
	srv := newTestServer(t, "secret")
	snap := srv.createSession(t, "id-ID")

	resp := srv.post(t, "/v1/studio/sessions/"+snap.ID+"/videos", map[string]string{"prompt": "  "}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != studio.CodeInvalidVideo || body["message"] != "Masukkan prompt atau gambar." {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestBusyWhileSelectingCredential(t *testing.T) {
	srv := newTestServer(t, "")
	snap := srv.createSession(t, "")
	path := "/v1/studio/sessions/" + snap.ID + "/videos"

	resp := srv.post(t, path, map[string]string{"prompt": "first"}, nil)
	resp.Body.Close()
	waitFor(t, srv.keys.Pending)

	resp = srv.post(t, path, map[string]string{"prompt": "second"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	cred, err := http.Post(srv.URL+"/v1/studio/credential", "application/json", bytes.NewBufferString(`{"api_key":"picked"}`))
	if err != nil {
		t.Fatalf("select credential: %v", err)
	}
	cred.Body.Close()
	if cred.StatusCode != http.StatusNoContent {
		t.Fatalf("credential status = %d", cred.StatusCode)
	}
	waitFor(t, func() bool { return srv.snapshot(t, snap.ID).Video.State == studio.StateSucceeded })
}

func TestEditFlowAndArchive(t *testing.T) {
	srv := newTestServer(t, "secret")
	snap := srv.createSession(t, "")

	resp := srv.post(t, "/v1/studio/sessions/"+snap.ID+"/edits", map[string]string{"prompt": "add a belt"}, pngFixture(t))
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit edit status = %d", resp.StatusCode)
	}
	waitFor(t, func() bool { return srv.snapshot(t, snap.ID).Edit.ArchiveKey != "" })
	if got := srv.snapshot(t, snap.ID).Edit.Result; got != "data:image/png;base64,ZWRpdGVk" {
		t.Fatalf("edit result = %q", got)
	}

	archive, err := http.Get(srv.URL + "/v1/studio/sessions/" + snap.ID + "/archive")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	defer archive.Body.Close()
	if archive.StatusCode != http.StatusOK || archive.Header.Get("Content-Type") != "application/zip" {
		t.Fatalf("archive status = %d, type = %q", archive.StatusCode, archive.Header.Get("Content-Type"))
	}
}

func TestUnknownAndClosedSessions(t *testing.T) {
	srv := newTestServer(t, "secret")
	resp, err := http.Get(srv.URL + "/v1/studio/sessions/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	snap := srv.createSession(t, "")
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/studio/sessions/"+snap.ID, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", del.StatusCode)
	}
}

type jobItem struct {
	State     string `json:"state"`
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
}

func (s *testServer) jobs(t *testing.T, id string) []jobItem {
	t.Helper()
	resp, err := http.Get(s.URL + "/v1/studio/sessions/" + id + "/jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("jobs status = %d", resp.StatusCode)
	}
	var body struct {
		Items []jobItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode jobs: %v", err)
	}
	return body.Items
}

func TestListJobsAfterVideo(t *testing.T) {
	srv := newTestServer(t, "secret")
	snap := srv.createSession(t, "")
	if items := srv.jobs(t, snap.ID); len(items) != 0 {
		t.Fatalf("fresh session has %d jobs", len(items))
	}

	resp := srv.post(t, "/v1/studio/sessions/"+snap.ID+"/videos", map[string]string{"prompt": "runway walk"}, nil)
	resp.Body.Close()
	waitFor(t, func() bool {
		items := srv.jobs(t, snap.ID)
		return len(items) == 1 && items[0].State == "succeeded"
	})

	got := srv.jobs(t, snap.ID)[0]
	if got.Operation != "operations/test" || got.Prompt != "runway walk" {
		t.Fatalf("unexpected job %+v", got)
	}
}

func (s *testServer) postJSON(t *testing.T, path, lang, body string, out any) int {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, s.URL+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestStylistChat(t *testing.T) {
	srv := newTestServer(t, "k")

	var greeting struct {
		Greeting string `json:"greeting"`
	}
	resp, err := http.Get(srv.URL + "/v1/studio/chat")
	if err != nil {
		t.Fatalf("GET chat: %v", err)
	}
	_ = json.NewDecoder(resp.Body).Decode(&greeting)
	resp.Body.Close()
	if !strings.Contains(greeting.Greeting, "personal stylist at Valvaire") {
		t.Fatalf("greeting = %q", greeting.Greeting)
	}

	var reply struct {
		Reply string `json:"reply"`
	}
	body := `{"history":[{"role":"user","text":"hi"},{"role":"model","text":"hello"}],"message":"what goes with jeans?"}`
	if code := srv.postJSON(t, "/v1/studio/chat", "", body, &reply); code != http.StatusOK {
		t.Fatalf("chat status = %d", code)
	}
	if reply.Reply != "2 turns, you said: what goes with jeans?" {
		t.Fatalf("reply = %q", reply.Reply)
	}

	var failure struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if code := srv.postJSON(t, "/v1/studio/chat", "", `{"message":"fail"}`, &failure); code != http.StatusBadGateway {
		t.Fatalf("failed chat status = %d", code)
	}
	if failure.Error != studio.CodeChatFailed {
		t.Fatalf("failed chat error = %q", failure.Error)
	}
	if code := srv.postJSON(t, "/v1/studio/chat", "id-ID", `{"message":"  "}`, &failure); code != http.StatusBadRequest {
		t.Fatalf("empty chat status = %d", code)
	}
	if failure.Error != studio.CodeInvalidChat || failure.Message != "Tulis pesan untuk stylist." {
		t.Fatalf("empty chat body = %+v", failure)
	}
}

func TestStyleTip(t *testing.T) {
	srv := newTestServer(t, "k")

	var tip studio.StyleTip
	if code := srv.postJSON(t, "/v1/studio/style-tip", "", `{"product":"Silk Scarf"}`, &tip); code != http.StatusOK {
		t.Fatalf("tip status = %d", code)
	}
	if tip.Text != "Tuck it in." || tip.Fallback {
		t.Fatalf("tip = %+v", tip)
	}

	tip = studio.StyleTip{}
	if code := srv.postJSON(t, "/v1/studio/style-tip", "", `{"product":"Mystery Coat"}`, &tip); code != http.StatusOK {
		t.Fatalf("fallback tip status = %d", code)
	}
	if !tip.Fallback || tip.Text != "Pair this with confidence and simple accessories." {
		t.Fatalf("fallback tip = %+v", tip)
	}

	if code := srv.postJSON(t, "/v1/studio/style-tip", "", `{"product":""}`, nil); code != http.StatusBadRequest {
		t.Fatalf("empty product status = %d", code)
	}
}
