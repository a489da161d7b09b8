package studio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
)

// Tab selects the visible studio panel.
type Tab string

const (
	TabEditor Tab = "editor"
	TabVideo  Tab = "video"
)

func ParseTab(raw string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case TabEditor:
		return TabEditor, nil
	case TabVideo:
		return TabVideo, nil
	}
	return "", invalidInput(fmt.Sprintf("unknown tab %q", raw))
}

// EditView is the render state of the editor panel.
type EditView struct {
	Prompt     string  `json:"prompt,omitempty"`
	Preview    string  `json:"preview,omitempty"`
	Loading    bool    `json:"loading"`
	Result     string  `json:"result,omitempty"`
	ArchiveKey string  `json:"archive_key,omitempty"`
	Notice     *Notice `json:"notice,omitempty"`
}

// VideoView is the render state of the video panel.
type VideoView struct {
	Prompt      string      `json:"prompt,omitempty"`
	Preview     string      `json:"preview,omitempty"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Loading     bool        `json:"loading"`
	State       JobState    `json:"state"`
	Operation   JobHandle   `json:"operation,omitempty"`
	Result      string      `json:"result,omitempty"`
	Notice      *Notice     `json:"notice,omitempty"`
}

// Snapshot is a consistent copy of a session's render state.
type Snapshot struct {
	ID        string    `json:"id"`
	Tab       Tab       `json:"tab"`
	Locale    string    `json:"locale"`
	Edit      EditView  `json:"edit"`
	Video     VideoView `json:"video"`
	UpdatedAt time.Time `json:"updated_at"`
}

type editSlot struct {
	generation uint64
	view       EditView
}

type videoSlot struct {
	generation uint64
	view       VideoView
}

// Session is one studio view. Each submission bumps its slot's generation;
// results that come back for an older generation are discarded, so the view
// always shows the most recently submitted job.
type Session struct {
	id       string
	builder  *RequestBuilder
	editor   *Editor
	videos   *Orchestrator
	gate     *Gate
	archive  ResultArchive
	messages *Messages
	logger   *infra.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	tab        Tab
	locale     string
	edit       editSlot
	video      videoSlot
	archived   []string
	lastActive time.Time
}

type sessionDeps struct {
	builder  *RequestBuilder
	editor   *Editor
	videos   *Orchestrator
	gate     *Gate
	archive  ResultArchive
	messages *Messages
	logger   *infra.Logger
}

func newSession(parent context.Context, id, locale string, deps sessionDeps) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		id:         id,
		builder:    deps.builder,
		editor:     deps.editor,
		videos:     deps.videos,
		gate:       deps.gate,
		archive:    deps.archive,
		messages:   deps.messages,
		logger:     deps.logger,
		ctx:        ctx,
		cancel:     cancel,
		tab:        TabEditor,
		locale:     locale,
		video:      videoSlot{view: VideoView{AspectRatio: AspectWide, State: StateIdle}},
		lastActive: time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// SetTab switches panels. In-flight work on the other panel keeps running.
func (s *Session) SetTab(raw string) error {
	tab, err := ParseTab(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.tab = tab
	s.lastActive = time.Now()
	return nil
}

// SubmitEdit validates in and starts an edit. Invalid input is returned
// without touching the view.
func (s *Session) SubmitEdit(in EditInput) error {
	req, err := s.builder.BuildEdit(in)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.edit.generation++
	gen := s.edit.generation
	s.edit.view = EditView{Prompt: req.Prompt, Preview: req.Image.DataURI(), Loading: true}
	s.lastActive = time.Now()
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runEdit(gen, req)
	return nil
}

func (s *Session) runEdit(gen uint64, req MediaJobRequest) {
	defer s.wg.Done()
	payload, err := s.editor.EditImage(s.ctx, req)

	s.mu.Lock()
	if s.closed || gen != s.edit.generation {
		s.mu.Unlock()
		s.logger.Debug().Str("session_id", s.id).Uint64("generation", gen).Msg("studio: discarding stale edit result")
		return
	}
	s.edit.view.Loading = false
	switch {
	case err != nil:
		notice := s.messages.FromError(s.locale, KindEdit, err)
		s.edit.view.Notice = &notice
	case payload == nil:
		notice := s.messages.Notice(s.locale, CodeNoResult)
		s.edit.view.Notice = &notice
	default:
		s.edit.view.Result = payload.DataURI
	}
	s.mu.Unlock()

	if payload != nil && s.archive != nil {
		s.archiveEdit(gen, payload)
	}
}

func (s *Session) archiveEdit(gen uint64, payload *ImagePayload) {
	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", s.id).Msg("studio: decode edit result")
		return
	}
	key := fmt.Sprintf("studio/%s/edit-%d.%s", s.id, gen, extensionFor(payload.MIMEType))
	stored, err := s.archive.Write(s.ctx, key, data)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", s.id).Msg("studio: archive edit result")
		return
	}
	s.mu.Lock()
	s.archived = append(s.archived, stored)
	if gen == s.edit.generation {
		s.edit.view.ArchiveKey = stored
	}
	s.mu.Unlock()
}

// SubmitVideo validates in and starts a video job. It fails with ErrBusy
// while the credential selection flow for this session is open.
func (s *Session) SubmitVideo(in VideoInput) error {
	req, err := s.builder.BuildVideo(in)
	if err != nil {
		return err
	}
	if s.isClosed() {
		return ErrSessionClosed
	}
	// The gate is claimed before the job is accepted, so a second submission
	// sees Busy as soon as the first one needs a key.
	claim, err := s.gate.Reserve(s.ctx)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return &JobError{Kind: ErrBusy, Detail: "api key selection in progress"}
		}
		return sessionClosed(err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		claim.Release()
		return ErrSessionClosed
	}
	s.video.generation++
	gen := s.video.generation
	s.video.view = VideoView{
		Prompt:      req.Prompt,
		Preview:     req.Image.DataURI(),
		AspectRatio: req.AspectRatio,
		Loading:     true,
		State:       StateIdle,
	}
	s.lastActive = time.Now()
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runVideo(gen, req, claim)
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) runVideo(gen uint64, req MediaJobRequest, claim *GateClaim) {
	defer s.wg.Done()
	res, err := s.videos.GenerateReserved(s.ctx, req, claim, func(state JobState, handle JobHandle) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.video.generation {
			return
		}
		s.video.view.State = state
		s.video.view.Operation = handle
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.video.generation {
		s.logger.Debug().Str("session_id", s.id).Uint64("generation", gen).Msg("studio: discarding stale video result")
		return
	}
	s.video.view.Loading = false
	if err != nil {
		s.video.view.State = StateFailed
		notice := s.messages.FromError(s.locale, KindVideo, err)
		s.video.view.Notice = &notice
		return
	}
	s.video.view.State = StateSucceeded
	s.video.view.Operation = res.Handle
	s.video.view.Result = res.URI
}

// Snapshot returns a copy of the current render state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	snap := Snapshot{
		ID:        s.id,
		Tab:       s.tab,
		Locale:    s.locale,
		Edit:      s.edit.view,
		Video:     s.video.view,
		UpdatedAt: s.lastActive.UTC(),
	}
	if n := s.edit.view.Notice; n != nil {
		c := *n
		snap.Edit.Notice = &c
	}
	if n := s.video.view.Notice; n != nil {
		c := *n
		snap.Video.Notice = &c
	}
	return snap
}

// ArchivedKeys lists the storage keys of this session's archived edits.
func (s *Session) ArchivedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.archived...)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops polling, drops pending results and waits for in-flight work
// to observe the cancellation.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
