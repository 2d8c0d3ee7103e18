package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/voxmill/voxmill/internal/auth"
	"github.com/voxmill/voxmill/internal/pipeline"
	"github.com/voxmill/voxmill/internal/session"
	"github.com/voxmill/voxmill/internal/store"
	storemock "github.com/voxmill/voxmill/internal/store/mock"
	embedmock "github.com/voxmill/voxmill/pkg/provider/embeddings/mock"
	ttsmock "github.com/voxmill/voxmill/pkg/provider/tts/mock"
	"github.com/voxmill/voxmill/pkg/types"
)

const (
	testUser     = "alice"
	testPassword = "hunter2"
)

// runnerStub scripts the pipeline for handler tests.
type runnerStub struct {
	result pipeline.Result
	err    error
}

func (r *runnerStub) Run(context.Context, pipeline.Job) (pipeline.Result, error) {
	return r.result, r.err
}

type answererStub struct {
	answer string
	err    error
}

func (a *answererStub) Answer(context.Context, string, string) (string, error) {
	return a.answer, a.err
}

type translatorStub struct {
	out      string
	degraded bool
}

func (tr *translatorStub) Translate(_ context.Context, text, _ string) (string, bool) {
	if tr.degraded {
		return text, true
	}
	return tr.out, false
}

type notifierStub struct {
	err        error
	recipients []string
}

func (n *notifierStub) SendSummary(_ context.Context, recipient, _ string) error {
	n.recipients = append(n.recipients, recipient)
	return n.err
}

func (n *notifierStub) SendNotes(_ context.Context, recipient, _ string) error {
	n.recipients = append(n.recipients, recipient)
	return n.err
}

// fixture bundles a wired server with its injectable collaborators.
type fixture struct {
	server   *Server
	handler  http.Handler
	accounts *storemock.AccountStore
	sessions *storemock.SessionStore
	runner   *runnerStub
	notifier *notifierStub
	tts      *ttsmock.Provider
	embedder *embedmock.Provider
	svc      *session.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash test password: %v", err)
	}
	accounts := &storemock.AccountStore{
		GetResult: &store.Account{UserID: testUser, PasswordHash: hash},
	}

	f := &fixture{
		accounts: accounts,
		sessions: &storemock.SessionStore{},
		runner:   &runnerStub{result: pipeline.Result{Transcription: "transcript", Summary: "summary"}},
		notifier: &notifierStub{},
		tts:      &ttsmock.Provider{Audio: &types.Audio{Data: []byte("mp3"), MIME: "audio/mpeg"}},
		embedder: &embedmock.Provider{EmbedResult: []float32{0.1, 0.2}, DimensionsValue: 2},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = session.NewService(f.sessions, f.runner, &answererStub{answer: "42"}, &translatorStub{out: "übersetzt"},
		session.WithSynthesizer(f.tts),
		session.WithNotifier(f.notifier),
		session.WithEmbedder(f.embedder),
		session.WithLogger(log),
	)
	f.server = New("127.0.0.1:0", auth.New(accounts), f.svc, WithLogger(log))
	f.handler = f.server.Handler()
	return f
}

// do executes an authenticated JSON request against the handler.
func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.SetBasicAuth(testUser, testPassword)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorBody](t, rec).Error.Code
}

func populatedSession(name, summary string) *store.Session {
	filename := "talk.mp3"
	transcription := "full transcript"
	return &store.Session{
		UserID:        testUser,
		Name:          name,
		Filename:      &filename,
		Transcription: &transcription,
		Summary:       &summary,
	}
}

// ─── Accounts ────────────────────────────────────────────────────────────────

func TestRegister(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"user_id":"bob","password":"secret"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if got := f.accounts.CallCount("Create"); got != 1 {
		t.Errorf("Create calls = %d, want 1", got)
	}
}

func TestRegisterDuplicateUser(t *testing.T) {
	f := newFixture(t)
	f.accounts.CreateErr = store.ErrDuplicateUser

	req := httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"user_id":"alice","password":"secret"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if code := errorCode(t, rec); code != "duplicate_user" {
		t.Errorf("error code = %q, want %q", code, "duplicate_user")
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"user_id":"bob","password":"secret","admin":true}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/password-reset",
		strings.NewReader(`{"user_id":"alice","password":"newpass"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusNoContent, rec.Body)
	}
	if got := f.accounts.CallCount("UpdatePassword"); got != 1 {
		t.Errorf("UpdatePassword calls = %d, want 1", got)
	}
}

func TestPasswordResetUnknownUser(t *testing.T) {
	f := newFixture(t)
	f.accounts.UpdatePasswordErr = store.ErrNotFound

	req := httptest.NewRequest(http.MethodPost, "/api/password-reset",
		strings.NewReader(`{"user_id":"nobody","password":"newpass"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// ─── Authentication gate ─────────────────────────────────────────────────────

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestAuthWrongPassword(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.SetBasicAuth(testUser, "wrong")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// ─── Languages ───────────────────────────────────────────────────────────────

func TestLanguages(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/languages", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	langs := decodeBody[[]languageResponse](t, rec)
	if len(langs) == 0 {
		t.Fatal("expected a non-empty language list")
	}
	found := false
	for _, l := range langs {
		if l.Name == "German" && l.Code == "de" {
			found = true
		}
	}
	if !found {
		t.Errorf("German missing from %v", langs)
	}
}

// ─── Sessions ────────────────────────────────────────────────────────────────

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	f.sessions.ListResult = []store.Session{
		{UserID: testUser, Name: "Session 1"},
		*populatedSession("Session 2", "a summary"),
	}

	rec := f.do(t, http.MethodGet, "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}

	got := decodeBody[[]sessionResponse](t, rec)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].State != "empty" || got[1].State != "populated" {
		t.Errorf("states = %q, %q; want empty, populated", got[0].State, got[1].State)
	}
	if got[1].Summary == nil || *got[1].Summary != "a summary" {
		t.Errorf("summary not carried through: %+v", got[1])
	}
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions", map[string]string{"name": "standup"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}
	got := decodeBody[sessionResponse](t, rec)
	if got.Name != "standup" || got.State != "empty" {
		t.Errorf("got %+v, want name standup in state empty", got)
	}
}

func TestRenameSession(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = &store.Session{UserID: testUser, Name: "old"}

	rec := f.do(t, http.MethodPatch, "/api/sessions/old", map[string]string{"name": "new"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	if got := f.sessions.CallCount("Rename"); got != 1 {
		t.Errorf("Rename calls = %d, want 1", got)
	}
}

func TestRenameSessionMissingName(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/sessions/old", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRenameSessionNotFound(t *testing.T) {
	f := newFixture(t)
	f.sessions.RenameErr = store.ErrNotFound

	rec := f.do(t, http.MethodPatch, "/api/sessions/ghost", map[string]string{"name": "new"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/sessions/standup", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusNoContent, rec.Body)
	}
	if got := f.sessions.CallCount("Delete"); got != 1 {
		t.Errorf("Delete calls = %d, want 1", got)
	}
}

func TestDeleteSessionMissingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.sessions.DeleteErr = store.ErrNotFound

	rec := f.do(t, http.MethodDelete, "/api/sessions/ghost", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusNoContent, rec.Body)
	}
}

// ─── Recording upload ────────────────────────────────────────────────────────

// multipartUpload builds a recording upload request body.
func multipartUpload(t *testing.T, language, generation string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "talk.mp3")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake mp3 bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.WriteField("language", language); err != nil {
		t.Fatalf("write language field: %v", err)
	}
	if err := mw.WriteField("generation", generation); err != nil {
		t.Fatalf("write generation field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (f *fixture) upload(t *testing.T, target, language, generation string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, language, generation)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(testUser, testPassword)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRecording(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = &store.Session{UserID: testUser, Name: "standup"}

	rec := f.upload(t, "/api/sessions/standup/recording", "English", "0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}

	got := decodeBody[recordingResponse](t, rec)
	if got.Transcription != "transcript" || got.Summary != "summary" {
		t.Errorf("got %+v, want the pipeline result", got)
	}
	if !got.Stored {
		t.Error("Stored = false, want true")
	}
	if got := f.sessions.CallCount("SetResult"); got != 1 {
		t.Errorf("SetResult calls = %d, want 1", got)
	}
}

func TestRecordingUnknownLanguage(t *testing.T) {
	f := newFixture(t)

	rec := f.upload(t, "/api/sessions/standup/recording", "Germann", "0")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decodeBody[errorBody](t, rec)
	if !strings.Contains(body.Error.Message, "German") {
		t.Errorf("message %q lacks a suggestion for German", body.Error.Message)
	}
}

func TestRecordingBadGeneration(t *testing.T) {
	f := newFixture(t)

	rec := f.upload(t, "/api/sessions/standup/recording", "English", "banana")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRecordingStaleGeneration(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = &store.Session{UserID: testUser, Name: "standup"}

	rec := f.upload(t, "/api/sessions/standup/recording", "English", "7")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusConflict, rec.Body)
	}
	if code := errorCode(t, rec); code != "stale_upload" {
		t.Errorf("error code = %q, want %q", code, "stale_upload")
	}
}

func TestRecordingAlreadyPopulated(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = populatedSession("standup", "done")

	rec := f.upload(t, "/api/sessions/standup/recording", "English", "0")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusConflict, rec.Body)
	}
	if code := errorCode(t, rec); code != "already_populated" {
		t.Errorf("error code = %q, want %q", code, "already_populated")
	}
}

func TestRecordingPipelineFailure(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = &store.Session{UserID: testUser, Name: "standup"}
	f.runner.err = fmt.Errorf("normalize: %w", context.DeadlineExceeded)

	rec := f.upload(t, "/api/sessions/standup/recording", "English", "0")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusInternalServerError, rec.Body)
	}
}

// ─── Derived operations ──────────────────────────────────────────────────────

func TestQuestion(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = populatedSession("standup", "a summary")

	rec := f.do(t, http.MethodPost, "/api/sessions/standup/question",
		map[string]string{"question": "who attended?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	got := decodeBody[map[string]string](t, rec)
	if got["answer"] != "42" {
		t.Errorf("answer = %q, want %q", got["answer"], "42")
	}
}

func TestQuestionNotPopulated(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = &store.Session{UserID: testUser, Name: "standup"}

	rec := f.do(t, http.MethodPost, "/api/sessions/standup/question",
		map[string]string{"question": "who attended?"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusConflict, rec.Body)
	}
	if code := errorCode(t, rec); code != "not_populated" {
		t.Errorf("error code = %q, want %q", code, "not_populated")
	}
}

func TestTranslation(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = populatedSession("standup", "a summary")

	rec := f.do(t, http.MethodPost, "/api/sessions/standup/translation",
		map[string]string{"language": "German"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	got := decodeBody[map[string]any](t, rec)
	if got["summary"] != "übersetzt" {
		t.Errorf("summary = %v, want übersetzt", got["summary"])
	}
	if got["degraded"] != false {
		t.Errorf("degraded = %v, want false", got["degraded"])
	}
}

func TestSpeech(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = populatedSession("standup", "a summary")

	rec := f.do(t, http.MethodGet, "/api/sessions/standup/speech?language=German", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Content-Type = %q, want audio/mpeg", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte("mp3")) {
		t.Errorf("body = %q, want the synthesized clip", rec.Body)
	}
	if f.tts.CallCount() != 1 {
		t.Errorf("Synthesize calls = %d, want 1", f.tts.CallCount())
	}
}

func TestNotes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/sessions/standup/notes",
		map[string]string{"notes": "follow up with Bob"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusNoContent, rec.Body)
	}
	if got := f.sessions.CallCount("SetNotes"); got != 1 {
		t.Errorf("SetNotes calls = %d, want 1", got)
	}
}

func TestEmail(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = populatedSession("standup", "a summary")

	rec := f.do(t, http.MethodPost, "/api/sessions/standup/email",
		map[string]string{"recipient": "alice@example.com"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusAccepted, rec.Body)
	}
	if len(f.notifier.recipients) != 1 || f.notifier.recipients[0] != "alice@example.com" {
		t.Errorf("recipients = %v, want [alice@example.com]", f.notifier.recipients)
	}
}

// ─── Search ──────────────────────────────────────────────────────────────────

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.sessions.SearchSummariesResult = []store.SearchHit{
		{Session: *populatedSession("standup", "weekly sync"), Distance: 0.12},
	}

	rec := f.do(t, http.MethodGet, "/api/search?q=weekly", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	got := decodeBody[[]searchHitResponse](t, rec)
	if len(got) != 1 || got[0].Session != "standup" || got[0].Summary != "weekly sync" {
		t.Errorf("hits = %+v", got)
	}
	if f.embedder.CallCount() != 1 {
		t.Errorf("Embed calls = %d, want 1", f.embedder.CallCount())
	}
}

func TestSearchMissingQuery(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSearchWithoutEmbedder(t *testing.T) {
	f := newFixture(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := session.NewService(f.sessions, f.runner, &answererStub{}, &translatorStub{},
		session.WithLogger(log))
	f.server = New("127.0.0.1:0", auth.New(f.accounts), svc, WithLogger(log))
	f.handler = f.server.Handler()

	rec := f.do(t, http.MethodGet, "/api/search?q=weekly", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusNotImplemented, rec.Body)
	}
}

// ─── Workspace ───────────────────────────────────────────────────────────────

func TestWorkspaceLifecycle(t *testing.T) {
	f := newFixture(t)
	f.sessions.GetResult = &store.Session{UserID: testUser, Name: "standup"}

	rec := f.do(t, http.MethodGet, "/api/workspace", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	ws := decodeBody[workspaceResponse](t, rec)
	if ws.Selected != "" || ws.UploadGeneration != 0 {
		t.Errorf("fresh workspace = %+v, want empty at generation 0", ws)
	}

	rec = f.do(t, http.MethodPost, "/api/workspace/select", map[string]string{"session": "standup"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	ws = decodeBody[workspaceResponse](t, rec)
	if ws.Selected != "standup" {
		t.Errorf("Selected = %q, want standup", ws.Selected)
	}
	if ws.UploadGeneration == 0 {
		t.Error("selection should advance the upload generation")
	}
}

func TestSelectUnknownSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/workspace/select", map[string]string{"session": "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusNotFound, rec.Body)
	}
}
