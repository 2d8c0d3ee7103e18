package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/voxmill/voxmill/internal/language"
	"github.com/voxmill/voxmill/internal/media"
	"github.com/voxmill/voxmill/internal/session"
	"github.com/voxmill/voxmill/internal/store"
)

// ─── Accounts ────────────────────────────────────────────────────────────────

type credentialsRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID == "" || req.Password == "" {
		writeError(w, badRequestf("user_id and password are required"))
		return
	}

	if err := s.auth.Register(r.Context(), req.UserID, req.Password); err != nil {
		writeError(w, err)
		return
	}
	s.log.Info("account registered", "user", req.UserID)
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": req.UserID})
}

// handlePasswordReset overwrites the stored hash without verifying the old
// password, matching the original account flow. The accepted risk is recorded
// in the design notes.
func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID == "" || req.Password == "" {
		writeError(w, badRequestf("user_id and password are required"))
		return
	}

	if err := s.auth.ResetPassword(r.Context(), req.UserID, req.Password); err != nil {
		writeError(w, err)
		return
	}
	s.log.Info("password reset", "user", req.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// ─── Languages ───────────────────────────────────────────────────────────────

type languageResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	tags := language.All()
	out := make([]languageResponse, len(tags))
	for i, t := range tags {
		out[i] = languageResponse{Name: t.Name, Code: t.Code}
	}
	writeJSON(w, http.StatusOK, out)
}

// resolveLanguage looks up a display name, attaching "did you mean"
// suggestions to the rejection when the name is close to a known one.
func resolveLanguage(name string) (language.Tag, error) {
	tag, ok := language.ByName(name)
	if ok {
		return tag, nil
	}
	if suggestions := language.Suggest(name); len(suggestions) > 0 {
		return language.Tag{}, badRequestf("unknown language %q (did you mean %s?)", name, strings.Join(suggestions, ", "))
	}
	return language.Tag{}, badRequestf("unknown language %q", name)
}

// ─── Sessions ────────────────────────────────────────────────────────────────

type sessionResponse struct {
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Filename *string `json:"filename,omitempty"`
	Summary  *string `json:"summary,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

func toSessionResponse(sess *store.Session, state session.State) sessionResponse {
	return sessionResponse{
		Name:     sess.Name,
		State:    state.String(),
		Filename: sess.Filename,
		Summary:  sess.Summary,
		Notes:    sess.Notes,
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, userID string) {
	overviews, err := s.sessions.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]sessionResponse, len(overviews))
	for i := range overviews {
		out[i] = toSessionResponse(&overviews[i].Session, overviews[i].State)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.sessions.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess, session.Empty))
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, badRequestf("name is required"))
		return
	}

	if err := s.sessions.Rename(r.Context(), userID, r.PathValue("name"), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.Name})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.sessions.Delete(r.Context(), userID, r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Processing ──────────────────────────────────────────────────────────────

type recordingResponse struct {
	Transcription   string `json:"transcription"`
	Summary         string `json:"summary"`
	SummaryDegraded bool   `json:"summary_degraded"`
	Stored          bool   `json:"stored"`
}

// handleRecording accepts a multipart upload ("file", "language",
// "generation") and runs the processing pipeline synchronously. The response
// arrives only when the transcript and summary are ready, mirroring the
// original's blocking interaction.
func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request, userID string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, badRequestf("parse multipart form: %v", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	tag, err := resolveLanguage(r.FormValue("language"))
	if err != nil {
		writeError(w, err)
		return
	}

	generation, err := strconv.ParseUint(r.FormValue("generation"), 10, 64)
	if err != nil {
		writeError(w, badRequestf("generation must be an unsigned integer"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, badRequestf("missing file field: %v", err))
		return
	}
	defer file.Close()

	out, err := s.sessions.Process(r.Context(), userID, r.PathValue("name"), media.Source{
		Reader:   file,
		Filename: header.Filename,
		Size:     header.Size,
	}, tag, generation)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordingResponse{
		Transcription:   out.Result.Transcription,
		Summary:         out.Result.Summary,
		SummaryDegraded: out.Result.SummaryDegraded,
		Stored:          out.Stored,
	})
}

// ─── Derived operations ──────────────────────────────────────────────────────

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, badRequestf("question is required"))
		return
	}

	answer, err := s.sessions.Question(r.Context(), userID, r.PathValue("name"), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleTranslation(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	tag, err := resolveLanguage(req.Language)
	if err != nil {
		writeError(w, err)
		return
	}

	text, degraded, err := s.sessions.Translate(r.Context(), userID, r.PathValue("name"), tag)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":  text,
		"degraded": degraded,
	})
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request, userID string) {
	tag, err := resolveLanguage(r.URL.Query().Get("language"))
	if err != nil {
		writeError(w, err)
		return
	}

	audio, err := s.sessions.Speech(r.Context(), userID, r.PathValue("name"), tag)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", audio.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	if _, err := w.Write(audio.Data); err != nil {
		s.log.Debug("speech response write failed", "user", userID, "error", err)
	}
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.sessions.SetNotes(r.Context(), userID, r.PathValue("name"), req.Notes); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Recipient string `json:"recipient"`
		Kind      string `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = session.EmailSummary
	}

	if err := s.sessions.Email(r.Context(), userID, r.PathValue("name"), req.Recipient, kind); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"recipient": req.Recipient})
}

// ─── Search ──────────────────────────────────────────────────────────────────

type searchHitResponse struct {
	Session  string  `json:"session"`
	Summary  string  `json:"summary"`
	Distance float64 `json:"distance"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, userID string) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, badRequestf("q is required"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, badRequestf("limit must be a positive integer"))
			return
		}
		limit = n
	}

	hits, err := s.sessions.Search(r.Context(), userID, query, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]searchHitResponse, len(hits))
	for i, h := range hits {
		summary := ""
		if h.Session.Summary != nil {
			summary = *h.Session.Summary
		}
		out[i] = searchHitResponse{Session: h.Session.Name, Summary: summary, Distance: h.Distance}
	}
	writeJSON(w, http.StatusOK, out)
}

// ─── Workspace ───────────────────────────────────────────────────────────────

type workspaceResponse struct {
	Selected         string `json:"selected,omitempty"`
	UploadGeneration uint64 `json:"upload_generation"`
}

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request, userID string) {
	ws := s.sessions.Workspace(userID)
	writeJSON(w, http.StatusOK, workspaceResponse{
		Selected:         ws.Selected,
		UploadGeneration: ws.UploadGeneration,
	})
}

func (s *Server) handleSelectSession(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Session string `json:"session"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Session == "" {
		writeError(w, badRequestf("session is required"))
		return
	}

	ws, err := s.sessions.Select(r.Context(), userID, req.Session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{
		Selected:         ws.Selected,
		UploadGeneration: ws.UploadGeneration,
	})
}
