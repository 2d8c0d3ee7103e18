package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxmill/voxmill/internal/language"
	"github.com/voxmill/voxmill/internal/media"
	"github.com/voxmill/voxmill/internal/observe"
	"github.com/voxmill/voxmill/internal/pipeline"
	"github.com/voxmill/voxmill/internal/store"
	"github.com/voxmill/voxmill/pkg/provider/embeddings"
	"github.com/voxmill/voxmill/pkg/provider/tts"
	"github.com/voxmill/voxmill/pkg/types"
)

// ErrSearchUnavailable is returned by [Service.Search] when no embeddings
// provider is configured.
var ErrSearchUnavailable = errors.New("session: semantic search not configured")

// Email kinds accepted by [Service.Email].
const (
	EmailSummary = "summary"
	EmailNotes   = "notes"
)

// maxNamingAttempts bounds the retry loop for default session names.
const maxNamingAttempts = 25

// Default per-operation timeouts for the derived gateways.
const (
	defaultAnswerTimeout     = 30 * time.Second
	defaultTranslateTimeout  = 15 * time.Second
	defaultSynthesizeTimeout = 30 * time.Second
	defaultEmailTimeout      = 30 * time.Second
)

// Runner executes one processing run. Implemented by [pipeline.Runner].
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (pipeline.Result, error)
}

// Answerer answers a question against a stored summary. Implemented by
// digest.Digest.
type Answerer interface {
	Answer(ctx context.Context, summary, question string) (string, error)
}

// Translator is the best-effort translation gateway. The boolean reports
// degradation (the original text came back).
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, bool)
}

// Notifier sends the summary and notes emails. Implemented by notify.Notifier.
type Notifier interface {
	SendSummary(ctx context.Context, recipient, summary string) error
	SendNotes(ctx context.Context, recipient, notes string) error
}

// Timeouts bounds each derived operation. Zero fields leave the matching
// operation bounded only by the caller's context.
type Timeouts struct {
	Answer     time.Duration
	Translate  time.Duration
	Synthesize time.Duration
	Email      time.Duration
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithEventSink sets the sink session events are published to.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithEmbedder enables semantic search over summaries. When nil, populate
// skips embedding and Search returns [ErrSearchUnavailable].
func WithEmbedder(e embeddings.Provider) Option {
	return func(s *Service) { s.embedder = e }
}

// WithSynthesizer enables speech playback of summaries.
func WithSynthesizer(p tts.Provider) Option {
	return func(s *Service) { s.synth = p }
}

// WithNotifier enables the email operations.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithTimeouts overrides the per-operation timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(s *Service) { s.timeouts = t }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// Service is the orchestration layer over one user's sessions. It gates the
// pipeline behind the session state machine, tracks in-flight runs, applies
// default naming, and routes the derived operations to their gateways.
//
// All methods are safe for concurrent use.
type Service struct {
	sessions store.SessionStore
	runner   Runner
	answerer Answerer
	trans    Translator

	synth    tts.Provider
	notifier Notifier
	embedder embeddings.Provider

	timeouts Timeouts
	sink     EventSink
	metrics  *observe.Metrics
	log      *slog.Logger

	mu         sync.Mutex
	inflight   map[string]struct{}
	workspaces map[string]*workspace
}

// NewService wires a Service over its collaborators. The synthesizer,
// notifier, and embedder are optional and supplied via options; operations
// that need a missing collaborator fail with a descriptive error.
func NewService(sessions store.SessionStore, runner Runner, answerer Answerer, trans Translator, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		runner:   runner,
		answerer: answerer,
		trans:    trans,
		timeouts: Timeouts{
			Answer:     defaultAnswerTimeout,
			Translate:  defaultTranslateTimeout,
			Synthesize: defaultSynthesizeTimeout,
			Email:      defaultEmailTimeout,
		},
		sink:       discardSink{},
		metrics:    observe.DefaultMetrics(),
		log:        slog.Default(),
		inflight:   make(map[string]struct{}),
		workspaces: make(map[string]*workspace),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ─── Workspace ───────────────────────────────────────────────────────────────

// Workspace returns the user's current workspace snapshot, creating an empty
// one on first touch.
func (s *Service) Workspace(userID string) Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := s.workspaceLocked(userID)
	return Workspace{UserID: userID, Selected: ws.selected, UploadGeneration: ws.generation}
}

// Select makes name the user's selected session and bumps the upload
// generation, invalidating any upload bound to the previous selection.
// Returns [store.ErrNotFound] if the session does not exist.
func (s *Service) Select(ctx context.Context, userID, name string) (Workspace, error) {
	if _, err := s.sessions.Get(ctx, userID, name); err != nil {
		return Workspace{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws := s.workspaceLocked(userID)
	ws.selected = name
	ws.generation++
	return Workspace{UserID: userID, Selected: ws.selected, UploadGeneration: ws.generation}, nil
}

// workspaceLocked returns the user's workspace, creating it if needed.
// Callers must hold s.mu.
func (s *Service) workspaceLocked(userID string) *workspace {
	ws, ok := s.workspaces[userID]
	if !ok {
		ws = &workspace{}
		s.workspaces[userID] = ws
	}
	return ws
}

// bump advances the user's upload generation.
func (s *Service) bump(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaceLocked(userID).generation++
}

// ─── Session lifecycle ───────────────────────────────────────────────────────

// Overview pairs a stored session with its lifecycle state.
type Overview struct {
	Session store.Session
	State   State
}

// List returns the user's sessions in creation order, each annotated with its
// current state (Processing when an in-flight run exists for it).
func (s *Service) List(ctx context.Context, userID string) ([]Overview, error) {
	sessions, err := s.sessions.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Overview, len(sessions))
	for i := range sessions {
		out[i] = Overview{Session: sessions[i], State: s.stateOf(&sessions[i])}
	}
	return out, nil
}

// Create makes a new empty session. An empty name selects the default
// "Session N" where N is the user's current session count plus one; if that
// name is taken, the next free N is used.
func (s *Service) Create(ctx context.Context, userID, name string) (*store.Session, error) {
	if name != "" {
		sess, err := s.sessions.Create(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		s.afterCreate(userID, sess.Name)
		return sess, nil
	}

	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for n := count + 1; n <= count+maxNamingAttempts; n++ {
		sess, err := s.sessions.Create(ctx, userID, fmt.Sprintf("Session %d", n))
		if errors.Is(err, store.ErrDuplicateSession) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.afterCreate(userID, sess.Name)
		return sess, nil
	}
	return nil, fmt.Errorf("session: no free default name after %d attempts", maxNamingAttempts)
}

func (s *Service) afterCreate(userID, name string) {
	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	ws.selected = name
	ws.generation++
	s.mu.Unlock()

	s.sink.Publish(Event{Type: EventCreated, UserID: userID, Session: name, At: time.Now()})
}

// Rename changes a session's name and moves the selection with it. A run
// already in flight keeps targeting the old name; its result write will miss
// and be dropped, which is the accepted trade for never blocking a rename.
func (s *Service) Rename(ctx context.Context, userID, oldName, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return errors.New("session: new name must not be empty")
	}
	if err := s.sessions.Rename(ctx, userID, oldName, newName); err != nil {
		return err
	}

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	if ws.selected == oldName {
		ws.selected = newName
	}
	ws.generation++
	s.mu.Unlock()

	s.sink.Publish(Event{Type: EventRenamed, UserID: userID, Session: oldName, Detail: newName, At: time.Now()})
	return nil
}

// Delete removes a session. Deleting a session that does not exist succeeds
// without side effects, so retried deletes stay safe. Deleting is legal while
// a run is in flight: the run's eventual result write returns
// [store.ErrNotFound] and is swallowed.
func (s *Service) Delete(ctx context.Context, userID, name string) error {
	if err := s.sessions.Delete(ctx, userID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	if ws.selected == name {
		ws.selected = ""
	}
	ws.generation++
	s.mu.Unlock()

	s.sink.Publish(Event{Type: EventDeleted, UserID: userID, Session: name, At: time.Now()})
	return nil
}

// SetNotes replaces the session's notes. Notes are editable in every live
// state and do not advance the upload generation.
func (s *Service) SetNotes(ctx context.Context, userID, name, notes string) error {
	return s.sessions.SetNotes(ctx, userID, name, notes)
}

// ─── Processing ──────────────────────────────────────────────────────────────

// Outcome reports one completed processing run.
type Outcome struct {
	// Result is the pipeline output.
	Result pipeline.Result

	// Stored is false when the session was deleted (or renamed away) while
	// the run was in flight and the result had nowhere to go.
	Stored bool
}

// Process runs the pipeline for the named session and stores the result.
//
// The run is rejected before any work when the upload generation is stale,
// the session is missing, already populated, or already being processed.
// Session gating, not the pipeline, is what makes the result write happen at
// most once.
func (s *Service) Process(ctx context.Context, userID, name string, src media.Source, lang language.Tag, generation uint64) (Outcome, error) {
	s.mu.Lock()
	current := s.workspaceLocked(userID).generation
	s.mu.Unlock()
	if generation != current {
		return Outcome{}, fmt.Errorf("%w: got %d, workspace at %d", ErrStaleUpload, generation, current)
	}

	sess, err := s.sessions.Get(ctx, userID, name)
	if err != nil {
		return Outcome{}, err
	}
	if sess.Populated() {
		return Outcome{}, ErrAlreadyPopulated
	}

	if !s.acquire(userID, name) {
		return Outcome{}, ErrBusy
	}
	defer s.release(userID, name)

	log := s.log.With("user", userID, "session", name, "language", lang.Name)
	log.Info("processing recording", "filename", src.Filename)
	s.sink.Publish(Event{Type: EventProcessingBegan, UserID: userID, Session: name, Detail: src.Filename, At: time.Now()})

	// Once dispatched the run is detached from the caller's context: a client
	// that disconnects mid-upload must not abort a pipeline already at work.
	// Per-stage timeouts still bound the run.
	runCtx := context.WithoutCancel(ctx)
	res, err := s.runner.Run(runCtx, pipeline.Job{
		Source:   src,
		Language: lang,
		OnStage: func(stage string) {
			s.sink.Publish(Event{Type: EventStageFinished, UserID: userID, Session: name, Detail: stage, At: time.Now()})
		},
	})
	if err != nil {
		log.Warn("processing failed", "error", err)
		s.sink.Publish(Event{Type: EventProcessingError, UserID: userID, Session: name, Detail: err.Error(), At: time.Now()})
		return Outcome{}, err
	}

	stored := true
	err = s.sessions.SetResult(runCtx, userID, name, src.Filename, res.Transcription, res.Summary)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// The session was deleted or renamed mid-run. The result is dropped.
		log.Info("session gone before result write, dropping result")
		stored = false
	case errors.Is(err, store.ErrConflict):
		return Outcome{}, fmt.Errorf("%w: %w", ErrAlreadyPopulated, err)
	case err != nil:
		return Outcome{}, fmt.Errorf("session: store result: %w", err)
	}

	s.bump(userID)

	if stored {
		s.sink.Publish(Event{Type: EventPopulated, UserID: userID, Session: name, Degraded: res.SummaryDegraded, At: time.Now()})
		s.embedSummary(runCtx, userID, name, res)
	}
	return Outcome{Result: res, Stored: stored}, nil
}

// embedSummary stores a summary embedding for semantic search. Best effort:
// failures are logged and never surface to the processing caller. Degraded
// placeholder summaries are not embedded.
func (s *Service) embedSummary(ctx context.Context, userID, name string, res pipeline.Result) {
	if s.embedder == nil || res.SummaryDegraded {
		return
	}

	vec, err := s.embedder.Embed(ctx, res.Summary)
	if err != nil {
		s.log.Warn("summary embedding failed", "user", userID, "session", name, "error", err)
		s.metrics.RecordDegraded(ctx, "embedding")
		return
	}
	if err := s.sessions.SetEmbedding(ctx, userID, name, vec); err != nil {
		s.log.Warn("storing summary embedding failed", "user", userID, "session", name, "error", err)
	}
}

func (s *Service) acquire(userID, name string) bool {
	key := userID + "\x00" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(userID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, userID+"\x00"+name)
}

// stateOf derives the lifecycle state of a stored session.
func (s *Service) stateOf(sess *store.Session) State {
	if sess.Populated() {
		return Populated
	}
	s.mu.Lock()
	_, busy := s.inflight[sess.UserID+"\x00"+sess.Name]
	s.mu.Unlock()
	if busy {
		return Processing
	}
	return Empty
}

// ─── Derived operations ──────────────────────────────────────────────────────

// Question answers a follow-up question against the stored summary.
func (s *Service) Question(ctx context.Context, userID, name, question string) (string, error) {
	summary, err := s.populatedSummary(ctx, userID, name)
	if err != nil {
		return "", err
	}

	ctx, cancel := opContext(ctx, s.timeouts.Answer)
	defer cancel()
	return s.answerer.Answer(ctx, summary, question)
}

// Translate renders the stored summary in the target language, best effort.
// The boolean reports degradation: true means the original summary came back.
func (s *Service) Translate(ctx context.Context, userID, name string, target language.Tag) (string, bool, error) {
	summary, err := s.populatedSummary(ctx, userID, name)
	if err != nil {
		return "", false, err
	}
	text, degraded := s.translateText(ctx, summary, target)
	return text, degraded, nil
}

// Speech synthesizes the summary, translated to the target language first, as
// spoken audio. Synthesis failures affect only this call; the stored summary
// is untouched.
func (s *Service) Speech(ctx context.Context, userID, name string, target language.Tag) (*types.Audio, error) {
	if s.synth == nil {
		return nil, errors.New("session: no speech provider configured")
	}

	summary, err := s.populatedSummary(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	text, _ := s.translateText(ctx, summary, target)

	ctx, cancel := opContext(ctx, s.timeouts.Synthesize)
	defer cancel()

	start := time.Now()
	audio, err := s.synth.Synthesize(ctx, text, target.Base())
	s.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("session: synthesize speech: %w", err)
	}
	return audio, nil
}

// Email sends the session's summary or notes to recipient. kind selects the
// body: [EmailSummary] requires a populated session, [EmailNotes] requires
// non-empty notes.
func (s *Service) Email(ctx context.Context, userID, name, recipient, kind string) error {
	if s.notifier == nil {
		return errors.New("session: no mail sender configured")
	}

	ctx, cancel := opContext(ctx, s.timeouts.Email)
	defer cancel()

	switch kind {
	case EmailSummary:
		summary, err := s.populatedSummary(ctx, userID, name)
		if err != nil {
			return err
		}
		return s.notifier.SendSummary(ctx, recipient, summary)

	case EmailNotes:
		sess, err := s.sessions.Get(ctx, userID, name)
		if err != nil {
			return err
		}
		if strings.TrimSpace(sess.Notes) == "" {
			return errors.New("session: no notes to send")
		}
		return s.notifier.SendNotes(ctx, recipient, sess.Notes)

	default:
		return fmt.Errorf("session: unknown email kind %q", kind)
	}
}

// Search returns the user's sessions whose summaries are semantically closest
// to query. Requires a configured embeddings provider.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) ([]store.SearchHit, error) {
	if s.embedder == nil {
		return nil, ErrSearchUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("session: search query must not be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("session: embed query: %w", err)
	}
	return s.sessions.SearchSummaries(ctx, userID, vec, limit)
}

// translateText runs the best-effort translation with its timeout and metric.
func (s *Service) translateText(ctx context.Context, text string, target language.Tag) (string, bool) {
	ctx, cancel := opContext(ctx, s.timeouts.Translate)
	defer cancel()

	start := time.Now()
	out, degraded := s.trans.Translate(ctx, text, target.Base())
	s.metrics.TranslateDuration.Record(ctx, time.Since(start).Seconds())
	if degraded {
		s.metrics.RecordDegraded(ctx, "translate")
	}
	return out, degraded
}

// populatedSummary loads the session and enforces the Populated gate shared
// by every derived operation.
func (s *Service) populatedSummary(ctx context.Context, userID, name string) (string, error) {
	sess, err := s.sessions.Get(ctx, userID, name)
	if err != nil {
		return "", err
	}
	if !sess.Populated() || sess.Summary == nil {
		return "", ErrNotPopulated
	}
	return *sess.Summary, nil
}

// opContext derives an operation-bounded context. A zero timeout returns ctx
// unchanged with a no-op cancel.
func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
