// Package session owns the per-user session lifecycle: the state machine
// that decides which operations a session currently admits, the workspace
// bookkeeping that invalidates stale uploads, and the service that composes
// the stores, the processing pipeline, and the downstream gateways.
//
// A session moves Empty → Processing → Populated exactly once. Processing is
// an in-flight marker held by the service, not a stored column: the database
// only ever distinguishes Empty (no transcription) from Populated. Rename and
// delete are allowed in any live state; deleting a session mid-processing
// turns the late result write into a silent no-op.
package session

import "errors"

// Sentinel errors for rejected transitions and stale interactions.
var (
	// ErrAlreadyPopulated rejects processing a session that already holds a
	// result. Transcripts are immutable once written.
	ErrAlreadyPopulated = errors.New("session: already populated")

	// ErrBusy rejects a second concurrent processing run for the same session.
	ErrBusy = errors.New("session: processing already in progress")

	// ErrNotPopulated rejects derived operations (question, translation,
	// speech, email) against a session that has no result yet.
	ErrNotPopulated = errors.New("session: no result available yet")

	// ErrStaleUpload rejects an upload submitted under a workspace generation
	// that has since moved on (the user switched, renamed, or deleted a
	// session while the upload was pending).
	ErrStaleUpload = errors.New("session: stale upload generation")
)

// State is the lifecycle position of one session.
type State int

const (
	// Empty is the initial state: the session exists but holds no result.
	Empty State = iota

	// Processing marks an in-flight pipeline run. It is never persisted.
	Processing

	// Populated is terminal for the pipeline: transcription and summary are
	// set and will never change.
	Populated

	// Deleted is terminal: the record is gone.
	Deleted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Processing:
		return "processing"
	case Populated:
		return "populated"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// CanProcess reports whether a pipeline run may start from s.
func (s State) CanProcess() bool {
	return s == Empty
}

// CanDerive reports whether derived operations (question, translation,
// speech, email) are admitted in s.
func (s State) CanDerive() bool {
	return s == Populated
}

// CanRename reports whether the session may be renamed in s. Renaming never
// touches the result columns, so it is valid in every live state.
func (s State) CanRename() bool {
	return s != Deleted
}

// CanDelete reports whether the session may be deleted in s.
func (s State) CanDelete() bool {
	return s != Deleted
}

// workspace tracks one user's interactive state: which session is selected
// and the upload generation counter. The counter is bumped by every
// state-changing action so that an upload widget bound to an older generation
// cannot feed a recording into a session the user has since left.
type workspace struct {
	selected   string
	generation uint64
}

// Workspace is the externally visible snapshot of a user's workspace.
type Workspace struct {
	// UserID owns this workspace.
	UserID string

	// Selected is the currently selected session name, empty when none.
	Selected string

	// UploadGeneration is the generation an upload must carry to be accepted.
	UploadGeneration uint64
}
