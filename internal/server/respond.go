package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/voxmill/voxmill/internal/auth"
	"github.com/voxmill/voxmill/internal/digest"
	"github.com/voxmill/voxmill/internal/media"
	"github.com/voxmill/voxmill/internal/notify"
	"github.com/voxmill/voxmill/internal/session"
	"github.com/voxmill/voxmill/internal/store"
	"github.com/voxmill/voxmill/pkg/provider/stt"
)

// errorBody is the JSON error envelope returned for every failed request.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeJSON encodes v with the given status. Encoding failures are logged;
// the status line has already been written by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// writeError maps err onto the HTTP error envelope.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()
	writeJSON(w, status, body)
}

// classify maps a typed error onto its HTTP status and stable error code.
// Unknown errors from gateways are bad-gateway; everything else is internal.
func classify(err error) (int, string) {
	switch {
	// 400 — the request itself is malformed.
	case errors.Is(err, media.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, notify.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_address"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"

	// 401
	case errors.Is(err, auth.ErrBadCredentials), errors.Is(err, auth.ErrUnknownUser):
		return http.StatusUnauthorized, "unauthorized"

	// 404
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"

	// 409 — valid request, wrong state.
	case errors.Is(err, store.ErrDuplicateUser):
		return http.StatusConflict, "duplicate_user"
	case errors.Is(err, store.ErrDuplicateSession):
		return http.StatusConflict, "duplicate_session"
	case errors.Is(err, store.ErrConflict), errors.Is(err, session.ErrAlreadyPopulated):
		return http.StatusConflict, "already_populated"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, session.ErrStaleUpload):
		return http.StatusConflict, "stale_upload"
	case errors.Is(err, session.ErrNotPopulated):
		return http.StatusConflict, "not_populated"

	// 422 — the content could not be processed.
	case errors.Is(err, stt.ErrUnintelligible):
		return http.StatusUnprocessableEntity, "unintelligible"
	case errors.Is(err, media.ErrNoAudioTrack):
		return http.StatusUnprocessableEntity, "no_audio_track"
	case errors.Is(err, media.ErrDecode):
		return http.StatusUnprocessableEntity, "decode_failed"

	// 429
	case errors.Is(err, digest.ErrQuota):
		return http.StatusTooManyRequests, "quota_exceeded"

	// 501 — the deployment lacks the provider for this operation.
	case errors.Is(err, session.ErrSearchUnavailable):
		return http.StatusNotImplemented, "search_unavailable"

	// 502 — an upstream service let us down.
	case errors.Is(err, stt.ErrUnavailable), errors.Is(err, digest.ErrService), errors.Is(err, notify.ErrDelivery):
		return http.StatusBadGateway, "upstream_failed"

	default:
		return http.StatusInternalServerError, "internal"
	}
}

// errBadRequest marks request decoding and parameter failures.
var errBadRequest = errors.New("bad request")

// badRequestf builds a 400 error with a formatted message.
func badRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errBadRequest}, args...)...)
}

// maxJSONBody caps JSON request bodies. Uploads have their own cap.
const maxJSONBody = 1 << 20

// decodeJSON strictly decodes the request body into v. Unknown fields and
// trailing data are errors so typos surface instead of silently vanishing.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequestf("decode body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequestf("trailing data after JSON body")
	}
	return nil
}
