// Package media converts uploaded recordings into the canonical audio form
// the transcription providers consume: WAV, 16-bit signed little-endian PCM,
// mono, 16 kHz.
//
// Uploads are accepted by filename extension only. Audio containers are
// re-encoded directly; video containers are probed for an audio stream first
// and rejected when none exists. All intermediate files live in a scratch
// directory and are removed on every exit path; the caller owns the returned
// normalized file and must remove it when done.
package media

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for filename extensions outside the
	// accepted audio and video sets. It is raised before any file I/O.
	ErrUnsupportedFormat = errors.New("media: unsupported file format")

	// ErrNoAudioTrack is returned for video uploads that contain no audio
	// stream.
	ErrNoAudioTrack = errors.New("media: video has no audio track")

	// ErrDecode is returned when ffmpeg cannot decode or convert the upload.
	// It wraps the underlying failure, including the tail of ffmpeg's stderr.
	ErrDecode = errors.New("media: decode failed")
)

// Kind classifies an upload by its container family.
type Kind int

const (
	// KindAudio is a direct audio container (mp3, wav, m4a, flac).
	KindAudio Kind = iota

	// KindVideo is a video container whose audio track is extracted
	// (mp4, avi, mov).
	KindVideo
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

var (
	audioExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".flac": true}
	videoExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true}
)

// Classify maps a filename to its upload kind by extension,
// case-insensitively. Unknown extensions return ErrUnsupportedFormat.
func Classify(filename string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case audioExts[ext]:
		return KindAudio, nil
	case videoExts[ext]:
		return KindVideo, nil
	default:
		return 0, ErrUnsupportedFormat
	}
}
