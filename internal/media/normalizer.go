package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Canonical output format. Transcription providers expect exactly this shape.
const (
	targetSampleRate = 16000
	targetChannels   = 1
	targetCodec      = "pcm_s16le"
)

// Source is an upload to normalize. The reader is consumed exactly once.
type Source struct {
	// Reader streams the uploaded bytes.
	Reader io.Reader

	// Filename is the user-supplied name, used only for extension
	// classification. It never becomes part of a filesystem path.
	Filename string

	// Size is the declared upload size in bytes, if known. Zero when the
	// transport did not declare one.
	Size int64
}

// Handle refers to a normalized scratch WAV. The caller owns the file and
// must call Remove when finished with it.
type Handle struct {
	Path string
	Size int64
}

// Remove deletes the normalized file. Removing an already-removed handle
// returns the underlying fs error.
func (h Handle) Remove() error {
	return os.Remove(h.Path)
}

// Normalizer converts uploads into the canonical WAV form using external
// ffmpeg and ffprobe binaries.
type Normalizer struct {
	ffmpegPath  string
	ffprobePath string
	scratchDir  string
	runner      Runner
	log         *slog.Logger
}

// Option customises a Normalizer.
type Option func(*Normalizer)

// WithFFmpegPath overrides the ffmpeg binary path (default "ffmpeg", resolved
// via PATH).
func WithFFmpegPath(path string) Option {
	return func(n *Normalizer) { n.ffmpegPath = path }
}

// WithFFprobePath overrides the ffprobe binary path (default "ffprobe").
func WithFFprobePath(path string) Option {
	return func(n *Normalizer) { n.ffprobePath = path }
}

// WithRunner replaces the command runner. Used by tests.
func WithRunner(r Runner) Option {
	return func(n *Normalizer) { n.runner = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(n *Normalizer) { n.log = log }
}

// NewNormalizer creates a Normalizer writing intermediate files under
// scratchDir. An empty scratchDir falls back to the OS temp directory.
func NewNormalizer(scratchDir string, opts ...Option) *Normalizer {
	n := &Normalizer{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		scratchDir:  scratchDir,
		runner:      execRunner{},
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize spools the upload to disk, verifies video uploads carry audio,
// and re-encodes to the canonical WAV form. The spooled original is removed
// on every exit path. On success the returned Handle's file is the caller's
// to remove; on failure no files remain.
func (n *Normalizer) Normalize(ctx context.Context, src Source) (Handle, error) {
	kind, err := Classify(src.Filename)
	if err != nil {
		return Handle{}, err
	}

	spooled, err := n.spool(src)
	if err != nil {
		return Handle{}, err
	}
	defer n.removeScratch(spooled)

	if kind == KindVideo {
		hasAudio, err := n.hasAudioStream(ctx, spooled)
		if err != nil {
			return Handle{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if !hasAudio {
			return Handle{}, ErrNoAudioTrack
		}
	}

	out, err := n.scratchPath("normalized-*.wav")
	if err != nil {
		return Handle{}, err
	}
	if err := n.convert(ctx, spooled, out); err != nil {
		n.removeScratch(out)
		return Handle{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	info, err := os.Stat(out)
	if err != nil {
		n.removeScratch(out)
		return Handle{}, fmt.Errorf("media: stat normalized file: %w", err)
	}

	n.log.Debug("normalized upload",
		"filename", src.Filename,
		"kind", kind.String(),
		"bytes_in", src.Size,
		"bytes_out", info.Size())
	return Handle{Path: out, Size: info.Size()}, nil
}

// spool copies the upload into the scratch directory under a random name
// that keeps only the original extension.
func (n *Normalizer) spool(src Source) (string, error) {
	ext := strings.ToLower(filepath.Ext(src.Filename))
	f, err := os.CreateTemp(n.scratchDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("media: create spool file: %w", err)
	}
	if _, err := io.Copy(f, src.Reader); err != nil {
		f.Close()
		n.removeScratch(f.Name())
		return "", fmt.Errorf("media: spool upload: %w", err)
	}
	if err := f.Close(); err != nil {
		n.removeScratch(f.Name())
		return "", fmt.Errorf("media: close spool file: %w", err)
	}
	return f.Name(), nil
}

// scratchPath reserves a fresh file in the scratch directory and returns its
// path. The file is created empty; ffmpeg overwrites it via -y.
func (n *Normalizer) scratchPath(pattern string) (string, error) {
	f, err := os.CreateTemp(n.scratchDir, pattern)
	if err != nil {
		return "", fmt.Errorf("media: create scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		n.removeScratch(f.Name())
		return "", fmt.Errorf("media: close scratch file: %w", err)
	}
	return f.Name(), nil
}

// hasAudioStream probes the container for at least one audio stream.
func (n *Normalizer) hasAudioStream(ctx context.Context, path string) (bool, error) {
	out, err := n.runner.Output(ctx, n.ffprobePath,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// convert re-encodes src into the canonical WAV form at dst.
func (n *Normalizer) convert(ctx context.Context, src, dst string) error {
	return n.runner.Run(ctx, n.ffmpegPath,
		"-i", src,
		"-vn",
		"-ar", fmt.Sprintf("%d", targetSampleRate),
		"-ac", fmt.Sprintf("%d", targetChannels),
		"-c:a", targetCodec,
		"-threads", "0",
		"-y",
		dst,
	)
}

func (n *Normalizer) removeScratch(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		n.log.Warn("failed to remove scratch file", "path", path, "error", err)
	}
}
