package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"nanoboard/utils"
)

// SaveStatus tells the caller what happened to an incoming attachment.
type SaveStatus int

const (
	// StatusStored means the full stream was written and Path is set.
	StatusStored SaveStatus = iota
	// StatusSkipped means the extension is not on the allow-list; the post
	// proceeds without an attachment. Not an error.
	StatusSkipped
	// StatusTooLarge means the stream exceeded the size ceiling; nothing was
	// kept on disk.
	StatusTooLarge
)

// SaveResult is the outcome of an attachment save attempt.
type SaveResult struct {
	Status SaveStatus
	// Path is the stored file name inside the storage root, set only when
	// Status is StatusStored.
	Path string
}

var imageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
var mediaExtensions = []string{"mp4", "mp3", "webm"}

// AttachmentStore validates and persists uploaded media under a fixed root
// directory. Disk writes are not serialized against the post repository; only
// the allow-list and naming policy live here.
type AttachmentStore struct {
	root     string
	maxBytes int64
}

// NewAttachmentStore creates a store rooted at dir with the given per-file
// size ceiling. The root directory is created if missing.
func NewAttachmentStore(dir string, maxBytes int64) (*AttachmentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &AttachmentStore{root: dir, maxBytes: maxBytes}, nil
}

// Root returns the storage root directory.
func (s *AttachmentStore) Root() string {
	return s.root
}

// Save validates the filename's extension against the allow-list and, when
// accepted, streams r into a uniquely named file under the root. The write is
// atomic from the caller's view: bytes go to a temp file first and the final
// name appears only after a successful rename. Disallowed extensions yield
// StatusSkipped; exceeding the ceiling yields StatusTooLarge with the partial
// temp file removed. Any I/O failure is returned as an error.
func (s *AttachmentStore) Save(filename string, r io.Reader) (SaveResult, error) {
	ext := Extension(filename)
	if !allowedExtension(ext) {
		return SaveResult{Status: StatusSkipped}, nil
	}

	storedName := utils.NewToken(utils.TokenLength) + "-" + sanitizeFilename(filename)
	tmpPath := filepath.Join(s.root, "."+uuid.NewString()+".part")

	f, err := os.Create(tmpPath)
	if err != nil {
		return SaveResult{}, err
	}

	// One spare byte past the ceiling distinguishes "exactly at the limit"
	// from "over it".
	limited := &io.LimitedReader{R: r, N: s.maxBytes + 1}
	written, err := io.Copy(f, limited)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return SaveResult{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return SaveResult{}, err
	}
	if written > s.maxBytes {
		os.Remove(tmpPath)
		return SaveResult{Status: StatusTooLarge}, nil
	}

	finalPath := filepath.Join(s.root, storedName)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return SaveResult{}, err
	}
	return SaveResult{Status: StatusStored, Path: storedName}, nil
}

// Extension returns the substring after the last dot, lowercased, or "" when
// the name has no dot.
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// IsImageExtension reports whether ext is a displayable image type.
func IsImageExtension(ext string) bool {
	return contains(imageExtensions, ext)
}

// IsMediaExtension reports whether ext is a playable video/audio type.
func IsMediaExtension(ext string) bool {
	return contains(mediaExtensions, ext)
}

func allowedExtension(ext string) bool {
	return IsImageExtension(ext) || IsMediaExtension(ext)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// sanitizeFilename strips directory components and characters that are unsafe
// in a flat storage namespace. Empty results fall back to "file".
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
