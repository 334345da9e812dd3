// Package photostore keeps attendance photo artifacts on a filesystem.
package photostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"presensi/internal/domain"
)

// RefPrefix is prepended to artifact names in persisted references.
const RefPrefix = "uploads/"

// Config describes where and what the store accepts.
type Config struct {
	// Dir is the directory artifacts are written to.
	Dir string
	// MaxBytes caps a single upload. Zero means no limit.
	MaxBytes int64
	// AllowedMIMEPrefix is matched against the declared content type.
	AllowedMIMEPrefix string
	// PublicBaseURL is prefixed to RefPrefix+name by ResolveURL.
	PublicBaseURL string
}

// Store implements domain.PhotoStore on top of an afero filesystem.
type Store struct {
	fs  afero.Fs
	cfg Config
	now func() time.Time
}

var _ domain.PhotoStore = (*Store)(nil)

// New creates a Store on fsys, creating cfg.Dir if needed.
func New(fsys afero.Fs, cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		cfg.Dir = "uploads"
	}
	if cfg.AllowedMIMEPrefix == "" {
		cfg.AllowedMIMEPrefix = "image/"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	if err := fsys.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("photostore: create %s: %w", cfg.Dir, err)
	}
	return &Store{fs: fsys, cfg: cfg, now: time.Now}, nil
}

// NewOS creates a Store backed by the operating system filesystem.
func NewOS(cfg Config) (*Store, error) {
	return New(afero.NewOsFs(), cfg)
}

// WithClock replaces the time source used for artifact names.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// IsAcceptableUpload reports whether a declared content type may be stored.
// The declared type is trusted; the bytes are not sniffed.
func (s *Store) IsAcceptableUpload(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), s.cfg.AllowedMIMEPrefix)
}

// Store writes body as {userID}-{unixMillis}{ext} and returns the name.
func (s *Store) Store(ctx context.Context, userID int64, body io.Reader, ext, contentType string) (string, error) {
	if !s.IsAcceptableUpload(contentType) {
		return "", domain.ErrUnsupportedMedia
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = cleanExt(ext)

	f, name, err := s.create(userID, ext)
	if err != nil {
		return "", err
	}

	src := body
	if s.cfg.MaxBytes > 0 {
		src = io.LimitReader(body, s.cfg.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.cfg.MaxBytes > 0 && n > s.cfg.MaxBytes {
		err = domain.ErrPhotoTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(s.path(name))
		if errors.Is(err, domain.ErrPhotoTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("photostore: write %s: %w", name, err)
	}
	return name, nil
}

// create opens a new file exclusively, moving to the next millisecond when
// the name is already taken.
func (s *Store) create(userID int64, ext string) (afero.File, string, error) {
	ms := s.now().UnixMilli()
	for attempt := 0; attempt < 100; attempt++ {
		name := fmt.Sprintf("%d-%d%s", userID, ms+int64(attempt), ext)
		f, err := s.fs.OpenFile(s.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("photostore: create %s: %w", name, err)
		}
	}
	return nil, "", fmt.Errorf("photostore: no free name for user %d", userID)
}

// Delete removes an artifact. A missing artifact is not an error.
func (s *Store) Delete(name string) error {
	name = path.Base(filepath.ToSlash(name))
	if name == "." || name == "/" {
		return nil
	}
	err := s.fs.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("photostore: delete %s: %w", name, err)
	}
	return nil
}

// Exists reports whether name is a stored artifact. Directories and names
// that are not a single path element never exist.
func (s *Store) Exists(name string) bool {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return false
	}
	info, err := s.fs.Stat(s.path(name))
	return err == nil && !info.IsDir()
}

// Ref returns the persisted reference for an artifact name.
func (s *Store) Ref(name string) string {
	return RefPrefix + name
}

// NameFromRef extracts the artifact name from a persisted reference.
func (s *Store) NameFromRef(ref string) string {
	return path.Base(strings.TrimPrefix(filepath.ToSlash(ref), RefPrefix))
}

// ResolveURL returns the public URL of an artifact.
func (s *Store) ResolveURL(name string) string {
	return s.cfg.PublicBaseURL + "/" + RefPrefix + name
}

// FileSystem exposes the artifact directory for static serving.
func (s *Store) FileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir(s.cfg.Dir)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.cfg.Dir, name)
}

func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	// Keep names flat and predictable.
	if strings.ContainsAny(ext[1:], `./\`) || len(ext) > 10 {
		return ""
	}
	return ext
}
