// Package storage keeps uploaded video files under the upload root and mirrors them to
// optional secondary sinks.
package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videoreview/internal/apperrors"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/videos/"

// ErrTooLarge is returned by Save when the payload exceeds the size cap.
var ErrTooLarge = errors.New("file exceeds the maximum upload size")

// Sink receives a copy of every stored file. Sink failures never fail the primary write.
type Sink interface {
	Name() string
	Mirror(ctx context.Context, publicPath, localPath, contentType string) error
	Remove(ctx context.Context, publicPath string) error
}

// Store is the local file store.
type Store struct {
	root   string
	logger *logrus.Logger
	sinks  []Sink
}

// NewStore creates the upload root if needed and returns a store over it.
func NewStore(root string, logger *logrus.Logger, sinks ...Sink) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve upload root")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload root %s", abs)
	}
	return &Store{root: abs, logger: logger, sinks: sinks}, nil
}

// Root returns the absolute upload root.
func (s *Store) Root() string {
	return s.root
}

// PublicPath builds the served path for a file stored under the given segments.
func PublicPath(segments ...string) string {
	return URLPrefix + path.Join(segments...)
}

// Resolve maps a public path, or a path relative to the upload root, to a file on
// disk. Paths containing ".." segments are rejected; everything else is resolved so
// that symlinks cannot escape the root.
func (s *Store) Resolve(publicPath string) (string, error) {
	rel := strings.TrimPrefix(publicPath, URLPrefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "", apperrors.NotFound("File not found")
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == ".." {
			return "", apperrors.NotFound("File not found")
		}
	}
	full, err := securejoin.SecureJoin(s.root, rel)
	if err != nil {
		return "", apperrors.NotFound("File not found")
	}
	return full, nil
}

// Save writes body to dir/filename under the root through a temporary file that is
// renamed into place only after the copy completes. A positive maxBytes caps the
// payload. It returns the public path and the number of bytes written.
func (s *Store) Save(ctx context.Context, dir []string, filename, contentType string, body io.Reader, maxBytes int64) (string, int64, error) {
	filename = filepath.Base(filename)
	if filename == "." || filename == "/" || filename == ".." {
		return "", 0, apperrors.Validation("Invalid file name")
	}
	publicPath := PublicPath(append(dir, filename)...)
	dest, err := s.Resolve(publicPath)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, apperrors.Storage(err, "Failed to create upload directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", 0, apperrors.Storage(err, "Failed to create upload file")
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	src := body
	if maxBytes > 0 {
		src = io.LimitReader(body, maxBytes+1)
	}
	written, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: src})
	if err != nil {
		cleanup()
		return "", 0, apperrors.Storage(errors.Wrap(err, "copy upload"), "Failed to write uploaded file")
	}
	if maxBytes > 0 && written > maxBytes {
		cleanup()
		return "", 0, ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", 0, apperrors.Storage(err, "Failed to write uploaded file")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", 0, apperrors.Storage(err, "Failed to store uploaded file")
	}

	s.mirror(ctx, publicPath, dest, contentType)
	return publicPath, written, nil
}

// Remove deletes the file behind publicPath and its mirrored copies. A file that is
// already gone is not an error.
func (s *Store) Remove(ctx context.Context, publicPath string) error {
	full, err := s.Resolve(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return apperrors.Storage(err, "Failed to remove file")
	}
	for _, sink := range s.sinks {
		if err := sink.Remove(ctx, publicPath); err != nil {
			s.logger.WithFields(logrus.Fields{"sink": sink.Name(), "path": publicPath}).WithError(err).Warn("Secondary sink remove failed")
		}
	}
	return nil
}

// Files lists the public paths of every regular file under the root. Temporary
// upload files are skipped.
func (s *Store) Files() ([]string, error) {
	var files []string
	err := filepath.Walk(s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || strings.HasPrefix(info.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		files = append(files, PublicPath(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage(err, "Failed to scan upload root")
	}
	return files, nil
}

func (s *Store) mirror(ctx context.Context, publicPath, localPath, contentType string) {
	for _, sink := range s.sinks {
		if err := sink.Mirror(ctx, publicPath, localPath, contentType); err != nil {
			s.logger.WithFields(logrus.Fields{
				"sink": sink.Name(),
				"path": publicPath,
			}).WithError(err).Warn("Secondary sink write failed")
		}
	}
}

// ctxReader stops a copy once the request context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
