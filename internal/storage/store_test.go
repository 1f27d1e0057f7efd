package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoreview/internal/apperrors"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type failingSink struct{ calls int }

func (f *failingSink) Name() string { return "failing" }
func (f *failingSink) Mirror(context.Context, string, string, string) error {
	f.calls++
	return errors.New("offline")
}
func (f *failingSink) Remove(context.Context, string) error { return errors.New("offline") }

func TestSaveWritesUnderNestedPath(t *testing.T) {
	s, err := NewStore(t.TempDir(), quietLogger())
	require.NoError(t, err)

	publicPath, size, err := s.Save(context.Background(), []string{"p1", "f1"}, "abc-clip.mp4", "video/mp4",
		strings.NewReader("hello video"), 0)
	require.NoError(t, err)
	assert.Equal(t, "/videos/p1/f1/abc-clip.mp4", publicPath)
	assert.Equal(t, int64(11), size)

	full, err := s.Resolve(publicPath)
	require.NoError(t, err)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "hello video", string(data))

	files, err := s.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{publicPath}, files)
}

func TestSaveEnforcesMaxBytes(t *testing.T) {
	s, err := NewStore(t.TempDir(), quietLogger())
	require.NoError(t, err)

	_, _, err = s.Save(context.Background(), []string{"p1", "f1"}, "big.mp4", "video/mp4",
		bytes.NewReader(make([]byte, 32)), 16)
	assert.ErrorIs(t, err, ErrTooLarge)

	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSaveStripsDirectoriesFromFileName(t *testing.T) {
	s, err := NewStore(t.TempDir(), quietLogger())
	require.NoError(t, err)

	publicPath, _, err := s.Save(context.Background(), []string{"p1", "f1"}, "../../escape.mp4", "video/mp4",
		strings.NewReader("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, "/videos/p1/f1/escape.mp4", publicPath)
}

func TestResolveRejectsTraversal(t *testing.T) {
	s, err := NewStore(t.TempDir(), quietLogger())
	require.NoError(t, err)

	for _, p := range []string{"/videos/../secret", "/videos/p1/../../etc/passwd", "/videos/", ""} {
		_, err := s.Resolve(p)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), p)
	}

	full, err := s.Resolve("/videos/p1/f1/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "p1", "f1", "a.mp4"), full)
}

func TestSinkFailureDoesNotFailSave(t *testing.T) {
	sink := &failingSink{}
	s, err := NewStore(t.TempDir(), quietLogger(), sink)
	require.NoError(t, err)

	publicPath, _, err := s.Save(context.Background(), []string{"p"}, "a.mp4", "video/mp4", strings.NewReader("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.calls)
	assert.NoError(t, s.Remove(context.Background(), publicPath))
}

func TestFlatMirrorCopiesAndRemoves(t *testing.T) {
	mirrorDir := t.TempDir()
	mirror, err := NewFlatMirror(mirrorDir)
	require.NoError(t, err)
	s, err := NewStore(t.TempDir(), quietLogger(), mirror)
	require.NoError(t, err)
	ctx := context.Background()

	publicPath, _, err := s.Save(ctx, []string{"p", "f", "v", "versions"}, "u-cut.mp4", "video/mp4", strings.NewReader("frames"), 0)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(mirrorDir, "u-cut.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))

	require.NoError(t, s.Remove(ctx, publicPath))
	_, err = os.Stat(filepath.Join(mirrorDir, "u-cut.mp4"))
	assert.True(t, os.IsNotExist(err))
	full, _ := s.Resolve(publicPath)
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(ctx, publicPath), "removing twice is not an error")
}

func TestSaveHonorsCancelledContext(t *testing.T) {
	s, err := NewStore(t.TempDir(), quietLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = s.Save(ctx, []string{"p"}, "a.mp4", "video/mp4", strings.NewReader("x"), 0)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStorage))
	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}
