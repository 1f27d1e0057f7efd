package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type memStore struct {
	files   map[string]bool
	failOn  string
	removed []string
}

func (m *memStore) Remove(_ context.Context, p string) error {
	if p == m.failOn {
		return errors.New("permission denied")
	}
	delete(m.files, p)
	m.removed = append(m.removed, p)
	return nil
}

func (m *memStore) Files() ([]string, error) {
	var out []string
	for f := range m.files {
		out = append(out, f)
	}
	return out, nil
}

type staticRefs map[string]struct{}

func (s staticRefs) ReferencedFilePaths(context.Context) (map[string]struct{}, error) {
	return s, nil
}

func TestRemoveFilesJobKeepsReferencedFiles(t *testing.T) {
	store := &memStore{files: map[string]bool{"/videos/a": true, "/videos/b": true}}
	job := &RemoveFilesJob{
		JobID:  "rm-1",
		Paths:  []string{"/videos/a", "/videos/b"},
		Store:  store,
		Refs:   staticRefs{"/videos/b": {}},
		Logger: quietLogger(),
	}
	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, []string{"/videos/a"}, store.removed)
	assert.True(t, store.files["/videos/b"])
}

func TestRemoveFilesJobReportsFailureAndContinues(t *testing.T) {
	store := &memStore{files: map[string]bool{"/videos/a": true, "/videos/b": true}, failOn: "/videos/a"}
	job := &RemoveFilesJob{JobID: "rm-2", Paths: []string{"/videos/a", "/videos/b"}, Store: store, Refs: staticRefs{}, Logger: quietLogger()}

	err := job.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"/videos/b"}, store.removed)
}

func TestReconcileJob(t *testing.T) {
	store := &memStore{files: map[string]bool{"/videos/keep": true, "/videos/z-orphan": true, "/videos/a-orphan": true}}
	refs := staticRefs{"/videos/keep": {}}

	scan := &ReconcileJob{JobID: "scan", Store: store, Refs: refs, Logger: quietLogger()}
	require.NoError(t, scan.Execute(context.Background()))
	assert.Equal(t, []string{"/videos/a-orphan", "/videos/z-orphan"}, scan.Orphans)
	assert.Empty(t, store.removed)

	clean := &ReconcileJob{JobID: "clean", Delete: true, Store: store, Refs: refs, Logger: quietLogger()}
	require.NoError(t, clean.Execute(context.Background()))
	assert.ElementsMatch(t, []string{"/videos/a-orphan", "/videos/z-orphan"}, store.removed)
	assert.Len(t, store.files, 1)
}
