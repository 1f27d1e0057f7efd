package jobs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// FileStore is the file side of a cleanup job.
type FileStore interface {
	Remove(ctx context.Context, publicPath string) error
	Files() ([]string, error)
}

// References reports which stored paths are still recorded on a video or version row.
type References interface {
	ReferencedFilePaths(ctx context.Context) (map[string]struct{}, error)
}

// RemoveFilesJob deletes files left behind by a cascading delete. Each path is checked
// against the database again right before removal, so a file that became referenced
// in the meantime is kept.
type RemoveFilesJob struct {
	JobID  string
	Paths  []string
	Store  FileStore
	Refs   References
	Logger *logrus.Logger
}

// ID returns the unique identifier of the job.
func (j *RemoveFilesJob) ID() string {
	return j.JobID
}

// Execute removes every path that is still unreferenced. It keeps going after a
// failed removal and reports the first failure.
func (j *RemoveFilesJob) Execute(ctx context.Context) error {
	if len(j.Paths) == 0 {
		return nil
	}
	refs, err := j.Refs.ReferencedFilePaths(ctx)
	if err != nil {
		return fmt.Errorf("RemoveFilesJob %s: load references: %w", j.JobID, err)
	}

	var firstErr error
	removed := 0
	for _, p := range j.Paths {
		if _, used := refs[p]; used {
			j.Logger.WithField("path", p).Info("File is referenced again, keeping it")
			continue
		}
		if err := j.Store.Remove(ctx, p); err != nil {
			j.Logger.WithField("path", p).WithError(err).Warn("Failed to remove file")
			if firstErr == nil {
				firstErr = fmt.Errorf("RemoveFilesJob %s: %w", j.JobID, err)
			}
			continue
		}
		removed++
	}
	j.Logger.WithFields(logrus.Fields{"job_id": j.JobID, "removed": removed}).Info("Removed orphaned files")
	return firstErr
}
