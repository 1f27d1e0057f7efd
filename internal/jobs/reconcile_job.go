package jobs

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// FindOrphans lists stored files that no video or version row references.
func FindOrphans(ctx context.Context, store FileStore, refs References) ([]string, error) {
	files, err := store.Files()
	if err != nil {
		return nil, err
	}
	used, err := refs.ReferencedFilePaths(ctx)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, f := range files {
		if _, ok := used[f]; !ok {
			orphans = append(orphans, f)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

// ReconcileJob scans the upload root for files left behind by interrupted uploads or
// deletes. With Delete set it removes them; otherwise it only reports them.
type ReconcileJob struct {
	JobID  string
	Delete bool
	Store  FileStore
	Refs   References
	Logger *logrus.Logger

	// Orphans holds the paths found by the last Execute.
	Orphans []string
}

// ID returns the unique identifier of the job.
func (j *ReconcileJob) ID() string {
	return j.JobID
}

func (j *ReconcileJob) Execute(ctx context.Context) error {
	orphans, err := FindOrphans(ctx, j.Store, j.Refs)
	if err != nil {
		return fmt.Errorf("ReconcileJob %s: %w", j.JobID, err)
	}
	j.Orphans = orphans
	j.Logger.WithFields(logrus.Fields{"job_id": j.JobID, "orphans": len(orphans)}).Info("Reconcile scan finished")
	if !j.Delete || len(orphans) == 0 {
		return nil
	}
	remove := &RemoveFilesJob{JobID: j.JobID, Paths: orphans, Store: j.Store, Refs: j.Refs, Logger: j.Logger}
	return remove.Execute(ctx)
}
