package repository

import (
	"github.com/sirupsen/logrus"

	"videoreview/models"
)

// BuildCommentTree arranges comments, already sorted by creation time, into a forest.
// Creation order is kept within each level. A reply whose parent is not in the input
// is dropped and logged.
func BuildCommentTree(comments []*models.Comment, logger *logrus.Logger) []*models.Comment {
	byID := make(map[string]*models.Comment, len(comments))
	for _, c := range comments {
		c.Replies = []*models.Comment{}
		byID[c.ID] = c
	}

	roots := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ParentID == nil || *c.ParentID == "" {
			roots = append(roots, c)
			continue
		}
		parent, ok := byID[*c.ParentID]
		if !ok || parent == c {
			logger.WithFields(logrus.Fields{
				"comment_id": c.ID,
				"parent_id":  *c.ParentID,
				"video_id":   c.VideoID,
			}).Warn("Dropping comment with unresolved parent")
			continue
		}
		parent.Replies = append(parent.Replies, c)
	}
	return roots
}

// BuildFolderTree arranges folders into a forest. Unlike comments, a folder whose
// parent is missing is kept as a root so its videos stay reachable.
func BuildFolderTree(folders []*models.Folder) []*models.Folder {
	byID := make(map[string]*models.Folder, len(folders))
	for _, f := range folders {
		f.Children = nil
		byID[f.ID] = f
	}

	roots := make([]*models.Folder, 0, len(folders))
	for _, f := range folders {
		if f.ParentID == nil || *f.ParentID == "" {
			roots = append(roots, f)
			continue
		}
		parent, ok := byID[*f.ParentID]
		if !ok || parent == f {
			roots = append(roots, f)
			continue
		}
		parent.Children = append(parent.Children, f)
	}
	return roots
}
