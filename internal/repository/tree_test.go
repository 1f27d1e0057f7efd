package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoreview/models"
)

func comment(id string, parent string) *models.Comment {
	c := &models.Comment{ID: id, VideoID: "v1"}
	if parent != "" {
		c.ParentID = strPtr(parent)
	}
	return c
}

func countNodes(nodes []*models.Comment) int {
	n := 0
	for _, c := range nodes {
		n += 1 + countNodes(c.Replies)
	}
	return n
}

func TestBuildCommentTree(t *testing.T) {
	flat := []*models.Comment{
		comment("a", ""),
		comment("b", "a"),
		comment("c", ""),
		comment("d", "b"),
		comment("e", "a"),
	}
	roots := BuildCommentTree(flat, quietLogger())

	require.Len(t, roots, 2)
	assert.Equal(t, "a", roots[0].ID)
	assert.Equal(t, "c", roots[1].ID)
	require.Len(t, roots[0].Replies, 2)
	assert.Equal(t, "b", roots[0].Replies[0].ID)
	assert.Equal(t, "e", roots[0].Replies[1].ID)
	require.Len(t, roots[0].Replies[0].Replies, 1)
	assert.Equal(t, "d", roots[0].Replies[0].Replies[0].ID)
	assert.NotNil(t, roots[1].Replies)
	assert.Equal(t, len(flat), countNodes(roots))
}

func TestBuildCommentTreeDropsDanglingReplies(t *testing.T) {
	flat := []*models.Comment{
		comment("a", ""),
		comment("orphan", "gone"),
		comment("self", "self"),
	}
	roots := BuildCommentTree(flat, quietLogger())

	require.Len(t, roots, 1)
	assert.Equal(t, "a", roots[0].ID)
	assert.Equal(t, 1, countNodes(roots))
}

func TestBuildFolderTreeKeepsDanglingAsRoots(t *testing.T) {
	folders := []*models.Folder{
		{ID: "root"},
		{ID: "child", ParentID: strPtr("root")},
		{ID: "lost", ParentID: strPtr("gone")},
	}
	roots := BuildFolderTree(folders)

	require.Len(t, roots, 2)
	assert.Equal(t, "root", roots[0].ID)
	assert.Equal(t, "lost", roots[1].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "child", roots[0].Children[0].ID)
}
