package repository

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoreview/internal/apperrors"
	"videoreview/internal/db"
	"videoreview/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	g, err := db.Open(context.Background(), db.Options{
		Path:        filepath.Join(t.TempDir(), "review.db"),
		BusyRetries: 3,
		BusyBackoff: time.Millisecond,
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return New(g, quietLogger())
}

func strPtr(s string) *string { return &s }

type fixture struct {
	project *models.Project
	folder  *models.Folder
	video   *models.Video
}

func seed(t *testing.T, r *Repository) fixture {
	t.Helper()
	ctx := context.Background()
	p, err := r.CreateProject(ctx, "Launch Film", strPtr("Q3 campaign"))
	require.NoError(t, err)
	f, err := r.CreateFolder(ctx, p.ID, "Cuts", nil)
	require.NoError(t, err)
	v := addVideo(t, r, p.ID, f.ID, "rough.mp4")
	return fixture{project: p, folder: f, video: v}
}

func addVideo(t *testing.T, r *Repository, projectID, folderID, name string) *models.Video {
	t.Helper()
	id := "vid-" + name
	v, err := r.CreateVideo(context.Background(), &models.Video{
		ID:        id,
		ProjectID: projectID,
		FolderID:  folderID,
		Name:      name,
		FilePath:  "/videos/" + projectID + "/" + folderID + "/" + id + "-" + name,
		FileSize:  1024,
		FileType:  "video/mp4",
	})
	require.NoError(t, err)
	return v
}

func TestCreateVideoDefaults(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)

	assert.Equal(t, models.VideoStatusNoStatus, fx.video.VideoStatus)
	assert.False(t, fx.video.IsHidden)
	assert.Nil(t, fx.video.Duration)
	assert.Equal(t, fx.project.ID, fx.video.ProjectID)
	assert.Equal(t, fx.folder.ID, fx.video.FolderID)
	assert.Equal(t, "Q3 campaign", *fx.project.Description)
}

func TestProjectLookupMissReturnsNil(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p, err := r.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = r.UpdateProject(ctx, "nope", ProjectUpdate{Name: strPtr("x")})
	require.NoError(t, err)
	assert.Nil(t, p)

	res, err := r.DeleteProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCreateProjectRequiresName(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.CreateProject(context.Background(), "   ", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestDuplicateFolderNameConflicts(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	_, err := r.CreateFolder(ctx, fx.project.ID, "Cuts", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	other, err := r.CreateProject(ctx, "Other", nil)
	require.NoError(t, err)
	_, err = r.CreateFolder(ctx, other.ID, "Cuts", nil)
	assert.NoError(t, err)
}

func TestCreateFolderUnknownProject(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.CreateFolder(context.Background(), "missing", "Cuts", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestFolderMoveRejectsCycles(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	child, err := r.CreateFolder(ctx, fx.project.ID, "Selects", &fx.folder.ID)
	require.NoError(t, err)
	grandchild, err := r.CreateFolder(ctx, fx.project.ID, "Day 1", &child.ID)
	require.NoError(t, err)

	_, err = r.UpdateFolder(ctx, fx.folder.ID, FolderUpdate{ParentID: &grandchild.ID})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = r.UpdateFolder(ctx, fx.folder.ID, FolderUpdate{ParentID: &fx.folder.ID})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	moved, err := r.UpdateFolder(ctx, grandchild.ID, FolderUpdate{ParentID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	folders, err := r.ListFolders(ctx, fx.project.ID)
	require.NoError(t, err)
	roots := BuildFolderTree(folders)
	require.Len(t, roots, 2)
	assert.Equal(t, fx.folder.ID, roots[0].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, child.ID, roots[0].Children[0].ID)
}

func TestUpdateVideoStatus(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	v, err := r.UpdateVideoStatus(ctx, fx.video.ID, models.VideoStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusApproved, v.VideoStatus)

	_, err = r.UpdateVideoStatus(ctx, fx.video.ID, models.VideoStatus("done"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	v, err = r.UpdateVideoStatus(ctx, "missing", models.VideoStatusReview)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestUpdateVideoDuration(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	d := 12.5
	v, err := r.UpdateVideo(ctx, fx.video.ID, VideoUpdate{Duration: &d})
	require.NoError(t, err)
	require.NotNil(t, v.Duration)
	assert.Equal(t, 12.5, *v.Duration)

	bad := math.Inf(1)
	_, err = r.UpdateVideo(ctx, fx.video.ID, VideoUpdate{Duration: &bad})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCommentTreeAndReplyInheritance(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	root, err := r.CreateComment(ctx, CommentInput{
		ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID,
		UserName: "Ana", UserEmail: "ana@example.com", Text: "Too dark here", VideoTime: 3.2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3.2, root.VideoTime)
	assert.Equal(t, 0, root.Likes)
	assert.Empty(t, root.LikedBy)

	reply, err := r.CreateComment(ctx, CommentInput{
		ProjectID: "wrong", FolderID: "wrong", VideoID: "wrong", ParentID: &root.ID,
		UserName: "Ben", Text: "Agreed",
	})
	require.NoError(t, err)
	assert.Equal(t, fx.video.ID, reply.VideoID)
	assert.Equal(t, fx.folder.ID, reply.FolderID)
	assert.Equal(t, fx.project.ID, reply.ProjectID)

	second, err := r.CreateComment(ctx, CommentInput{
		ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID,
		UserName: "Ana", Text: "Audio pops", VideoTime: "8",
	})
	require.NoError(t, err)

	forest, err := r.GetComments(ctx, fx.project.ID, fx.folder.ID, fx.video.ID)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, root.ID, forest[0].ID)
	assert.Equal(t, second.ID, forest[1].ID)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, reply.ID, forest[0].Replies[0].ID)
	assert.Empty(t, forest[1].Replies)
}

func TestCreateCommentValidation(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()
	base := CommentInput{ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID}

	in := base
	in.Text = "hi"
	_, err := r.CreateComment(ctx, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "missing user_name")

	in = base
	in.UserName = "Ana"
	_, err = r.CreateComment(ctx, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "no text and no drawing")

	in = base
	in.UserName = "Ana"
	in.Text = "hi"
	in.VideoID = "missing"
	_, err = r.CreateComment(ctx, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	in = base
	in.UserName = "Ana"
	in.Text = "hi"
	in.ParentID = strPtr("missing")
	_, err = r.CreateComment(ctx, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCommentDrawingNormalizedOnWrite(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	c, err := r.CreateComment(ctx, CommentInput{
		ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID,
		UserName: "Ana", VideoTime: 4.0, DrawingData: "data:image/png;base64,AAAA",
	})
	require.NoError(t, err)
	require.NotNil(t, c.DrawingData)
	assert.Equal(t, "data:image/png;base64,AAAA", c.DrawingData.ImageData)
	assert.Equal(t, 4.0, c.DrawingData.Timestamp)

	updated, err := r.UpdateComment(ctx, c.ID, CommentUpdate{
		SetDrawing:  true,
		DrawingData: map[string]interface{}{"imageData": "data:image/png;base64,BBBB"},
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,BBBB", updated.DrawingData.ImageData)
	assert.Equal(t, 4.0, updated.DrawingData.Timestamp)

	resolved := true
	updated, err = r.UpdateComment(ctx, c.ID, CommentUpdate{Text: strPtr("circled"), Resolved: &resolved})
	require.NoError(t, err)
	assert.Equal(t, "circled", updated.Text)
	assert.True(t, updated.Resolved)
	assert.NotNil(t, updated.DrawingData)

	missing, err := r.UpdateComment(ctx, "missing", CommentUpdate{Text: strPtr("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBareDataURIRowTakesCommentTime(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	c, err := r.CreateComment(ctx, CommentInput{
		ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID,
		UserName: "Ana", Text: "see frame", VideoTime: 7.5,
	})
	require.NoError(t, err)
	_, err = r.db.ExecContext(ctx, `UPDATE comments SET drawing_data = ? WHERE id = ?`, "data:image/png;base64,OLD", c.ID)
	require.NoError(t, err)

	got, err := r.GetComment(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DrawingData)
	assert.Equal(t, "data:image/png;base64,OLD", got.DrawingData.ImageData)
	assert.Equal(t, 7.5, got.DrawingData.Timestamp)

	forest, err := r.GetComments(ctx, fx.project.ID, fx.folder.ID, fx.video.ID)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, 7.5, forest[0].DrawingData.Timestamp)

	// An explicit zero timestamp in the object form is kept.
	_, err = r.db.ExecContext(ctx, `UPDATE comments SET drawing_data = ? WHERE id = ?`,
		`{"imageData":"data:image/png;base64,NEW","timestamp":0}`, c.ID)
	require.NoError(t, err)
	got, err = r.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.DrawingData.Timestamp)
}

func TestToggleLikeIsItsOwnInverse(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	c, err := r.CreateComment(ctx, CommentInput{
		ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID,
		UserName: "Ana", Text: "Nice",
	})
	require.NoError(t, err)

	liked, err := r.ToggleCommentLike(ctx, c.ID, "ben@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.LikedBy.Has("ben@example.com"))

	liked, err = r.ToggleCommentLike(ctx, c.ID, "cy@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, liked.Likes)

	unliked, err := r.ToggleCommentLike(ctx, c.ID, "ben@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, unliked.Likes)
	assert.False(t, unliked.LikedBy.Has("ben@example.com"))
	assert.Equal(t, models.EmailSet{"cy@example.com"}, unliked.LikedBy)

	_, err = r.ToggleCommentLike(ctx, c.ID, " ")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	none, err := r.ToggleCommentLike(ctx, "missing", "ben@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDeleteCommentRemovesReplies(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()
	base := CommentInput{ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID, UserName: "Ana"}

	in := base
	in.Text = "root"
	root, err := r.CreateComment(ctx, in)
	require.NoError(t, err)
	in = base
	in.Text = "reply"
	in.ParentID = &root.ID
	reply, err := r.CreateComment(ctx, in)
	require.NoError(t, err)
	in = base
	in.Text = "nested"
	in.ParentID = &reply.ID
	nested, err := r.CreateComment(ctx, in)
	require.NoError(t, err)

	found, err := r.DeleteComment(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, found)
	for _, id := range []string{root.ID, reply.ID, nested.ID} {
		c, err := r.GetComment(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, c)
	}

	found, err = r.DeleteComment(ctx, root.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteProjectCascades(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	c, err := r.CreateComment(ctx, CommentInput{
		ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: fx.video.ID, UserName: "Ana", Text: "x",
	})
	require.NoError(t, err)
	version, err := r.CreateVersion(ctx, &models.VideoVersion{
		VideoID: fx.video.ID, FilePath: "/videos/v2.mp4", FileSize: 10, FileType: "video/mp4",
	})
	require.NoError(t, err)

	res, err := r.DeleteProject(ctx, fx.project.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.ElementsMatch(t, []string{fx.video.FilePath, "/videos/v2.mp4"}, res.OrphanedFiles)

	p, err := r.GetProject(ctx, fx.project.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
	f, err := r.GetFolder(ctx, fx.folder.ID)
	require.NoError(t, err)
	assert.Nil(t, f)
	v, err := r.GetVideo(ctx, fx.video.ID)
	require.NoError(t, err)
	assert.Nil(t, v)
	vv, err := r.GetVersion(ctx, version.ID)
	require.NoError(t, err)
	assert.Nil(t, vv)
	cc, err := r.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, cc)
}

func TestDeleteFolderCascadesToSubfolders(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	sub, err := r.CreateFolder(ctx, fx.project.ID, "Selects", &fx.folder.ID)
	require.NoError(t, err)
	nested := addVideo(t, r, fx.project.ID, sub.ID, "nested.mp4")
	keep, err := r.CreateFolder(ctx, fx.project.ID, "Finals", nil)
	require.NoError(t, err)
	kept := addVideo(t, r, fx.project.ID, keep.ID, "final.mp4")

	res, err := r.DeleteFolder(ctx, fx.folder.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{fx.video.FilePath, nested.FilePath}, res.OrphanedFiles)

	gone, err := r.GetFolder(ctx, sub.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	still, err := r.GetVideo(ctx, kept.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestVersionFromVideoHidesSource(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()
	source := addVideo(t, r, fx.project.ID, fx.folder.ID, "recut.mp4")

	version, err := r.CreateVersionFromVideo(ctx, fx.video.ID, source.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.video.ID, version.VideoID)
	assert.Equal(t, source.ID, version.SourceVideoID)
	assert.Equal(t, source.FilePath, version.FilePath)

	listed, err := r.ListVideos(ctx, fx.project.ID, fx.folder.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, fx.video.ID, listed[0].ID)
	require.Len(t, listed[0].Versions, 1)
	assert.Equal(t, version.ID, listed[0].Versions[0].ID)

	hidden, err := r.GetVideo(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, hidden)
	assert.True(t, hidden.IsHidden)

	// The file is still referenced by the version, so deleting the hidden source
	// must not report it as orphaned.
	res, err := r.DeleteVideo(ctx, source.ID)
	require.NoError(t, err)
	assert.Empty(t, res.OrphanedFiles)
}

func TestVersionFromVideoValidation(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()

	_, err := r.CreateVersionFromVideo(ctx, fx.video.ID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	_, err = r.CreateVersionFromVideo(ctx, fx.video.ID, fx.video.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	_, err = r.CreateVersionFromVideo(ctx, fx.video.ID, "missing")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	_, err = r.CreateVersionFromVideo(ctx, "missing", fx.video.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	other, err := r.CreateProject(ctx, "Other", nil)
	require.NoError(t, err)
	otherFolder, err := r.CreateFolder(ctx, other.ID, "Misc", nil)
	require.NoError(t, err)
	foreign := addVideo(t, r, other.ID, otherFolder.ID, "foreign.mp4")
	_, err = r.CreateVersionFromVideo(ctx, fx.video.ID, foreign.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestVersionFromVideoKeepsVersionsOneLevelDeep(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()
	b := addVideo(t, r, fx.project.ID, fx.folder.ID, "b.mp4")
	c := addVideo(t, r, fx.project.ID, fx.folder.ID, "c.mp4")
	d := addVideo(t, r, fx.project.ID, fx.folder.ID, "d.mp4")

	_, err := r.CreateVersionFromVideo(ctx, fx.video.ID, b.ID)
	require.NoError(t, err)

	// b is hidden now: it can neither receive nor give a version.
	_, err = r.CreateVersionFromVideo(ctx, b.ID, c.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	_, err = r.CreateVersionFromVideo(ctx, d.ID, b.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// fx.video owns a version, so it cannot be folded into d.
	_, err = r.CreateVersionFromVideo(ctx, d.ID, fx.video.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = r.CreateVersion(ctx, &models.VideoVersion{
		VideoID: b.ID, FilePath: "/videos/x/y/z.mp4", FileSize: 1, FileType: "video/mp4",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	listed, err := r.ListVideos(ctx, fx.project.ID, fx.folder.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(listed))
	for _, v := range listed {
		ids = append(ids, v.ID)
	}
	assert.ElementsMatch(t, []string{fx.video.ID, c.ID, d.ID}, ids)

	still, err := r.GetVideo(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, still.IsHidden)
}

func TestDeleteVideoRemovesMergedSources(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()
	source := addVideo(t, r, fx.project.ID, fx.folder.ID, "recut.mp4")
	_, err := r.CreateVersionFromVideo(ctx, fx.video.ID, source.ID)
	require.NoError(t, err)
	_, err = r.CreateComment(ctx, CommentInput{
		ProjectID: fx.project.ID, FolderID: fx.folder.ID, VideoID: source.ID,
		UserName: "Ana", Text: "old note",
	})
	require.NoError(t, err)

	res, err := r.DeleteVideo(ctx, fx.video.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{fx.video.FilePath, source.FilePath}, res.OrphanedFiles)

	gone, err := r.GetVideo(ctx, source.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	paths, err := r.ReferencedFilePaths(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestDeleteFolderRemovesSourcesMergedFromOtherFolders(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)
	ctx := context.Background()
	other, err := r.CreateFolder(ctx, fx.project.ID, "Alternates", nil)
	require.NoError(t, err)
	source := addVideo(t, r, fx.project.ID, other.ID, "alt.mp4")
	bystander := addVideo(t, r, fx.project.ID, other.ID, "keep.mp4")
	_, err = r.CreateVersionFromVideo(ctx, fx.video.ID, source.ID)
	require.NoError(t, err)

	res, err := r.DeleteFolder(ctx, fx.folder.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{fx.video.FilePath, source.FilePath}, res.OrphanedFiles)

	gone, err := r.GetVideo(ctx, source.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := r.GetVideo(ctx, bystander.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestReferencedFilePaths(t *testing.T) {
	r := newTestRepo(t)
	fx := seed(t, r)

	paths, err := r.ReferencedFilePaths(context.Background())
	require.NoError(t, err)
	assert.Contains(t, paths, fx.video.FilePath)
	assert.Len(t, paths, 1)
}
