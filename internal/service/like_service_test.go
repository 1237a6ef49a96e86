package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type fakeLikeRepo struct {
	likes map[string]*models.Like
	seq   int
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: map[string]*models.Like{}}
}

func (f *fakeLikeRepo) Create(_ context.Context, like *models.Like) error {
	f.seq++
	like.ID = "like-" + string(rune('a'+f.seq))
	f.likes[like.ID] = like
	return nil
}

func (f *fakeLikeRepo) Delete(_ context.Context, id string) error {
	delete(f.likes, id)
	return nil
}

func (f *fakeLikeRepo) FindByUserAndPost(_ context.Context, userID, postID string) (*models.Like, error) {
	for _, like := range f.likes {
		if like.UserID == userID && like.PostID != nil && *like.PostID == postID {
			return like, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLikeRepo) FindByUserAndComment(_ context.Context, userID, commentID string) (*models.Like, error) {
	for _, like := range f.likes {
		if like.UserID == userID && like.CommentID != nil && *like.CommentID == commentID {
			return like, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLikeRepo) UsernamesByPost(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f *fakeLikeRepo) UsernamesByComment(context.Context, string) ([]string, error) {
	return nil, nil
}

type fakeCommentRepo struct {
	comments map[string]*models.Comment
}

func newFakeCommentRepo(comments ...*models.Comment) *fakeCommentRepo {
	repo := &fakeCommentRepo{comments: map[string]*models.Comment{}}
	for _, c := range comments {
		repo.comments[c.ID] = c
	}
	return repo
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = "comment-" + comment.Content
	}
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentRepo) FindByID(_ context.Context, id string) (*models.Comment, error) {
	if c, ok := f.comments[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCommentRepo) ListByPost(_ context.Context, postID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) Update(_ context.Context, id, content string) error {
	if c, ok := f.comments[id]; ok {
		c.Content = content
	}
	return nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id string) error {
	delete(f.comments, id)
	return nil
}

func TestTogglePostLike(t *testing.T) {
	user := activeUser(t, "margaret", "pw123456")
	users := newFakeUserRepo(user)
	posts := newFakePostRepo(testPost("p1", user.ID, user.Username))
	likes := newFakeLikeRepo()
	svc := NewLikeService(likes, posts, newFakeCommentRepo(), users, nil)

	liked, err := svc.TogglePostLike(context.Background(), "margaret", "p1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Len(t, likes.likes, 1)

	liked, err = svc.TogglePostLike(context.Background(), "margaret", "p1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, likes.likes)
}

func TestToggleCommentLike(t *testing.T) {
	user := activeUser(t, "margaret", "pw123456")
	users := newFakeUserRepo(user)
	comments := newFakeCommentRepo(&models.Comment{ID: "c1", PostID: "p1", AuthorID: user.ID})
	svc := NewLikeService(newFakeLikeRepo(), newFakePostRepo(), comments, users, nil)

	liked, err := svc.ToggleCommentLike(context.Background(), "margaret", "c1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleCommentLike(context.Background(), "margaret", "c1")
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestTogglePostLikeUnknownPost(t *testing.T) {
	user := activeUser(t, "margaret", "pw123456")
	users := newFakeUserRepo(user)
	svc := NewLikeService(newFakeLikeRepo(), newFakePostRepo(), newFakeCommentRepo(), users, nil)

	_, err := svc.TogglePostLike(context.Background(), "margaret", "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
