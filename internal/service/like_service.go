package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type likeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, id string) error
	FindByUserAndPost(ctx context.Context, userID, postID string) (*models.Like, error)
	FindByUserAndComment(ctx context.Context, userID, commentID string) (*models.Like, error)
	UsernamesByPost(ctx context.Context, postID string) ([]string, error)
	UsernamesByComment(ctx context.Context, commentID string) ([]string, error)
}

// LikeService implements toggle semantics for post and comment likes:
// liking again removes the existing like.
type LikeService struct {
	likes    likeRepository
	posts    commentPostResolver
	comments commentRepository
	users    postUserResolver
	logger   *zap.Logger
}

// NewLikeService creates an instance of LikeService.
func NewLikeService(likes likeRepository, posts commentPostResolver, comments commentRepository, users postUserResolver, logger *zap.Logger) *LikeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikeService{likes: likes, posts: posts, comments: comments, users: users, logger: logger}
}

// TogglePostLike likes the post, or removes the principal's existing
// like. It reports whether the post is liked after the call.
func (s *LikeService) TogglePostLike(ctx context.Context, principal, postID string) (bool, error) {
	user, err := s.resolveUser(ctx, principal)
	if err != nil {
		return false, err
	}

	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	existing, err := s.likes.FindByUserAndPost(ctx, user.ID, postID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check like")
	}
	if existing != nil {
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove like")
		}
		return false, nil
	}

	like := &models.Like{UserID: user.ID, PostID: &postID}
	if err := s.likes.Create(ctx, like); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create like")
	}
	return true, nil
}

// ToggleCommentLike likes the comment, or removes the principal's
// existing like.
func (s *LikeService) ToggleCommentLike(ctx context.Context, principal, commentID string) (bool, error) {
	user, err := s.resolveUser(ctx, principal)
	if err != nil {
		return false, err
	}

	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}

	existing, err := s.likes.FindByUserAndComment(ctx, user.ID, commentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check like")
	}
	if existing != nil {
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove like")
		}
		return false, nil
	}

	like := &models.Like{UserID: user.ID, CommentID: &commentID}
	if err := s.likes.Create(ctx, like); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create like")
	}
	return true, nil
}

// PostLikers lists usernames that liked the post.
func (s *LikeService) PostLikers(ctx context.Context, postID string) ([]string, error) {
	names, err := s.likes.UsernamesByPost(ctx, postID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list likers")
	}
	return names, nil
}

// CommentLikers lists usernames that liked the comment.
func (s *LikeService) CommentLikers(ctx context.Context, commentID string) ([]string, error) {
	names, err := s.likes.UsernamesByComment(ctx, commentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list likers")
	}
	return names, nil
}

func (s *LikeService) resolveUser(ctx context.Context, principal string) (*models.User, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, principal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
