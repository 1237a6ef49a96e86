package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	Update(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

type commentPostResolver interface {
	FindByID(ctx context.Context, id string) (*models.Post, error)
}

// CommentRequest carries comment create and edit payloads.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// CommentService manages reader comments on posts. Edits and deletes are
// owner-only; editors may also remove comments via asEditor.
type CommentService struct {
	comments  commentRepository
	posts     commentPostResolver
	users     postUserResolver
	guard     *Guard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService creates an instance of CommentService.
func NewCommentService(comments commentRepository, posts commentPostResolver, users postUserResolver, guard *Guard, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{comments: comments, posts: posts, users: users, guard: guard, validator: validate, logger: logger}
}

// ListByPost returns a post's comments, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// Create adds a comment by the calling principal to the post.
func (s *CommentService) Create(ctx context.Context, principal, postID string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment content is required")
	}

	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	author, err := s.users.FindByUsernameOrEmail(ctx, principal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	comment := &models.Comment{
		Content:  req.Content,
		PostID:   postID,
		AuthorID: author.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}
	comment.AuthorUsername = author.Username
	return comment, nil
}

// Update edits a comment's content. Only the comment's author may edit it.
func (s *CommentService) Update(ctx context.Context, principal, id string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment content is required")
	}

	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCommentOwnership(ctx, principal, comment); err != nil {
		return nil, err
	}

	if err := s.comments.Update(ctx, id, req.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	comment.Content = req.Content
	return comment, nil
}

// Delete removes a comment. Authors delete their own; the editor desk
// passes asEditor to moderate any comment.
func (s *CommentService) Delete(ctx context.Context, principal string, asEditor bool, id string) error {
	comment, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !asEditor {
		if err := s.checkCommentOwnership(ctx, principal, comment); err != nil {
			return err
		}
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return nil
}

func (s *CommentService) load(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	return comment, nil
}

func (s *CommentService) checkCommentOwnership(ctx context.Context, principal string, comment *models.Comment) error {
	owner, err := s.users.FindByID(ctx, comment.AuthorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrAccessDenied
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment author")
	}
	_, err = s.guard.CheckOwnership(ctx, principal, owner)
	return err
}
