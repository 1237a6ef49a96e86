package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/magazinehq/magazine-api/internal/models"
)

// LikeRepository provides database access for post and comment likes.
type LikeRepository struct {
	db *sqlx.DB
}

// NewLikeRepository creates a new instance of LikeRepository.
func NewLikeRepository(db *sqlx.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create inserts a like row.
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO likes (id, user_id, post_id, comment_id, created_at) VALUES (:id, :user_id, :post_id, :comment_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, like); err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

// Delete removes a like row.
func (r *LikeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// FindByUserAndPost returns the user's like on a post, if any.
func (r *LikeRepository) FindByUserAndPost(ctx context.Context, userID, postID string) (*models.Like, error) {
	const query = `SELECT id, user_id, post_id, comment_id, created_at FROM likes WHERE user_id = $1 AND post_id = $2 LIMIT 1`
	return r.findOne(ctx, query, userID, postID)
}

// FindByUserAndComment returns the user's like on a comment, if any.
func (r *LikeRepository) FindByUserAndComment(ctx context.Context, userID, commentID string) (*models.Like, error) {
	const query = `SELECT id, user_id, post_id, comment_id, created_at FROM likes WHERE user_id = $1 AND comment_id = $2 LIMIT 1`
	return r.findOne(ctx, query, userID, commentID)
}

// UsernamesByPost lists usernames that liked the post.
func (r *LikeRepository) UsernamesByPost(ctx context.Context, postID string) ([]string, error) {
	const query = `SELECT u.username FROM likes l JOIN users u ON u.id = l.user_id WHERE l.post_id = $1 ORDER BY l.created_at ASC`
	return r.usernames(ctx, query, postID)
}

// UsernamesByComment lists usernames that liked the comment.
func (r *LikeRepository) UsernamesByComment(ctx context.Context, commentID string) ([]string, error) {
	const query = `SELECT u.username FROM likes l JOIN users u ON u.id = l.user_id WHERE l.comment_id = $1 ORDER BY l.created_at ASC`
	return r.usernames(ctx, query, commentID)
}

func (r *LikeRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Like, error) {
	var like models.Like
	if err := r.db.GetContext(ctx, &like, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find like: %w", err)
	}
	return &like, nil
}

func (r *LikeRepository) usernames(ctx context.Context, query string, arg interface{}) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, arg); err != nil {
		return nil, fmt.Errorf("list like usernames: %w", err)
	}
	return names, nil
}
