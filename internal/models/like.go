package models

import "time"

// Like marks approval of either a post or a comment; exactly one of PostID
// and CommentID is set. Liking twice removes the like (toggle).
type Like struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	PostID    *string   `db:"post_id" json:"post_id,omitempty"`
	CommentID *string   `db:"comment_id" json:"comment_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
