package models

import "time"

// Comment belongs to a post and an author.
type Comment struct {
	ID             string    `db:"id" json:"id"`
	Content        string    `db:"content" json:"content"`
	PostID         string    `db:"post_id" json:"post_id"`
	AuthorID       string    `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
