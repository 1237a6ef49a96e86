package models

import "time"

// Post is an article written by an author. Inactive posts are hidden from
// the public listings but kept for editors.
type Post struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Content        string    `db:"content" json:"content"`
	Image          string    `db:"image" json:"image"`
	Active         bool      `db:"active" json:"active"`
	AuthorID       string    `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	CategoryID     string    `db:"category_id" json:"category_id"`
	CategoryName   string    `db:"category_name" json:"category_name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
