package models

import "time"

type Author struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

// Comment is a node of a post's comment tree. IDs are unique across the
// whole tree, not only among siblings.
type Comment struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	User    Author    `json:"user"`
	Date    time.Time `json:"date"`
	Likes   []string  `json:"likes"`
	Replies []Comment `json:"replies"`
}

type Post struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	User     Author    `json:"user"`
	Date     time.Time `json:"date"`
	Comments []Comment `json:"comments"`
}

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

type ContentRequest struct {
	Content string `json:"content" binding:"required"`
}
