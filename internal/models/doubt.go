package models

import "time"

// Doubt is a question on a problem answered by the chat model.
type Doubt struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Response     string    `json:"response"`
	ResponseTime time.Time `json:"responseTime"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	UserPhotoURL string    `json:"userPhotoURL"`
	CreatedAt    time.Time `json:"createdAt"`
	Likes        []string  `json:"likes"`
	TitleSlug    string    `json:"titleSlug"`
}

// Thread is a user discussion on a problem with a flat comment list.
type Thread struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	UserPhotoURL string    `json:"userPhotoURL"`
	CreatedAt    time.Time `json:"createdAt"`
	Likes        []string  `json:"likes"`
	Comments     []Comment `json:"comments"`
	TitleSlug    string    `json:"titleSlug"`
}

type DoubtRequest struct {
	TitleSlug string `json:"titleSlug" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

type Note struct {
	UID       string    `json:"uid"`
	TitleSlug string    `json:"titleSlug"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}
