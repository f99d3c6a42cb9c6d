package domain

import "time"

// CommentAuthor is the user summary embedded in a comment.
type CommentAuthor struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	AvatarURL string `json:"avatar_url" yaml:"avatar_url,omitempty"`
}

// Comment is a message on a ticket thread.
type Comment struct {
	ID        string        `json:"id" yaml:"id"`
	Body      string        `json:"body" yaml:"body"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	User      CommentAuthor `json:"user" yaml:"user"`
}
