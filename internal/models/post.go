package models

import (
	"strings"
	"time"
)

// Post is a feed entry. ImageURL is an asset reference such as "images/<name>".
type Post struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;size:36"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	ImageURL  string    `json:"imageUrl" bson:"image_url"`
	CreatorID string    `json:"-" bson:"creator" gorm:"size:36;index"` // Owning user id
	CreatedAt time.Time `json:"createdAt" bson:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// PostView is a post with its creator resolved, as returned to clients.
type PostView struct {
	Post
	Creator UserCompact `json:"creator"`
}

// PostPage is one page of the feed plus the total number of posts.
type PostPage struct {
	Posts      []PostView `json:"posts"`
	TotalItems int64      `json:"totalItems"`
}

// PostEvent is the payload broadcast on the posts channel.
type PostEvent struct {
	Action string    `json:"action"` // create, update or delete
	Post   *PostView `json:"post,omitempty"`
	PostID string    `json:"postId,omitempty"`
}

const (
	PostsChannel = "posts"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// PostRequest defines the form fields for creating or editing a post.
// Image carries an existing asset reference when no new file is uploaded.
type PostRequest struct {
	Title   string `json:"title" form:"title" validate:"required,min=5"`
	Content string `json:"content" form:"content" validate:"required,min=5"`
	Image   string `json:"image" form:"image"`
}

// Normalize trims the text fields before validation.
func (r *PostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
	r.Image = strings.TrimSpace(r.Image)
}
