package entity

import (
	"fmt"
	"time"
)

// Display states of a post in the admin list.
const (
	StateDraft             = "draft"
	StatePublished         = "published"
	StatePublishedFeatured = "published (featured)"
)

// Post is a blog entry. Its images live in object storage under "{id}/".
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	UserID      int64     `json:"userId"`
	Published   bool      `json:"published"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PostWithAuthor is a post joined with its author's display name.
type PostWithAuthor struct {
	Post
	Author string
}

// State derives the admin display state. Featured only counts for published posts.
func (p *Post) State() string {
	if !p.Published {
		return StateDraft
	}
	if p.Featured {
		return StatePublishedFeatured
	}
	return StatePublished
}

// Date formats the creation date as YYYY-MM-DD in UTC.
func (p *Post) Date() string {
	return p.CreatedAt.UTC().Format(time.DateOnly)
}

// ImagePrefix is the object-store prefix holding every image of the post.
func ImagePrefix(postID int64) string {
	return fmt.Sprintf("%d/", postID)
}

// CoverPath is the object key of the post's cover image.
func CoverPath(postID int64) string {
	return ImagePrefix(postID) + "index.webp"
}

// GalleryPath is the object key of a gallery image by its base name.
func GalleryPath(postID int64, baseName string) string {
	return ImagePrefix(postID) + baseName + ".webp"
}
