package models

import (
	"time"
)

type Thread struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	AuthorID      *string   `gorm:"type:uuid;index" json:"author_id"` // null once the account is deleted
	Author        *Profile  `gorm:"foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	URL           *string   `json:"url"`
	URLDomain     *string   `json:"url_domain"`
	MediaURL      *string   `json:"media_url"`
	MediaMimeType *string   `json:"media_mime_type"`
	IsDeleted     bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Thread) TableName() string { return "threads" }

// ThreadSummary is one row of the get_threads_with_meta() listing.
type ThreadSummary struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Body              string    `json:"body"`
	CreatedAt         time.Time `json:"created_at"`
	AuthorID          *string   `json:"author_id"`
	AuthorDisplayName *string   `json:"author_display_name"`
	Score             int       `json:"score"`
	CommentCount      int       `json:"comment_count"`
	URL               *string   `json:"url"`
	URLDomain         *string   `json:"url_domain"`
	MediaURL          *string   `json:"media_url"`
	MediaMimeType     *string   `json:"media_mime_type"`
}
