package models

import (
	"time"
)

type Comment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ThreadID  int64     `gorm:"not null;index" json:"thread_id"`
	ParentID  *int64    `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	AuthorID  *string   `gorm:"type:uuid;index" json:"author_id"`
	Author    *Profile  `gorm:"foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	IsDeleted bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

// AuthorDisplayName is the author's chosen name, nil when unset or unknown.
func (c Comment) AuthorDisplayName() *string {
	if c.Author == nil {
		return nil
	}
	return c.Author.DisplayName
}
