package models

import (
	"time"
)

type Profile struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"` // same id as the auth user
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"` // "about" text on the profile page
	IsAdmin     bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Profile) TableName() string { return "profiles" }
