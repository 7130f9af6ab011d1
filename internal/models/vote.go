package models

// Vote is one user's vote on a thread or comment. (user_id, target_type,
// target_id) is unique, so a changed vote overwrites the row.
type Vote struct {
	UserID     string `gorm:"type:uuid;primaryKey" json:"user_id"`
	TargetType string `gorm:"primaryKey;size:16" json:"target_type"` // thread, comment
	TargetID   int64  `gorm:"primaryKey" json:"target_id"`
	Value      int    `gorm:"not null" json:"value"` // 1 or -1
}

func (Vote) TableName() string { return "votes" }
