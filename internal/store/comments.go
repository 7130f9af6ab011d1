package store

import (
	"context"
	"fmt"

	"nsreddit/internal/comments"
	"nsreddit/internal/models"

	"gorm.io/gorm"
)

// ListComments returns every comment of a thread, oldest first, with the
// authors' profiles.
func (s *Store) ListComments(ctx context.Context, threadID int64) ([]models.Comment, error) {
	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: list comments of thread %d: %w", threadID, err)
	}
	return rows, nil
}

// RecentComments lists the newest comments across threads, removed ones
// included.
func (s *Store) RecentComments(ctx context.Context, limit int) ([]models.Comment, error) {
	var rows []models.Comment
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: recent comments: %w", err)
	}
	return rows, nil
}

// CreateComment inserts a comment or reply authored by userID.
func (s *Store) CreateComment(ctx context.Context, userID string, c models.Comment) (models.Comment, error) {
	c.ID = 0
	c.AuthorID = &userID
	c.Author = nil
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Omit("IsDeleted", "CreatedAt").Create(&c).Error
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("store: create comment on thread %d: %w", c.ThreadID, err)
	}
	return c, nil
}

// SoftDeleteComment marks the user's own comment removed.
func (s *Store) SoftDeleteComment(ctx context.Context, userID string, id int64) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Exec("SELECT soft_delete_comment(p_comment_id => ?)", id).Error
	})
	if err != nil {
		return fmt.Errorf("store: soft delete comment %d: %w", id, err)
	}
	return nil
}

// CommentRecords converts loaded rows into tree builder input.
func CommentRecords(rows []models.Comment) []comments.Comment {
	out := make([]comments.Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, comments.Comment{
			ID:                r.ID,
			ThreadID:          r.ThreadID,
			Body:              r.Body,
			CreatedAt:         r.CreatedAt,
			AuthorID:          r.AuthorID,
			ParentID:          r.ParentID,
			AuthorDisplayName: r.AuthorDisplayName(),
			IsDeleted:         r.IsDeleted,
		})
	}
	return out
}
