package store

import (
	"context"
	"fmt"

	"nsreddit/internal/models"

	"gorm.io/gorm"
)

// ListThreads returns the front page listing with scores and comment counts.
func (s *Store) ListThreads(ctx context.Context) ([]models.ThreadSummary, error) {
	var rows []models.ThreadSummary
	if err := s.db.WithContext(ctx).Raw("SELECT * FROM get_threads_with_meta()").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list threads: %w", err)
	}
	return rows, nil
}

// GetThread loads one thread with its author's profile.
func (s *Store) GetThread(ctx context.Context, id int64) (models.Thread, error) {
	var thread models.Thread
	err := s.db.WithContext(ctx).Preload("Author").First(&thread, id).Error
	if err != nil {
		return models.Thread{}, fmt.Errorf("store: get thread %d: %w", id, notFound(err))
	}
	return thread, nil
}

// RecentThreads lists the newest threads, removed ones included.
func (s *Store) RecentThreads(ctx context.Context, limit int) ([]models.Thread, error) {
	var threads []models.Thread
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("store: recent threads: %w", err)
	}
	return threads, nil
}

// CreateThread inserts a thread authored by userID and returns its id.
func (s *Store) CreateThread(ctx context.Context, userID string, thread models.Thread) (int64, error) {
	thread.ID = 0
	thread.AuthorID = &userID
	thread.Author = nil
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Omit("IsDeleted", "CreatedAt").Create(&thread).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store: create thread: %w", err)
	}
	return thread.ID, nil
}

// SoftDeleteThread marks the user's own thread removed.
func (s *Store) SoftDeleteThread(ctx context.Context, userID string, id int64) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Exec("SELECT soft_delete_thread(p_thread_id => ?)", id).Error
	})
	if err != nil {
		return fmt.Errorf("store: soft delete thread %d: %w", id, err)
	}
	return nil
}
