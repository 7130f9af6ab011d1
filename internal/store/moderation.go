package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// EnforceInvite lets the database decide whether the user may stay signed
// in, given the invite token they arrived with (nil when none).
func (s *Store) EnforceInvite(ctx context.Context, userID string, inviteToken *string) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Exec("SELECT enforce_invite_for_user(?)", inviteToken).Error
	})
	if err != nil {
		return fmt.Errorf("store: enforce invite for %s: %w", userID, err)
	}
	return nil
}

// EnforceAdmin fails unless the user is an administrator.
func (s *Store) EnforceAdmin(ctx context.Context, userID string) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Exec("SELECT enforce_admin_for_user()").Error
	})
	if err != nil {
		return fmt.Errorf("store: enforce admin for %s: %w", userID, err)
	}
	return nil
}

// AdminSoftDeleteThread removes any thread on behalf of an administrator.
func (s *Store) AdminSoftDeleteThread(ctx context.Context, userID string, threadID int64, reason *string) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Exec("SELECT admin_soft_delete_thread(p_thread_id => ?, p_reason => ?)", threadID, reason).Error
	})
	if err != nil {
		return fmt.Errorf("store: admin remove thread %d: %w", threadID, err)
	}
	return nil
}

// AdminSoftDeleteComment removes any comment on behalf of an administrator.
func (s *Store) AdminSoftDeleteComment(ctx context.Context, userID string, commentID int64, reason *string) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Exec("SELECT admin_soft_delete_comment(p_comment_id => ?, p_reason => ?)", commentID, reason).Error
	})
	if err != nil {
		return fmt.Errorf("store: admin remove comment %d: %w", commentID, err)
	}
	return nil
}
