package store

import (
	"context"
	"fmt"

	"nsreddit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetProfile loads a profile by user id.
func (s *Store) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return models.Profile{}, fmt.Errorf("store: get profile %s: %w", id, notFound(err))
	}
	return p, nil
}

// EnsureProfile creates an empty profile for the user if none exists yet.
func (s *Store) EnsureProfile(ctx context.Context, userID string) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Select("ID").Create(&models.Profile{ID: userID}).Error
	})
	if err != nil {
		return fmt.Errorf("store: ensure profile %s: %w", userID, err)
	}
	return nil
}

// UpdateProfile upserts the user's display name and about text. Nil clears
// a field.
func (s *Store) UpdateProfile(ctx context.Context, userID string, displayName, bio *string) (models.Profile, error) {
	row := models.Profile{ID: userID, DisplayName: displayName, Bio: bio}
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "bio"}),
		}).Select("ID", "DisplayName", "Bio").Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).First(&row).Error
	})
	if err != nil {
		return models.Profile{}, fmt.Errorf("store: update profile %s: %w", userID, err)
	}
	return row, nil
}

// IsAdmin reports the profile's admin flag. Missing profiles are not admins.
func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var flags []bool
	err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Limit(1).
		Pluck("is_admin", &flags).Error
	if err != nil {
		return false, fmt.Errorf("store: admin flag of %s: %w", userID, err)
	}
	return len(flags) > 0 && flags[0], nil
}
