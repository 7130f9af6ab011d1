package store

import (
	"context"
	"fmt"

	"nsreddit/internal/models"
	"nsreddit/internal/votes"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ votes.Store = (*Store)(nil)

// UpsertVote records the user's vote, replacing any earlier one on the same
// target.
func (s *Store) UpsertVote(ctx context.Context, userID string, key votes.Key, value votes.Value) error {
	row := models.Vote{
		UserID:     userID,
		TargetType: string(key.Type),
		TargetID:   key.ID,
		Value:      int(value),
	}
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_type"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("store: upsert vote %s: %w", key, err)
	}
	return nil
}

// DeleteVote removes the user's vote on a target.
func (s *Store) DeleteVote(ctx context.Context, userID string, key votes.Key) error {
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, string(key.Type), key.ID).
			Delete(&models.Vote{}).Error
	})
	if err != nil {
		return fmt.Errorf("store: delete vote %s: %w", key, err)
	}
	return nil
}

type scoreRow struct {
	TargetID int64
	Score    int
}

// Scores sums vote values per target. Targets without votes are reported
// with a score of zero.
func (s *Store) Scores(ctx context.Context, targetType votes.TargetType, ids []int64) (map[votes.Key]int, error) {
	out := make(map[votes.Key]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	for _, id := range ids {
		out[votes.Key{Type: targetType, ID: id}] = 0
	}

	var rows []scoreRow
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Select("target_id, COALESCE(SUM(value), 0) AS score").
		Where("target_type = ? AND target_id IN ?", string(targetType), ids).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: scores for %s: %w", targetType, err)
	}
	for _, r := range rows {
		out[votes.Key{Type: targetType, ID: r.TargetID}] = r.Score
	}
	return out, nil
}

// UserVotes returns the user's non-zero votes among the given targets.
func (s *Store) UserVotes(ctx context.Context, userID string, targetType votes.TargetType, ids []int64) (map[votes.Key]votes.Value, error) {
	out := make(map[votes.Key]votes.Value)
	if userID == "" || len(ids) == 0 {
		return out, nil
	}

	var rows []models.Vote
	err := s.asUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, string(targetType), ids).
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: user votes for %s: %w", targetType, err)
	}
	for _, r := range rows {
		if r.Value != 0 {
			out[votes.Key{Type: targetType, ID: r.TargetID}] = votes.Value(r.Value)
		}
	}
	return out, nil
}

// TargetState loads the score of one target and the user's vote on it.
func (s *Store) TargetState(ctx context.Context, userID string, key votes.Key) (int, votes.Value, error) {
	scores, err := s.Scores(ctx, key.Type, []int64{key.ID})
	if err != nil {
		return 0, votes.None, err
	}
	mine, err := s.UserVotes(ctx, userID, key.Type, []int64{key.ID})
	if err != nil {
		return 0, votes.None, err
	}
	return scores[key], mine[key], nil
}
