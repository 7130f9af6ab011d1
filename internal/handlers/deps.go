package handlers

import (
	"context"
	"io"

	"nsreddit/internal/media"
	"nsreddit/internal/models"
	"nsreddit/internal/votes"
)

const (
	msgNotConfigured = "Server is not configured correctly."
	msgVoteFailed    = "Could not update your vote."
)

// ForumStore is the data the thread, comment and vote routes work on.
type ForumStore interface {
	votes.Store

	ListThreads(ctx context.Context) ([]models.ThreadSummary, error)
	GetThread(ctx context.Context, id int64) (models.Thread, error)
	CreateThread(ctx context.Context, userID string, thread models.Thread) (int64, error)
	SoftDeleteThread(ctx context.Context, userID string, id int64) error

	ListComments(ctx context.Context, threadID int64) ([]models.Comment, error)
	CreateComment(ctx context.Context, userID string, comment models.Comment) (models.Comment, error)
	SoftDeleteComment(ctx context.Context, userID string, id int64) error

	Scores(ctx context.Context, targetType votes.TargetType, ids []int64) (map[votes.Key]int, error)
	UserVotes(ctx context.Context, userID string, targetType votes.TargetType, ids []int64) (map[votes.Key]votes.Value, error)
	TargetState(ctx context.Context, userID string, key votes.Key) (int, votes.Value, error)
}

// ModerationStore backs the admin routes.
type ModerationStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	EnforceAdmin(ctx context.Context, userID string) error
	AdminSoftDeleteThread(ctx context.Context, userID string, threadID int64, reason *string) error
	AdminSoftDeleteComment(ctx context.Context, userID string, commentID int64, reason *string) error
	RecentThreads(ctx context.Context, limit int) ([]models.Thread, error)
	RecentComments(ctx context.Context, limit int) ([]models.Comment, error)
}

// ProfileStore backs sign-in and the profile pages.
type ProfileStore interface {
	EnforceInvite(ctx context.Context, userID string, inviteToken *string) error
	EnsureProfile(ctx context.Context, userID string) error
	GetProfile(ctx context.Context, id string) (models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, displayName, bio *string) (models.Profile, error)
}

// Uploader stores user files and returns their public location.
type Uploader interface {
	Ready() error
	Upload(ctx context.Context, r io.Reader, size int64, filename, mimeType string) (media.Object, error)
}

// AccountDeleter removes a user from the identity provider.
type AccountDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

// TokenForgetter drops a cached token lookup.
type TokenForgetter interface {
	Forget(ctx context.Context, token string) error
}
