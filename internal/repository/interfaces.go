package repository

import (
	"context"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// RefreshTokenRepositoryInterface defines the contract for refresh token repository operations
type RefreshTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindValidByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// GroupRepositoryInterface defines the contract for groups and memberships
type GroupRepositoryInterface interface {
	// CreateWithOwner inserts the group and the owner's membership in one
	// transaction.
	CreateWithOwner(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id uint) (*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
	// AddMember inserts the membership unless (group, user) already exists.
	// It reports whether a row was created.
	AddMember(ctx context.Context, groupID, userID uint, role models.GroupRole) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID uint) error
	GetMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error)
	GetMemberIDs(ctx context.Context, groupID uint) ([]uint, error)
	CountMembers(ctx context.Context, groupID uint) (int64, error)
	GetMemberRole(ctx context.Context, groupID, userID uint) (models.GroupRole, error)
	GetUserGroups(ctx context.Context, userID uint) ([]models.GroupSummary, error)
	GetUserGroupIDs(ctx context.Context, userID uint) ([]uint, error)
}

// MovieRepositoryInterface defines the contract for the local movie catalog
type MovieRepositoryInterface interface {
	FindByTMDBID(ctx context.Context, tmdbID int) (*models.Movie, error)
	FindByID(ctx context.Context, id uint) (*models.Movie, error)
	// CreateIfAbsent inserts the movie, ignoring a conflict on tmdb_id.
	CreateIfAbsent(ctx context.Context, movie *models.Movie) error
}

// GroupMovieRepositoryInterface defines the contract for the group ledger
type GroupMovieRepositoryInterface interface {
	Create(ctx context.Context, gm *models.GroupMovie) error
	Find(ctx context.Context, groupID, movieID uint) (*models.GroupMovie, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.GroupMovie, error)
	Delete(ctx context.Context, id uint) error
	AddAttendees(ctx context.Context, groupMovieID uint, userIDs []uint) error
	ListAttendees(ctx context.Context, groupMovieID uint) ([]models.User, error)
	CountByGroup(ctx context.Context, groupID uint) (int64, error)
}

// RatingRepositoryInterface defines the contract for rating operations
type RatingRepositoryInterface interface {
	Upsert(ctx context.Context, rating *models.Rating) error
	Find(ctx context.Context, groupID, movieID, userID uint) (*models.Rating, error)
	ListForMovie(ctx context.Context, groupID, movieID uint) ([]models.Rating, error)
	ListForGroup(ctx context.Context, groupID uint) ([]models.Rating, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Rating, error)
	// Delete removes the user's own rating and reports whether a row was removed.
	Delete(ctx context.Context, groupID, movieID, userID uint) (bool, error)
	DeleteForMovie(ctx context.Context, groupID, movieID uint) error
}

// WatchlistRepositoryInterface defines the contract for watchlist operations
type WatchlistRepositoryInterface interface {
	Create(ctx context.Context, item *models.WatchlistItem) error
	FindByID(ctx context.Context, id uint) (*models.WatchlistItem, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.WatchlistItem, error)
	MaxPriority(ctx context.Context, groupID uint) (int, error)
	Delete(ctx context.Context, id uint) error
}

// InviteCodeRepositoryInterface defines the contract for invite codes
type InviteCodeRepositoryInterface interface {
	Create(ctx context.Context, code *models.InviteCode) error
	FindByCode(ctx context.Context, code string) (*models.InviteCode, error)
	FindByID(ctx context.Context, id uint) (*models.InviteCode, error)
	ListActiveByGroup(ctx context.Context, groupID uint) ([]models.InviteCode, error)
	IncrementUse(ctx context.Context, id uint) error
	Deactivate(ctx context.Context, id uint) error
}

// ActivityRepositoryInterface defines the contract for the activity feed
type ActivityRepositoryInterface interface {
	Create(ctx context.Context, item *models.ActivityItem) error
	ListByGroup(ctx context.Context, groupID uint, before *time.Time, limit int) ([]models.ActivityItem, error)
	ListByGroups(ctx context.Context, groupIDs []uint, limit int) ([]models.ActivityItem, error)
}

// FavoriteRepositoryInterface defines the contract for favourite movies
type FavoriteRepositoryInterface interface {
	Add(ctx context.Context, userID, movieID uint) error
	Remove(ctx context.Context, userID, movieID uint) error
	ListByUser(ctx context.Context, userID uint) ([]models.FavoriteMovie, error)
}
