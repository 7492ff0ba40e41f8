package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/storage"
)

// ObjectStore is the subset of *storage.S3Storage the media flows use.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (storage.ObjectStat, error)
	DeleteObject(ctx context.Context, key string) error
}

// MediaService stores profile avatars, profile banners and group covers.
type MediaService struct {
	userRepo      repository.UserRepositoryInterface
	groupRepo     repository.GroupRepositoryInterface
	members       *Membership
	store         ObjectStore
	publicBaseURL string
}

func NewMediaService(
	userRepo repository.UserRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	store ObjectStore,
	publicAPIBaseURL string,
) *MediaService {
	return &MediaService{
		userRepo:      userRepo,
		groupRepo:     groupRepo,
		members:       NewMembership(groupRepo),
		store:         store,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicAPIBaseURL), "/"),
	}
}

// Configured reports whether uploads can be served.
func (s *MediaService) Configured() bool {
	return s != nil && s.store != nil && s.publicBaseURL != ""
}

func (s *MediaService) UploadAvatar(ctx context.Context, userID uint, file io.Reader) (*models.User, error) {
	return s.uploadUserImage(ctx, userID, storage.KindAvatar, file)
}

func (s *MediaService) UploadBanner(ctx context.Context, userID uint, file io.Reader) (*models.User, error) {
	return s.uploadUserImage(ctx, userID, storage.KindBanner, file)
}

// DeleteAvatar clears the avatar and removes the stored object best-effort.
func (s *MediaService) DeleteAvatar(ctx context.Context, userID uint) (*models.User, error) {
	if !s.Configured() {
		return nil, ErrStorageNotConfigured
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldKey := strings.TrimSpace(user.AvatarKey)
	user.Avatar = ""
	user.AvatarKey = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.removeQuietly(ctx, oldKey, "")
	return user, nil
}

// UploadCover replaces the group cover. Owner only.
func (s *MediaService) UploadCover(ctx context.Context, userID, groupID uint, file io.Reader) (*models.Group, error) {
	if !s.Configured() {
		return nil, ErrStorageNotConfigured
	}
	if err := s.members.RequireOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find group: %w", err)
	}

	key, url, err := s.put(ctx, storage.KindCover, groupID, file)
	if err != nil {
		return nil, err
	}
	oldKey := strings.TrimSpace(group.CoverKey)
	group.Cover = url
	group.CoverKey = key
	if err := s.groupRepo.Update(ctx, group); err != nil {
		s.removeQuietly(ctx, key, "")
		return nil, fmt.Errorf("update group: %w", err)
	}
	s.removeQuietly(ctx, oldKey, key)
	return group, nil
}

func (s *MediaService) uploadUserImage(ctx context.Context, userID uint, kind storage.MediaKind, file io.Reader) (*models.User, error) {
	if !s.Configured() {
		return nil, ErrStorageNotConfigured
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, url, err := s.put(ctx, kind, userID, file)
	if err != nil {
		return nil, err
	}

	var oldKey string
	if kind == storage.KindBanner {
		oldKey = strings.TrimSpace(user.BannerKey)
		user.Banner, user.BannerKey = url, key
	} else {
		oldKey = strings.TrimSpace(user.AvatarKey)
		user.Avatar, user.AvatarKey = url, key
	}

	// Keep the old object until the row points at the new one.
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.removeQuietly(ctx, key, "")
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.removeQuietly(ctx, oldKey, key)
	return user, nil
}

func (s *MediaService) put(ctx context.Context, kind storage.MediaKind, ownerID uint, file io.Reader) (string, string, error) {
	jpegBytes, contentType, size, err := storage.ProcessImage(file, storage.OptionsFor(kind))
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", "", NewValidationError("file", "image is too large")
		}
		if errors.Is(err, storage.ErrUnsupported) || errors.Is(err, storage.ErrInvalidImage) {
			return "", "", NewValidationError("file", "unsupported or invalid image (use JPEG, PNG or WebP)")
		}
		return "", "", NewValidationError("file", "could not read image")
	}

	key := storage.NewObjectKey(kind, ownerID)
	if _, err := s.store.PutObject(ctx, key, bytes.NewReader(jpegBytes), size, contentType); err != nil {
		return "", "", fmt.Errorf("store image: %w", err)
	}
	return key, s.publicBaseURL + "/api/media/" + key, nil
}

func (s *MediaService) findUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *MediaService) removeQuietly(ctx context.Context, key, keep string) {
	if key == "" || key == keep {
		return
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		logger.Get().WithError(err).WithField("key", key).Warn("failed to delete stored object")
	}
}
