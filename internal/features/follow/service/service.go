package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"bandscope-backend/internal/features/follow/models"
	"bandscope-backend/internal/features/follow/repository"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

type FollowService interface {
	Follow(ctx context.Context, followerID, followingID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error
	Status(ctx context.Context, viewerID, profileID uuid.UUID) (*models.FollowStatus, error)
}

type followService struct {
	repo repository.FollowRepository
}

func NewFollowService(repo repository.FollowRepository) FollowService {
	return &followService{repo: repo}
}

func (s *followService) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	return s.repo.Insert(ctx, followerID, followingID)
}

func (s *followService) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	return s.repo.Delete(ctx, followerID, followingID)
}

func (s *followService) Status(ctx context.Context, viewerID, profileID uuid.UUID) (*models.FollowStatus, error) {
	following, err := s.repo.Exists(ctx, viewerID, profileID)
	if err != nil {
		return nil, err
	}
	followers, err := s.repo.CountFollowers(ctx, profileID)
	if err != nil {
		return nil, err
	}
	followingCount, err := s.repo.CountFollowing(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &models.FollowStatus{
		Following:      following,
		FollowerCount:  followers,
		FollowingCount: followingCount,
	}, nil
}
