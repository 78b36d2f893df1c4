package service

import (
	"context"
	"errors"
	"fmt"

	"contact_book/internal/model"
	"contact_book/internal/repository"
)

// ProfileService defines operations on the authenticated user's own profile
type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error)
}

type profileService struct {
	repo repository.UserRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(repo repository.UserRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if user == nil {
		return nil, ErrProfileNotFound
	}
	return user, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	phones := req.Phones.Normalize()
	email := trimOptional(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateProfileFields(req.AvatarURL, req.Bio); err != nil {
		return nil, err
	}
	if err := validatePhones(phones); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        userID,
		FullName:  trimOptional(req.FullName),
		Email:     email,
		AvatarURL: trimOptional(req.AvatarURL),
		Bio:       trimOptional(req.Bio),
	}
	if err := s.repo.UpdateProfileWithPhones(ctx, user, phones); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		var dup *repository.DuplicatePhoneError
		if errors.As(err, &dup) {
			return nil, &DuplicatePhoneError{Phone: dup.Phone}
		}
		return nil, fmt.Errorf("failed to update profile in repo: %w", err)
	}

	return s.GetProfile(ctx, userID)
}
