package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docfeed/internal/models"
	"docfeed/internal/repository"
	"docfeed/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const maxFullNameLen = 120

type UserService struct {
	users    repository.UserRepository
	activity *ActivityService
}

type RegisterInput struct {
	Username string
	Password string
	FullName string
	Avatar   string
}

func NewUserService(users repository.UserRepository, activity *ActivityService) *UserService {
	return &UserService{users: users, activity: activity}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	fullName := strings.TrimSpace(in.FullName)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateLength("Full name", fullName, maxFullNameLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(fmt.Sprintf("username %q is already taken", username))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Password: string(hash),
		FullName: fullName,
	}
	if avatar := strings.TrimSpace(in.Avatar); avatar != "" {
		user.Avatar = &avatar
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, user.ID, models.ActionUserRegistered, nil, fmt.Sprintf("%s joined", user.FullName))
	return user, nil
}

// Login verifies credentials. Unknown users and wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Invalid username or password")

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, invalid
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}
