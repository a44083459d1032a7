package service

import (
	"context"
	"errors"
	"strings"

	"commerce-graph/internal/apperr"
	"commerce-graph/internal/auth"
	"commerce-graph/internal/models"
	"commerce-graph/internal/store"
	"commerce-graph/internal/util"

	"go.uber.org/zap"
)

// UserService handles registration, login and profile changes
type UserService struct {
	users  UserRepository
	tokens *auth.TokenService
	hasher *auth.PasswordHasher
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserRepository, tokens *auth.TokenService, hasher *auth.PasswordHasher) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: util.Named("user_service"),
	}
}

// CreateUserInput is the registration payload
type CreateUserInput struct {
	Name     string `validate:"required"`
	Surname  string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// AuthInput is the login payload
type AuthInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// UpdateUserInput holds the editable profile fields
type UpdateUserInput struct {
	Name         string `validate:"required"`
	Surname      string `validate:"required"`
	Email        string `validate:"required,email"`
	Phone        string
	BusinessName string
	Role         string
	Address      string
}

// ChangePasswordInput is the password change payload
type ChangePasswordInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,min=6"`
}

// CreateUser registers a seller account
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.CreateUser")
	var err error
	defer func() { util.EndSpan(span, err) }()

	input.Email = normalizeEmail(input.Email)
	if err = validateInput(input); err != nil {
		return nil, err
	}

	if _, lookupErr := s.users.GetUserByEmail(ctx, input.Email); lookupErr == nil {
		err = apperr.Conflict("User already exists")
		return nil, err
	} else if !errors.Is(lookupErr, store.ErrNotFound) {
		err = internal(s.logger, lookupErr, "Error creating user")
		return nil, err
	}

	hash, hashErr := s.hasher.Hash(input.Password)
	if hashErr != nil {
		err = internal(s.logger, hashErr, "Error creating user")
		return nil, err
	}

	user := &models.User{
		Name:         input.Name,
		Surname:      input.Surname,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if createErr := s.users.CreateUser(ctx, user); createErr != nil {
		// a concurrent registration won the unique index
		if errors.Is(createErr, store.ErrDuplicate) {
			err = apperr.Conflict("User already exists")
			return nil, err
		}
		err = internal(s.logger, createErr, "Error creating user")
		return nil, err
	}

	s.logger.Info("User created", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// Authenticate checks credentials and issues a bearer token
func (s *UserService) Authenticate(ctx context.Context, input AuthInput) (string, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Authenticate")
	var err error
	defer func() { util.EndSpan(span, err) }()

	input.Email = normalizeEmail(input.Email)
	if err = validateInput(input); err != nil {
		return "", err
	}

	user, lookupErr := s.users.GetUserByEmail(ctx, input.Email)
	if lookupErr != nil {
		err = lookup(s.logger, lookupErr, "User not found", "Error authenticating user")
		return "", err
	}

	if !s.hasher.Check(input.Password, user.PasswordHash) {
		err = apperr.Unauthenticated("Invalid password")
		return "", err
	}

	token, signErr := s.tokens.Generate(user.ID)
	if signErr != nil {
		err = internal(s.logger, signErr, "Error authenticating user")
		return "", err
	}
	return token, nil
}

// GetUser returns the caller's profile
func (s *UserService) GetUser(ctx context.Context) (*models.User, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, lookup(s.logger, err, "User not found", "Error fetching user")
	}
	return user, nil
}

// UpdateUser changes the caller's own profile
func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateUser")
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	input.Email = normalizeEmail(input.Email)
	if err = validateInput(input); err != nil {
		return nil, err
	}

	user, lookupErr := s.users.GetUserByID(ctx, caller.ID)
	if lookupErr != nil {
		err = lookup(s.logger, lookupErr, "User not found", "Error updating user")
		return nil, err
	}

	if input.Email != user.Email {
		other, otherErr := s.users.GetUserByEmail(ctx, input.Email)
		switch {
		case otherErr == nil && other.ID != user.ID:
			err = apperr.Conflict("Email already in use")
			return nil, err
		case otherErr != nil && !errors.Is(otherErr, store.ErrNotFound):
			err = internal(s.logger, otherErr, "Error updating user")
			return nil, err
		}
	}

	user.Name = input.Name
	user.Surname = input.Surname
	user.Email = input.Email
	user.Phone = input.Phone
	user.BusinessName = input.BusinessName
	user.Role = input.Role
	user.Address = input.Address

	if updateErr := s.users.UpdateUser(ctx, user); updateErr != nil {
		if errors.Is(updateErr, store.ErrDuplicate) {
			err = apperr.Conflict("Email already in use")
			return nil, err
		}
		err = lookup(s.logger, updateErr, "User not found", "Error updating user")
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, input ChangePasswordInput) (string, error) {
	ctx, span := util.StartSpan(ctx, "UserService.ChangePassword")
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return "", err
	}
	if err = validateInput(input); err != nil {
		return "", err
	}

	user, lookupErr := s.users.GetUserByID(ctx, caller.ID)
	if lookupErr != nil {
		err = lookup(s.logger, lookupErr, "User not found", "Error changing password")
		return "", err
	}

	if !s.hasher.Check(input.CurrentPassword, user.PasswordHash) {
		err = apperr.Unauthenticated("Invalid password")
		return "", err
	}

	hash, hashErr := s.hasher.Hash(input.NewPassword)
	if hashErr != nil {
		err = internal(s.logger, hashErr, "Error changing password")
		return "", err
	}
	user.PasswordHash = hash

	if updateErr := s.users.UpdateUser(ctx, user); updateErr != nil {
		err = lookup(s.logger, updateErr, "User not found", "Error changing password")
		return "", err
	}
	return "Password Changed Successfully", nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
