package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"warbler/internal/model"
	"warbler/internal/repository"
)

type SignupInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
	ImageURL string
}

type AuthService interface {
	// Signup creates a user with a bcrypt-hashed password.
	Signup(ctx context.Context, input SignupInput) (*model.User, error)
	// Authenticate returns the user whose password verifies, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

type authService struct {
	store repository.Store
	cost  int
}

// NewAuthService uses bcrypt.DefaultCost when cost is zero.
func NewAuthService(store repository.Store, cost int) AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &authService{store: store, cost: cost}
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, invalid("password", "must be at most 72 bytes")
	}
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:          input.Email,
		Username:       input.Username,
		ImageURL:       input.ImageURL,
		PasswordHash:   string(hashedPassword),
	}
	user.ApplyDefaults()

	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Users.Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, translateUserConstraint(err)
	}

	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var user *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users.FindByUsername(ctx, username)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
