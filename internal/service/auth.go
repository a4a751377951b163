package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/repo"
)

// bcryptCost is the work factor for password hashes. 12 rounds is above the
// library default and matches the cost of the hashes this service verifies.
const bcryptCost = 12

// AuthService registers users and verifies credentials.
type AuthService struct {
	users repo.UserRepo
}

// NewAuthService constructs an AuthService backed by the provided UserRepo.
func NewAuthService(users repo.UserRepo) *AuthService {
	return &AuthService{users: users}
}

// Register creates a new account with role user. Registration never assigns
// a higher role; only an admin can promote afterwards.
// Returns domain.ErrValidation for bad input and domain.ErrConflict when the
// email is already registered.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if len([]rune(name)) < 2 {
		return domain.User{}, fmt.Errorf("%w: name must be at least 2 characters", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: email is not a valid address", domain.ErrValidation)
	}
	if len(password) < 8 {
		return domain.User{}, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: hash: %w", err)
	}

	created, err := s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         domain.RoleUser,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}
	return created, nil
}

// Verify checks a submitted email/password pair against the stored hash.
//
// A failed match returns ok=false with a nil error, for an unknown email and
// a wrong password alike, so callers cannot tell which part of a login
// failed. bcrypt's comparison is constant-time over the hash.
func (s *AuthService) Verify(ctx context.Context, email, password string) (domain.User, bool, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, fmt.Errorf("service.AuthService.Verify: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, false, nil
	}
	return user, true, nil
}
