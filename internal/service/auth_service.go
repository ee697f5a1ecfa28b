package service

import (
	"context"
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/dom/task-manager/internal/auth"
	"github.com/dom/task-manager/internal/domain"
	"github.com/dom/task-manager/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenService
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	User  *domain.User
	Token string
}

func (in RegisterInput) validate() error {
	if in.Username == "" || in.Password == "" {
		return invalid("Username and password are required")
	}
	if len(in.Username) < minUsernameLength {
		return invalid("Username must be at least 3 characters long")
	}
	if len(in.Username) > maxUsernameLength {
		return invalid("Username must be at most 50 characters long")
	}
	if !usernamePattern.MatchString(in.Username) {
		return invalid("Username may only contain letters, numbers and underscores")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return invalid("Password must be at least 6 characters long")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return invalid("Password must be at most 72 bytes long")
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	// Checked up front to skip the hashing cost; the repository re-checks
	// under its lock.
	existing, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err == nil && existing != nil {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Username == "" || input.Password == "" {
		return nil, invalid("Username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.userRepo.ValidateCredentials(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ValidateToken returns the user id bound to the token or auth.ErrInvalidToken.
func (s *AuthService) ValidateToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
