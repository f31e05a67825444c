package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	verifier *auth.AssertionVerifier
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, verifier *auth.AssertionVerifier) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		verifier: verifier,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validateUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if n := len([]rune(username)); n < constants.MinUsernameLength || n > constants.MaxUsernameLength {
		return "", ErrInvalidUsername
	}
	return username, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Signup creates a password account. The first account ever created becomes an admin.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	username, err := validateUsername(input.Username)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: &hashed,
	}
	if err := s.userRepo.CreateWithBootstrapRole(ctx, user); err != nil {
		// A concurrent signup can pass the lookup above and lose on the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

// Login verifies credentials and returns a session for the user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// LoginWithIdentity exchanges a verified identity assertion for a session.
// The user is matched by external subject, then by email (linking the
// subject to the existing account), and created otherwise.
func (s *AuthService) LoginWithIdentity(ctx context.Context, assertion string) (*Session, error) {
	identity, err := s.verifier.Verify(assertion)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotVerified):
			return nil, ErrEmailNotVerified
		case errors.Is(err, auth.ErrAssertionsDisabled):
			return nil, err
		default:
			return nil, ErrIdentityRejected
		}
	}

	user, err := s.userRepo.FindByExternalIdentityID(ctx, identity.Subject)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user, err = s.userRepo.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if user.ExternalIdentityID != nil && *user.ExternalIdentityID != identity.Subject {
			return nil, ErrIdentityConflict
		}
		user.ExternalIdentityID = &identity.Subject
		if user.Avatar == "" {
			user.Avatar = identity.Picture
		}
		if err := s.userRepo.Save(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrIdentityConflict
			}
			return nil, fmt.Errorf("failed to link identity: %w", err)
		}
		return s.issue(user)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	username := identity.Name
	if len([]rune(username)) < constants.MinUsernameLength {
		username = strings.SplitN(identity.Email, "@", 2)[0]
	}
	if runes := []rune(username); len(runes) > constants.MaxUsernameLength {
		username = string(runes[:constants.MaxUsernameLength])
	}

	user = &models.User{
		Username:           username,
		Email:              identity.Email,
		ExternalIdentityID: &identity.Subject,
		Avatar:             identity.Picture,
	}
	if err := s.userRepo.CreateWithBootstrapRole(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.Actor())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
