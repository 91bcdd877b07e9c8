package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/security/auth"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo domain.UserRepository
	reviews  domain.ReviewRepository
	ratings  *RatingAggregator
	tokens   *auth.TokenManager
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service. reviews and ratings
// may be nil when no rating summaries are cached.
func NewAuthService(
	userRepo domain.UserRepository,
	reviews domain.ReviewRepository,
	ratings *RatingAggregator,
	tokens *auth.TokenManager,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 60 * time.Minute
	}

	return &AuthService{
		userRepo: userRepo,
		reviews:  reviews,
		ratings:  ratings,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by register and login
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresIn int // seconds
	TokenType string
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Password == "" || in.Username == "" {
		return nil, errors.New("email, username, and password are required")
	}

	if len(in.Password) < 8 {
		return nil, domain.ErrWeakPassword
	}

	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, domain.ErrEmailTaken
	}
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil && existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Info("login attempt with non-existent email", slog.String("email", email))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID.String()),
		slog.String("email", user.Email),
	)
	return s.issue(user)
}

// VerifyToken validates a token and resolves it to an actor
func (s *AuthService) VerifyToken(tokenString string) (domain.Actor, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	id, err := claims.SubjectID()
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("%w: bad subject", domain.ErrUnauthenticated)
	}
	return domain.UserActor(id), nil
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.ErrWeakPassword
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info("user changed password", slog.String("user_id", userID.String()))
	return nil
}

// DeleteAccount removes the user together with their listings, bookings and reviews
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}

	reviewed, err := s.reviewedListings(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	for _, listingID := range reviewed {
		s.ratings.Invalidate(ctx, listingID)
	}

	s.logger.Info("user deleted account",
		slog.String("user_id", userID.String()),
		slog.Int("summaries_invalidated", len(reviewed)),
	)
	return nil
}

// reviewedListings returns the listings whose rating summaries change when
// the user's reviews go away with the account
func (s *AuthService) reviewedListings(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if s.reviews == nil || s.ratings == nil {
		return nil, nil
	}
	reviews, err := s.reviews.List(ctx, domain.ReviewFilter{ReviewerID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list user reviews: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(reviews))
	ids := make([]uuid.UUID, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.ListingID]; ok {
			continue
		}
		seen[r.ListingID] = struct{}{}
		ids = append(ids, r.ListingID)
	}
	return ids, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresIn: int(s.tokenTTL.Seconds()),
		TokenType: "Bearer",
	}, nil
}
