package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/models"
	"shoppingtop/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.StandardClaims
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which a session token is valid
	hashCost   int
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService. A zero tokenDuration means 24 hours.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenDuration time.Duration, logger *slog.Logger) *AuthService {
	if tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDuration,
		hashCost:   bcrypt.DefaultCost,
		validate:   newValidator(),
		logger:     logger,
	}
}

// WithHashCost sets the bcrypt cost; tests lower it to bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	return s
}

// TokenDuration is how long an issued session stays valid.
func (s *AuthService) TokenDuration() time.Duration {
	return s.tokenDurat
}

// RegisterUser validates the credentials, hashes the password and saves a new user.
func (s *AuthService) RegisterUser(ctx context.Context, username, password string) (*models.User, error) {
	user := &models.User{Username: username, Password: password}
	if err := s.validate.Struct(user); err != nil {
		return nil, validationError(err)
	}

	if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperror.Conflict(fmt.Sprintf("username '%s' already taken", username))
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// EnsureUser registers the user unless the username already exists.
func (s *AuthService) EnsureUser(ctx context.Context, username, password string) (*models.User, error) {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	return s.RegisterUser(ctx, username, password)
}

// LoginUser authenticates a user and returns a signed session token.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Do not reveal whether the username exists
		return "", nil, apperror.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperror.Unauthorized("invalid credentials")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a session token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", slog.String("error", err.Error()))
		return nil, &apperror.AppError{Err: apperror.ErrUnauthorized, Message: "invalid token: " + err.Error()}
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, apperror.Unauthorized("invalid token")
	}
	return claims, nil
}

// Authenticate validates a session token and loads its user. Tokens of
// deleted users are rejected.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid token: user no longer exists")
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the user and every list they own.
func (s *AuthService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
