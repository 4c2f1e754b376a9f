package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/gosuda/shakwa/internal/audit"
	"github.com/gosuda/shakwa/internal/domain"
	"github.com/gosuda/shakwa/internal/mailer"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserAlreadyExists  = errors.New("auth: user already exists")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrAccountLocked      = errors.New("auth: account temporarily locked")
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Account lockout policy: after maxFailedLogins consecutive bad passwords
// the account refuses logins for lockoutWindow, even with the right password.
const (
	maxFailedLogins = 5
	lockoutWindow   = 30 * time.Minute
)

// MailQueue enqueues outbound mail without blocking.
type MailQueue interface {
	Queue(m mailer.Message)
}

// ActionLogger records security events off the request path.
type ActionLogger interface {
	Log(userID *uuid.UUID, action string, details map[string]any, meta domain.RequestMeta)
}

// Service provides authentication operations: registration, credential
// login with lockout, and token refresh.
type Service struct {
	userRepo   domain.UserRepository
	mail       MailQueue
	actions    ActionLogger
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a new auth service.
func NewService(userRepo domain.UserRepository, mail MailQueue, actions ActionLogger, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		userRepo:   userRepo,
		mail:       mail,
		actions:    actions,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a new citizen account. The password is hashed with
// argon2id before storage. Staff accounts are provisioned by admins through
// the employee management operations, never through self-registration.
func (s *Service) Register(ctx context.Context, name, email, password string, meta domain.RequestMeta) (*domain.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("auth.Register: %w", ErrUserAlreadyExists)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	s.actions.Log(&user.ID, audit.ActionRegister, map[string]any{"email": email}, meta)

	return user, nil
}

// Login validates email/password and returns access + refresh JWT tokens.
// Failed attempts count toward the lockout policy; a locked account rejects
// even correct credentials until the window expires.
func (s *Service) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (accessToken, refreshToken string, user *domain.User, err error) {
	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.actions.Log(nil, audit.ActionLoginFailed, map[string]any{"email": email}, meta)
		return "", "", nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	now := time.Now()
	if user.AccountLocked(now) {
		s.actions.Log(&user.ID, audit.ActionLoginFailed, map[string]any{"email": email, "reason": "locked"}, meta)
		return "", "", nil, fmt.Errorf("auth.Login: %w", ErrAccountLocked)
	}

	if !verifyPassword(password, user.PasswordHash) {
		s.recordFailedAttempt(ctx, user, meta)
		return "", "", nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if user.FailedLogins > 0 || user.LockedUntil != nil {
		if stateErr := s.userRepo.UpdateLoginState(ctx, user.ID, 0, nil); stateErr != nil {
			return "", "", nil, fmt.Errorf("auth.Login: reset login state: %w", stateErr)
		}
		user.FailedLogins = 0
		user.LockedUntil = nil
	}

	accessToken, err = IssueAccessToken(s.jwtSecret, user.ID, string(user.Role), s.accessTTL)
	if err != nil {
		return "", "", nil, fmt.Errorf("auth.Login: %w", err)
	}

	refreshToken, err = IssueRefreshToken(s.jwtSecret, user.ID, string(user.Role), s.refreshTTL)
	if err != nil {
		return "", "", nil, fmt.Errorf("auth.Login: %w", err)
	}

	s.actions.Log(&user.ID, audit.ActionLogin, nil, meta)

	return accessToken, refreshToken, user, nil
}

// recordFailedAttempt increments the failure counter and opens the lockout
// window on the final allowed attempt. Best-effort: bookkeeping failures are
// swallowed so the caller still reports invalid credentials.
func (s *Service) recordFailedAttempt(ctx context.Context, user *domain.User, meta domain.RequestMeta) {
	failed := user.FailedLogins + 1

	if failed >= maxFailedLogins {
		lockedUntil := time.Now().Add(lockoutWindow)
		_ = s.userRepo.UpdateLoginState(ctx, user.ID, failed, &lockedUntil)

		s.actions.Log(&user.ID, audit.ActionAccountLocked, map[string]any{"failed_logins": failed}, meta)
		s.mail.Queue(mailer.Message{
			To:      user.Email,
			Subject: "Your account has been temporarily locked",
			Body: fmt.Sprintf(
				"Hello %s,\n\nYour account was locked for %d minutes after repeated failed login attempts. If this was not you, please reset your password.",
				user.Name, int(lockoutWindow.Minutes()),
			),
		})
		return
	}

	_ = s.userRepo.UpdateLoginState(ctx, user.ID, failed, nil)
	s.actions.Log(&user.ID, audit.ActionLoginFailed, map[string]any{"failed_logins": failed}, meta)
}

// RefreshToken validates a refresh token and issues a new access token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: invalid user id: %w", err)
	}

	// Verify the user still exists and fetch current role.
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
	}

	newAccess, err := IssueAccessToken(s.jwtSecret, user.ID, string(user.Role), s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	return newAccess, nil
}

// GetUser returns a user by ID (for middleware use).
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.GetUser: %w", err)
	}

	return user, nil
}

// hashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	// Split salt$hash
	var saltHex, hashHex string
	for i := range len(encoded) {
		if encoded[i] == '$' {
			saltHex = encoded[:i]
			hashHex = encoded[i+1:]
			break
		}
	}

	if saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expectedHash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Constant-time comparison to prevent timing attacks.
	if len(computed) != len(expectedHash) {
		return false
	}

	var diff byte
	for i := range computed {
		diff |= computed[i] ^ expectedHash[i]
	}

	return diff == 0
}
