package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskhub/internal/models"
	"taskhub/pkg/crypto"
	"taskhub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

// Session adalah hasil login.
type Session struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type AuthOptions struct {
	Tokens     *TokenIssuer
	Sealer     *crypto.Sealer
	Validate   *validator.Validate
	BcryptCost int
}

// AuthService memverifikasi kredensial, menerbitkan token, dan menjaga
// satu session aktif per user.
type AuthService struct {
	users    UserRepository
	seq      Sequencer
	tokens   *TokenIssuer
	sealer   *crypto.Sealer
	validate *validator.Validate
	cost     int
	// dummyHash dipakai saat username tidak ada supaya waktu respon
	// tidak membedakan user yang ada dan tidak ada.
	dummyHash []byte
}

func NewAuthService(users UserRepository, seq Sequencer, opts AuthOptions) (*AuthService, error) {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Validate == nil {
		opts.Validate = validator.New()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		seq:       seq,
		tokens:    opts.Tokens,
		sealer:    opts.Sealer,
		validate:  opts.Validate,
		cost:      opts.BcryptCost,
		dummyHash: dummy,
	}, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Authenticate memeriksa username dan password lalu membuka session baru.
// Token refresh sebelumnya otomatis tidak berlaku lagi.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, models.NewValidationError("Username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		logger.SecurityLogger.Warn("Login for unknown user", zap.String("username", username))
		return Session{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("username", username))
		return Session{}, models.ErrInvalidCredentials
	}

	if err := s.EnsureNumericID(ctx, &user); err != nil {
		return Session{}, err
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}

	sealed, err := s.sealer.Seal(refresh)
	if err != nil {
		return Session{}, fmt.Errorf("seal session token: %w", err)
	}
	if err := s.users.SetSessionToken(ctx, user.ID, &sealed); err != nil {
		return Session{}, fmt.Errorf("store session token: %w", err)
	}

	logger.AuditLogger.Info("Login success", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return Session{AccessToken: access, RefreshToken: refresh, User: user.Public()}, nil
}

// RotateAccessToken menukar refresh token yang masih menjadi session aktif
// dengan access token baru. Refresh token tidak ikut diganti.
func (s *AuthService) RotateAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", models.ErrMissingToken
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		logger.SecurityLogger.Warn("Invalid refresh token", zap.Error(err))
		return "", models.ErrInvalidToken
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return "", err
	}
	if user.SessionToken == nil || !s.sealer.Matches(*user.SessionToken, refreshToken) {
		logger.SecurityLogger.Warn("Refresh token is not the live session", zap.Int64("user_id", user.ID))
		return "", models.ErrInvalidToken
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// EndSession menghapus session token. Memanggilnya dua kali bukan error.
func (s *AuthService) EndSession(ctx context.Context, userID int64) error {
	if err := s.users.SetSessionToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	logger.AuditLogger.Info("Logout", zap.Int64("user_id", userID))
	return nil
}

// Register membuat akun baru dengan role user. Tidak ada token yang diterbitkan.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return models.PublicUser{}, validationMessage(err)
	}
	user, err := s.createUser(ctx, in.Username, in.Password, in.Email, models.RoleUser)
	if err != nil {
		return models.PublicUser{}, err
	}
	logger.AuditLogger.Info("User registered successfully", zap.Int64("user_id", user.ID))
	return user.Public(), nil
}

func (s *AuthService) createUser(ctx context.Context, username, password, email string, role models.Role) (models.User, error) {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return models.User{}, models.ErrDuplicateUsername
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	var emailPtr *string
	if email != "" {
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			return models.User{}, models.ErrDuplicateEmail
		} else if !errors.Is(err, models.ErrNotFound) {
			return models.User{}, fmt.Errorf("find user by email: %w", err)
		}
		emailPtr = &email
	}

	hashed, err := s.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	id, err := s.seq.NextValue(ctx, SeqUserID)
	if err != nil {
		return models.User{}, fmt.Errorf("next user id: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		Ref:          uuid.NewString(),
		ID:           id,
		Username:     username,
		Email:        emailPtr,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// EnsureNumericID memberi id numerik pada user lama yang belum punya.
// Aman dipanggil berkali-kali dan oleh beberapa request bersamaan: semua
// pemanggil akan melihat id yang sama.
func (s *AuthService) EnsureNumericID(ctx context.Context, u *models.User) error {
	if u.ID != 0 {
		return nil
	}
	id, err := s.seq.NextValue(ctx, SeqUserID)
	if err != nil {
		return fmt.Errorf("next user id: %w", err)
	}
	assigned, err := s.users.AssignID(ctx, u.Ref, id)
	if err != nil {
		return fmt.Errorf("assign user id: %w", err)
	}
	if !assigned {
		fresh, err := s.users.FindByRef(ctx, u.Ref)
		if err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
		u.ID = fresh.ID
		return nil
	}
	u.ID = id
	logger.AuditLogger.Info("Assigned numeric id", zap.String("ref", u.Ref), zap.Int64("user_id", id))
	return nil
}

// ResolveIdentity mengubah claim access token menjadi identitas numerik.
func (s *AuthService) ResolveIdentity(ctx context.Context, claims *Claims) (models.Identity, error) {
	id, ref, err := claims.Subject()
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	if ref == "" {
		return models.Identity{ID: id, Username: claims.Username, Role: claims.Role}, nil
	}
	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{ID: user.ID, Username: claims.Username, Role: claims.Role}, nil
}

// ParseAccessToken memverifikasi signature dan masa berlaku access token.
func (s *AuthService) ParseAccessToken(token string) (*Claims, error) {
	return s.tokens.ParseAccess(token)
}

func (s *AuthService) userFromClaims(ctx context.Context, claims *Claims) (models.User, error) {
	id, ref, err := claims.Subject()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	var user models.User
	if ref != "" {
		user, err = s.users.FindByRef(ctx, ref)
	} else {
		user, err = s.users.FindByID(ctx, id)
	}
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, models.ErrInvalidToken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if err := s.EnsureNumericID(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// validationMessage mengubah error validator menjadi pesan yang ramah client.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		if field == "Username" || field == "Password" {
			return models.NewValidationError("Username and password are required")
		}
		return models.NewValidationError(field + " is required")
	case "min":
		if field == "Password" {
			return models.NewValidationError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		}
		return models.NewValidationError(field + " is too short")
	case "email":
		return models.NewValidationError("Invalid email format")
	default:
		return models.NewValidationError("Invalid " + strings.ToLower(field))
	}
}
