package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"taskhub/internal/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type TokenConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// Claims adalah isi access token dan refresh token.
//
// UserID biasanya angka. Token lama bisa membawa referensi string
// (sebelum user punya id numerik); lihat Claims.Subject.
type Claims struct {
	UserID   any         `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Subject memisahkan id numerik dan referensi lama dari claim "id".
func (c *Claims) Subject() (id int64, legacyRef string, err error) {
	switch v := c.UserID.(type) {
	case json.Number:
		id, err = v.Int64()
	case float64:
		id = int64(v)
	case string:
		if n, convErr := strconv.ParseInt(v, 10, 64); convErr == nil {
			id = n
		} else {
			legacyRef = v
		}
	default:
		err = fmt.Errorf("unexpected id claim type %T", c.UserID)
	}
	if err == nil && id <= 0 && legacyRef == "" {
		err = fmt.Errorf("missing id claim")
	}
	return id, legacyRef, err
}

type TokenIssuer struct {
	cfg    TokenConfig
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{
		cfg:    cfg,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithJSONNumber()),
		now:    time.Now,
	}
}

func (t *TokenIssuer) IssueAccess(u models.User) (string, error) {
	return t.sign(u, t.cfg.AccessSecret, t.cfg.AccessTTL)
}

func (t *TokenIssuer) IssueRefresh(u models.User) (string, error) {
	return t.sign(u, t.cfg.RefreshSecret, t.cfg.RefreshTTL)
}

func (t *TokenIssuer) sign(u models.User, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti membuat setiap token unik walau dibuat pada detik yang sama
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (t *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return t.parse(token, t.cfg.AccessSecret)
}

func (t *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return t.parse(token, t.cfg.RefreshSecret)
}

func (t *TokenIssuer) parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, models.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", models.ErrInvalidToken)
	}
	return claims, nil
}
