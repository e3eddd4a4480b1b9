package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrNotAdmin      = errors.New("token does not carry the admin role")
	ErrInvalidSecret = errors.New("invalid admin secret")
)

// Claims are the operator token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Options struct {
	JWTSecret       string
	AdminSecret     string
	AdminSecretHash string // bcrypt hash; checked when set
	TokenTTL        time.Duration
}

// Service issues and verifies operator credentials. It has no storage: the
// admin secret comes from configuration and tokens are stateless.
type Service struct {
	jwtSecret   []byte
	adminSecret []byte
	adminHash   []byte
	tokenTTL    time.Duration
	now         func() time.Time
}

// NewService fills missing secrets with ephemeral random values so a
// misconfigured server never accepts an empty secret.
func NewService(opts Options, logger zerolog.Logger) (*Service, error) {
	s := &Service{
		adminHash: []byte(strings.TrimSpace(opts.AdminSecretHash)),
		tokenTTL:  opts.TokenTTL,
		now:       time.Now,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 24 * time.Hour
	}

	jwtSecret := strings.TrimSpace(opts.JWTSecret)
	if jwtSecret == "" {
		generated, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT fallback secret: %w", err)
		}
		jwtSecret = generated
		logger.Warn().Msg("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	}
	s.jwtSecret = []byte(jwtSecret)

	adminSecret := strings.TrimSpace(opts.AdminSecret)
	if adminSecret == "" && len(s.adminHash) == 0 {
		generated, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
		}
		adminSecret = generated
		logger.Warn().Msg("ADMIN_SECRET is not set; admin access requires a signed token")
	}
	s.adminSecret = []byte(adminSecret)

	return s, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CheckAdminSecret compares a presented secret with the bcrypt hash when one
// is configured, otherwise with the plain secret in constant time.
func (s *Service) CheckAdminSecret(candidate string) error {
	if candidate == "" {
		return ErrInvalidSecret
	}
	if len(s.adminHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(candidate)); err != nil {
			return ErrInvalidSecret
		}
		return nil
	}
	if len(s.adminSecret) == 0 || subtle.ConstantTimeCompare(s.adminSecret, []byte(candidate)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}

// IssueToken signs an admin token for subject. ttl <= 0 uses the default.
func (s *Service) IssueToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	now := s.now()
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyAdminToken parses a token and requires the admin role.
func (s *Service) VerifyAdminToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

// HashSecret returns a bcrypt hash suitable for ADMIN_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}
