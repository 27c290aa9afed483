package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

// ErrInvalidFormat is returned for an Authorization header that carries no token
var ErrInvalidFormat = fmt.Errorf("%w: invalid token format", apperrors.ErrTokenInvalid)

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey       string
	AccessTokenExp  time.Duration
	RefreshTokenExp time.Duration
	TokenIssuer     string
}

// JWTService handles JWT operations
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{
		config: config,
	}
}

// Claims defines JWT token content
type Claims struct {
	UserID int64  `json:"userId"`
	Roll   string `json:"roll"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token belongs to an administrator
func (c *Claims) IsAdmin() bool {
	return c.Role == string(models.RoleAdmin)
}

// TokenPair is a signed access token plus an opaque refresh token
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int64
	RefreshExpiresIn int64
	RefreshExpiresAt time.Time
}

// GenerateTokenPair creates access and refresh token pair
func (s *JWTService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Roll:   user.Roll,
		Email:  user.Email,
		Role:   string(user.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.TokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.New().String(),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     uuid.New().String(),
		ExpiresIn:        int64(s.config.AccessTokenExp.Seconds()),
		RefreshExpiresIn: int64(s.config.RefreshTokenExp.Seconds()),
		RefreshExpiresAt: now.Add(s.config.RefreshTokenExp),
	}, nil
}

// ValidateToken validates a token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithIssuer(s.config.TokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", ErrInvalidFormat
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		authHeader = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if strings.Count(authHeader, ".") != 2 {
		return "", ErrInvalidFormat
	}
	return authHeader, nil
}

// ValidateAndExtractClaims validates and extracts claims from a token string
func (s *JWTService) ValidateAndExtractClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 || claims.Email == "" {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}
