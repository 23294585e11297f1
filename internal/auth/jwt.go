package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// JWTService issues and checks the access tokens that identify the user a
// game record belongs to. Accounts themselves live outside this service.
type JWTService struct {
	accessSecret []byte
	accessTTL    time.Duration
}

type AccessTokenClaims struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(accessSecret string, accessTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = 30 * 24 * time.Hour
	}
	return &JWTService{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
	}
}

// GenerateAccessToken creates a new access token with user claims
func (s *JWTService) GenerateAccessToken(userID, displayName string) (string, error) {
	now := time.Now()
	claims := AccessTokenClaims{
		UserID:      userID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.accessSecret)
}

// ValidateAccessToken validates and parses an access token
func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.accessSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetAccessTTL returns the access token time-to-live duration
func (s *JWTService) GetAccessTTL() time.Duration {
	return s.accessTTL
}
