package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wasender/internal/config"
	"wasender/internal/dto/req"
	"wasender/internal/dto/resp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	RedisKeyPrefix = "wasender:auth:session:"
	Issuer         = "wasender-auth-service"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrSessionExpired     = errors.New("session expired")
)

// SignedKey is set from config at startup; the JWT middleware reads it.
var SignedKey []byte

type AuthService struct {
	redis           *redis.Client
	adminUsername   string
	adminPassword   string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

type UserClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"sub"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(rdb *redis.Client, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		redis:           rdb,
		adminUsername:   cfg.AdminUsername,
		adminPassword:   cfg.AdminPassword,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}
}

// Login authenticates the configured operator account and returns a token pair.
func (s *AuthService) Login(ctx context.Context, body req.LoginReq) (*resp.TokenResp, error) {
	if s.adminUsername == "" || body.Username != s.adminUsername || body.Password != s.adminPassword {
		return nil, ErrInvalidCredentials
	}

	userID := "1001"
	role := "admin"

	tokens, err := s.generateTokens(ctx, userID, body.Username, role)
	if err != nil {
		return nil, err
	}
	tokens.User = resp.UserInfo{
		ID:       userID,
		Username: body.Username,
		Role:     role,
	}
	return tokens, nil
}

// Refresh rotates the token pair using the allow-listed refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*resp.TokenResp, error) {
	token, err := jwt.ParseWithClaims(refreshToken, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return SignedKey, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	key := fmt.Sprintf("%s%s", RedisKeyPrefix, claims.UserID)
	storedToken, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	if storedToken != refreshToken {
		return nil, ErrTokenInvalid
	}

	return s.generateTokens(ctx, claims.UserID, claims.Username, claims.Role)
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	key := fmt.Sprintf("%s%s", RedisKeyPrefix, userID)
	return s.redis.Del(ctx, key).Err()
}

func (s *AuthService) generateTokens(ctx context.Context, userID, username, role string) (*resp.TokenResp, error) {
	now := time.Now()
	atClaims := UserClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, atClaims).SignedString(SignedKey)
	if err != nil {
		return nil, err
	}

	rtClaims := UserClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			ID:        uuid.New().String(),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rtClaims).SignedString(SignedKey)
	if err != nil {
		return nil, err
	}

	// Allow-list the refresh token so logout and rotation can revoke it.
	key := fmt.Sprintf("%s%s", RedisKeyPrefix, userID)
	if err := s.redis.Set(ctx, key, refreshToken, s.refreshTokenTTL).Err(); err != nil {
		return nil, err
	}

	return &resp.TokenResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}
