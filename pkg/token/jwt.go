package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims JWT 声明
// access token 与签发它的 (user_id, device_id) 绑定
type Claims struct {
	UserID   uint   `json:"user_id"`
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret     []byte
	accessDur  time.Duration
	refreshDur time.Duration
}

func NewTokenManager(secret string, accessMinutes, refreshHours int) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessDur:  time.Duration(accessMinutes) * time.Minute,
		refreshDur: time.Duration(refreshHours) * time.Hour,
	}
}

// AccessTTL access token 的有效期
func (tm *TokenManager) AccessTTL() time.Duration {
	return tm.accessDur
}

// RefreshTTL refresh token 的有效期
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshDur
}

// GenerateAccessToken 签发绑定到 (userID, deviceID) 的 access token
func (tm *TokenManager) GenerateAccessToken(userID uint, deviceID string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   userID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GenerateRefreshToken 生成不透明的 refresh token
func (tm *TokenManager) GenerateRefreshToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// ParseToken 解析并校验 access token
func (tm *TokenManager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
