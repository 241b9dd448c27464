package services

import (
	"context"
	"errors"
	"time"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
	"github.com/chatapp/web-server/internal/repositories"
	"github.com/chatapp/web-server/internal/utils"
	"github.com/chatapp/web-server/pkg/token"
)

// AuthService 认证服务
// 令牌对与 (user_id, device_id) 绑定，新登录作废该设备旧的一对
type AuthService struct {
	userRepo  *repositories.UserRepository
	tokenRepo *repositories.TokenRepository
	tm        *token.TokenManager
}

// NewAuthService 创建认证服务实例
func NewAuthService(userRepo *repositories.UserRepository, tokenRepo *repositories.TokenRepository, tm *token.TokenManager) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tm:        tm,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceID   string `json:"device_id" binding:"required"`
	DeviceName string `json:"device_name"`
}

// LoginInfo 登录响应里的用户信息
type LoginInfo struct {
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	ImageURL    string `json:"image_url,omitempty"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	Info         *LoginInfo `json:"info"`
}

// RefreshRequest 令牌刷新请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	DeviceID     string `json:"device_id" binding:"required"`
}

// TokenPair 刷新后的新令牌对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login 用户登录
// 凭证错误和用户不存在对客户端不可区分，统一返回 unauthorized
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if !utils.ValidateDeviceID(req.DeviceID) {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "invalid device id")
	}

	user, err := s.lookupUser(ctx, req.Username)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindUnauthorized, "invalid username or password")
		}
		return nil, err
	}

	if user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.New(apperrors.KindUnauthorized, "invalid username or password")
	}

	pair, err := s.issuePair(ctx, user.UserID, req.DeviceID, req.DeviceName)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Info: &LoginInfo{
			DisplayName: user.DisplayName,
			Username:    user.Username,
			ImageURL:    user.ImageURL,
		},
	}, nil
}

// lookupUser 先按登录名查找，其次把 username 当作 device_id（自注册用户的登录句柄）
func (s *AuthService) lookupUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, err
	}
	return s.userRepo.GetByDeviceID(ctx, username)
}

// issuePair 签发新令牌对并替换该设备此前的一对
func (s *AuthService) issuePair(ctx context.Context, userID uint, deviceID, deviceName string) (*TokenPair, error) {
	accessToken, err := s.tm.GenerateAccessToken(userID, deviceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to sign access token", err)
	}
	refreshToken := s.tm.GenerateRefreshToken()

	now := time.Now()
	record := &models.Token{
		UserID:       userID,
		DeviceID:     deviceID,
		DeviceName:   deviceName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExpAt:  now.Add(s.tm.AccessTTL()),
		RefreshExpAt: now.Add(s.tm.RefreshTTL()),
	}
	if err := s.tokenRepo.Replace(ctx, record); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Validate 校验 access token，返回其绑定的 (user_id, device_id)
// 令牌只在与该设备当前存储的活跃令牌对一致时有效
func (s *AuthService) Validate(ctx context.Context, accessToken string) (uint, string, error) {
	claims, err := s.tm.ParseToken(accessToken)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return 0, "", apperrors.New(apperrors.KindUnauthorized, "token has expired")
		}
		return 0, "", apperrors.New(apperrors.KindUnauthorized, "invalid token")
	}

	active, err := s.tokenRepo.IsActiveAccessToken(ctx, claims.DeviceID, accessToken)
	if err != nil {
		return 0, "", err
	}
	if !active {
		return 0, "", apperrors.New(apperrors.KindUnauthorized, "token has been superseded")
	}
	return claims.UserID, claims.DeviceID, nil
}

// Refresh 用 refresh token 换取新令牌对，旧的一对随之作废
func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error) {
	record, err := s.tokenRepo.GetByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindUnauthorized, "invalid refresh token")
		}
		return nil, err
	}
	if record.DeviceID != req.DeviceID {
		return nil, apperrors.New(apperrors.KindUnauthorized, "refresh token does not belong to this device")
	}
	if record.RefreshExpAt.Before(time.Now()) {
		return nil, apperrors.New(apperrors.KindUnauthorized, "refresh token has expired")
	}

	return s.issuePair(ctx, record.UserID, record.DeviceID, record.DeviceName)
}
