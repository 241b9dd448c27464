package services

import (
	"context"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
	"github.com/chatapp/web-server/internal/repositories"
	"github.com/chatapp/web-server/internal/utils"
)

// UserService 用户服务
type UserService struct {
	UserRepo *repositories.UserRepository
}

func NewUserService(userRepo *repositories.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

// UpsertUserRequest 注册/更新请求
// username 和 password 可选，提供后该用户可以通过 /login 换取令牌
type UpsertUserRequest struct {
	Name     string `json:"name" binding:"required"`
	DeviceID string `json:"device_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserView 注册/更新响应里的用户视图
type UserView struct {
	UserImageURL string `json:"user_image_url"`
	DeviceID     string `json:"device_id"`
}

// UpsertByDeviceID 按 device_id 注册或更新用户
// 未知（或空）device_id 创建新用户，已知 device_id 更新展示名
func (s *UserService) UpsertByDeviceID(ctx context.Context, req *UpsertUserRequest) (*models.User, error) {
	if !utils.ValidateDisplayName(req.Name) {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "invalid display name")
	}
	if req.DeviceID != "" && !utils.ValidateDeviceID(req.DeviceID) {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "invalid device id")
	}

	if req.DeviceID != "" {
		user, err := s.UserRepo.GetByDeviceID(ctx, req.DeviceID)
		if err == nil {
			return s.update(ctx, user, req)
		}
		if !repositories.IsNotFound(err) {
			return nil, err
		}
	}

	return s.create(ctx, req)
}

func (s *UserService) create(ctx context.Context, req *UpsertUserRequest) (*models.User, error) {
	deviceID := req.DeviceID
	if deviceID == "" {
		var err error
		deviceID, err = utils.GenerateDeviceID()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to mint device id", err)
		}
	}

	user := &models.User{
		DeviceID:    deviceID,
		DisplayName: req.Name,
	}
	if err := s.applyCredentials(ctx, user, req); err != nil {
		return nil, err
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) update(ctx context.Context, user *models.User, req *UpsertUserRequest) (*models.User, error) {
	user.DisplayName = req.Name
	if err := s.applyCredentials(ctx, user, req); err != nil {
		return nil, err
	}
	// 自助更新，actor 就是用户自己
	if err := s.UserRepo.Update(ctx, user, user.UserID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) applyCredentials(ctx context.Context, user *models.User, req *UpsertUserRequest) error {
	if req.Username != "" && req.Username != user.Username {
		// username 为空的用户可以并存，非空的登录名在服务层预检唯一性
		existing, err := s.UserRepo.GetByUsername(ctx, req.Username)
		if err == nil && existing.UserID != user.UserID {
			return apperrors.New(apperrors.KindConflict, "username is already taken")
		}
		if err != nil && !repositories.IsNotFound(err) {
			return err
		}
		user.Username = req.Username
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "failed to hash password", err)
		}
		user.PasswordHash = hash
	}
	return nil
}

// GetByID 获取未删除的用户
func (s *UserService) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.UserRepo.GetByID(ctx, userID)
}
