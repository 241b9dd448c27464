package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
)

// UserRepository 用户仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户，updated_by 指向用户自身
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		// 自注册用户的首次审计字段指向自己
		if user.UpdatedBy == 0 {
			return tx.Model(user).Update("updated_by", user.UserID).Error
		}
		return nil
	})
	return translateError(err, "user not found")
}

// GetByID 根据 ID 获取未删除的用户
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Scopes(notDeleted).First(&user, "user_id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "user not found")
	}
	return &user, nil
}

// GetByDeviceID 根据 device_id 获取未删除的用户
func (r *UserRepository) GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("device_id = ?", deviceID).First(&user).Error
	if err != nil {
		return nil, translateError(err, "user not found")
	}
	return &user, nil
}

// GetByUsername 根据登录名获取未删除的用户
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("username = ? AND username <> ''", username).First(&user).Error
	if err != nil {
		return nil, translateError(err, "user not found")
	}
	return &user, nil
}

// Update 更新用户，写审计字段
func (r *UserRepository) Update(ctx context.Context, user *models.User, actorID uint) error {
	user.UpdatedBy = actorID
	user.UpdatedAt = time.Now()
	return translateError(r.db.WithContext(ctx).Save(user).Error, "user not found")
}

// ExistsByDeviceID 检查 device_id 是否已被占用（含软删除行，device_id 全局唯一）
func (r *UserRepository) ExistsByDeviceID(ctx context.Context, deviceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("device_id = ?", deviceID).Count(&count).Error
	if err != nil {
		return false, translateError(err, "user not found")
	}
	return count > 0, nil
}

// IsNotFound 判断是否为未命中错误
func IsNotFound(err error) bool {
	return apperrors.Is(err, apperrors.KindNotFound)
}
