package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/models"
)

// TokenRepository 设备令牌仓储
// 持久化在 PostgreSQL，活跃令牌对在 Redis 里做快路径缓存
type TokenRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewTokenRepository 创建令牌仓储实例，rdb 可以为 nil（降级为纯数据库路径）
func NewTokenRepository(db *gorm.DB, rdb *redis.Client) *TokenRepository {
	return &TokenRepository{db: db, rdb: rdb}
}

func tokenCacheKey(deviceID string) string {
	return fmt.Sprintf("device:%s:access_token", deviceID)
}

// Replace 写入设备的新令牌对，作废该设备此前的一对
// device_id 上的唯一索引保证了对同一设备的写入串行化；
// 已有行做原地覆盖而不是删除重建，保持每设备一行
func (r *TokenRepository) Replace(ctx context.Context, token *models.Token) error {
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		token.UpdatedBy = token.UserID
		var existing models.Token
		err := tx.Where("device_id = ?", token.DeviceID).First(&existing).Error
		if err == nil {
			token.TokenID = existing.TokenID
			token.IsDeleted = false
			return tx.Save(token).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(token).Error
		}
		return err
	})
	if err != nil {
		return translateError(err, "token not found")
	}

	if r.rdb != nil {
		ttl := time.Until(token.AccessExpAt)
		if ttl > 0 {
			// 缓存失败不影响主路径，验证时会回落到数据库
			_ = r.rdb.Set(ctx, tokenCacheKey(token.DeviceID), token.AccessToken, ttl).Err()
		}
	}
	return nil
}

// GetByDevice 获取设备当前的活跃令牌对
func (r *TokenRepository) GetByDevice(ctx context.Context, deviceID string) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("device_id = ?", deviceID).First(&token).Error
	if err != nil {
		return nil, translateError(err, "token not found")
	}
	return &token, nil
}

// GetByRefreshToken 根据 refresh token 获取令牌对
func (r *TokenRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("refresh_token = ?", refreshToken).First(&token).Error
	if err != nil {
		return nil, translateError(err, "token not found")
	}
	return &token, nil
}

// IsActiveAccessToken 校验 access token 是否是该设备当前的活跃令牌
// 先查 Redis 缓存，未命中或不可用时回落到数据库
func (r *TokenRepository) IsActiveAccessToken(ctx context.Context, deviceID, accessToken string) (bool, error) {
	if r.rdb != nil {
		cached, err := r.rdb.Get(ctx, tokenCacheKey(deviceID)).Result()
		if err == nil {
			return cached == accessToken, nil
		}
		// redis.Nil 或连接错误都走数据库
	}

	token, err := r.GetByDevice(ctx, deviceID)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return token.AccessToken == accessToken && token.AccessExpAt.After(time.Now()), nil
}

// Revoke 作废设备的令牌对（软删除）
func (r *TokenRepository) Revoke(ctx context.Context, deviceID string, actorID uint) error {
	if r.rdb != nil {
		_ = r.rdb.Del(ctx, tokenCacheKey(deviceID)).Err()
	}
	return translateError(
		r.db.WithContext(ctx).Model(&models.Token{}).
			Where("device_id = ?", deviceID).
			Updates(map[string]any{
				"is_deleted": true,
				"updated_by": actorID,
				"updated_at": time.Now(),
			}).Error,
		"token not found",
	)
}
