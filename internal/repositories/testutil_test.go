package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatapp/web-server/internal/models"
	"github.com/chatapp/web-server/internal/storage"
)

// newTestDB 打开独立的内存数据库并迁移全部表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	return db
}

var seededUsers int

// seedUser 插入一个测试用户并返回其 ID
func seedUser(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	seededUsers++
	user := models.User{
		DeviceID:    fmt.Sprintf("device%014d", seededUsers),
		DisplayName: name,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.UserID
}

// seedRoom 以 creator 为首个管理员创建房间
func seedRoom(t *testing.T, db *gorm.DB, creatorID uint, name string) uint {
	t.Helper()
	repo := NewRoomRepository(db)
	room := models.Room{RoomName: name, CreatorID: creatorID}
	require.NoError(t, repo.Create(context.Background(), &room))
	return room.RoomID
}
