package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatapp/web-server/internal/repositories"
	"github.com/chatapp/web-server/internal/storage"
	"github.com/chatapp/web-server/pkg/token"
)

// testEnv 服务层测试用的全套依赖，跑在内存数据库上
type testEnv struct {
	db      *gorm.DB
	users   *UserService
	auth    *AuthService
	rooms   *RoomService
	members *MemberService
	invites *InviteService
	msgs    *MessageService
	hub     *stubHub
}

// stubHub 收集广播调用
type stubHub struct {
	broadcasts []uint
}

func (h *stubHub) BroadcastToRoom(roomID uint, message any) {
	h.broadcasts = append(h.broadcasts, roomID)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))

	userRepo := repositories.NewUserRepository(db)
	roomRepo := repositories.NewRoomRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	inviteRepo := repositories.NewInviteRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	tokenRepo := repositories.NewTokenRepository(db, nil)

	tm := token.NewTokenManager("test-secret", 30, 720)
	hub := &stubHub{}

	return &testEnv{
		db:      db,
		users:   NewUserService(userRepo),
		auth:    NewAuthService(userRepo, tokenRepo, tm),
		rooms:   NewRoomService(roomRepo, memberRepo, messageRepo, userRepo),
		members: NewMemberService(roomRepo, memberRepo),
		invites: NewInviteService(inviteRepo, memberRepo, roomRepo, userRepo),
		msgs:    NewMessageService(memberRepo, messageRepo, nil, nil, hub, zap.NewNop()),
		hub:     hub,
	}
}

var testUserSeq int

// registerUser 自动注册一个用户并返回 (user_id, device_id)
func (e *testEnv) registerUser(t *testing.T, name string) (uint, string) {
	t.Helper()
	testUserSeq++
	user, err := e.users.UpsertByDeviceID(context.Background(), &UpsertUserRequest{
		Name:     name,
		DeviceID: fmt.Sprintf("testdev%013d", testUserSeq),
	})
	require.NoError(t, err)
	return user.UserID, user.DeviceID
}
