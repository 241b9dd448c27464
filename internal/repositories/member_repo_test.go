package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
)

func TestMemberJoinAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewMemberRepository(db)
	creatorID := seedUser(t, db, "alice")
	userID := seedUser(t, db, "bob")
	roomID := seedRoom(t, db, creatorID, "general")

	member, err := repo.Join(ctx, roomID, userID, false)
	require.NoError(t, err)
	assert.False(t, member.IsAdmin)

	_, err = repo.Join(ctx, roomID, userID, false)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestMemberRejoinAfterLeave(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewMemberRepository(db)
	creatorID := seedUser(t, db, "alice")
	userID := seedUser(t, db, "bob")
	roomID := seedRoom(t, db, creatorID, "general")

	member, err := repo.Join(ctx, roomID, userID, false)
	require.NoError(t, err)
	require.NoError(t, repo.Leave(ctx, member.RoomUserID, userID))

	// 离开后旧关系不可见，可以重新加入，得到新的 room_user_id
	again, err := repo.Join(ctx, roomID, userID, false)
	require.NoError(t, err)
	assert.NotEqual(t, member.RoomUserID, again.RoomUserID)
}

func TestLeaveLastAdminPromotesEarliestMember(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	memberRepo := NewMemberRepository(db)
	roomRepo := NewRoomRepository(db)

	creatorID := seedUser(t, db, "alice")
	secondID := seedUser(t, db, "bob")
	thirdID := seedUser(t, db, "carol")
	roomID := seedRoom(t, db, creatorID, "general")

	second, err := memberRepo.Join(ctx, roomID, secondID, false)
	require.NoError(t, err)
	// bob 先加入，carol 后加入
	require.NoError(t, db.Model(&models.RoomUser{}).
		Where("room_user_id = ?", second.RoomUserID).
		Update("joined_at", time.Now().Add(-time.Hour)).Error)
	_, err = memberRepo.Join(ctx, roomID, thirdID, false)
	require.NoError(t, err)

	creator, err := memberRepo.GetByRoomAndUser(ctx, roomID, creatorID)
	require.NoError(t, err)
	require.NoError(t, memberRepo.Leave(ctx, creator.RoomUserID, creatorID))

	// 资历最长的 bob 成为管理员和新创建者
	isAdmin, err := memberRepo.IsAdmin(ctx, roomID, secondID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	room, err := roomRepo.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, secondID, room.CreatorID)
	assert.Equal(t, creatorID, room.UpdatedBy)
}

func TestLeaveWithRemainingAdminKeepsCreator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	memberRepo := NewMemberRepository(db)
	roomRepo := NewRoomRepository(db)

	creatorID := seedUser(t, db, "alice")
	otherID := seedUser(t, db, "bob")
	roomID := seedRoom(t, db, creatorID, "general")

	other, err := memberRepo.Join(ctx, roomID, otherID, false)
	require.NoError(t, err)
	require.NoError(t, memberRepo.Leave(ctx, other.RoomUserID, otherID))

	room, err := roomRepo.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, creatorID, room.CreatorID)
}

func TestLastMemberLeavingDeletesRoom(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	memberRepo := NewMemberRepository(db)
	roomRepo := NewRoomRepository(db)

	creatorID := seedUser(t, db, "alice")
	roomID := seedRoom(t, db, creatorID, "general")

	creator, err := memberRepo.GetByRoomAndUser(ctx, roomID, creatorID)
	require.NoError(t, err)
	require.NoError(t, memberRepo.Leave(ctx, creator.RoomUserID, creatorID))

	_, err = roomRepo.GetByID(ctx, roomID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestDemoteLastAdminTriggersReelection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	memberRepo := NewMemberRepository(db)
	roomRepo := NewRoomRepository(db)

	creatorID := seedUser(t, db, "alice")
	otherID := seedUser(t, db, "bob")
	roomID := seedRoom(t, db, creatorID, "general")

	_, err := memberRepo.Join(ctx, roomID, otherID, false)
	require.NoError(t, err)

	creator, err := memberRepo.GetByRoomAndUser(ctx, roomID, creatorID)
	require.NoError(t, err)
	require.NoError(t, memberRepo.SetAdmin(ctx, creator.RoomUserID, false, creatorID))

	// 改选后房间仍然至少有一个管理员
	var adminCount int64
	require.NoError(t, db.Model(&models.RoomUser{}).
		Where("room_id = ? AND is_admin = ? AND is_deleted = ?", roomID, true, false).
		Count(&adminCount).Error)
	assert.Equal(t, int64(1), adminCount)

	room, err := roomRepo.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.NotZero(t, room.CreatorID)
}

func TestReelectionTieBreaksOnRoomUserID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	memberRepo := NewMemberRepository(db)
	roomRepo := NewRoomRepository(db)

	creatorID := seedUser(t, db, "alice")
	firstID := seedUser(t, db, "bob")
	secondID := seedUser(t, db, "carol")
	roomID := seedRoom(t, db, creatorID, "general")

	joinedAt := time.Now().Add(-time.Hour).Truncate(time.Second)
	first, err := memberRepo.Join(ctx, roomID, firstID, false)
	require.NoError(t, err)
	second, err := memberRepo.Join(ctx, roomID, secondID, false)
	require.NoError(t, err)
	for _, id := range []uint{first.RoomUserID, second.RoomUserID} {
		require.NoError(t, db.Model(&models.RoomUser{}).
			Where("room_user_id = ?", id).
			Update("joined_at", joinedAt).Error)
	}

	creator, err := memberRepo.GetByRoomAndUser(ctx, roomID, creatorID)
	require.NoError(t, err)
	require.NoError(t, memberRepo.Leave(ctx, creator.RoomUserID, creatorID))

	// joined_at 相同，room_user_id 较小的 bob 胜出
	room, err := roomRepo.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, firstID, room.CreatorID)
}

func TestListByRoomsBatches(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	memberRepo := NewMemberRepository(db)

	creatorID := seedUser(t, db, "alice")
	otherID := seedUser(t, db, "bob")
	roomA := seedRoom(t, db, creatorID, "a")
	roomB := seedRoom(t, db, creatorID, "b")
	_, err := memberRepo.Join(ctx, roomA, otherID, false)
	require.NoError(t, err)

	views, err := memberRepo.ListByRooms(ctx, []uint{roomA, roomB})
	require.NoError(t, err)
	assert.Len(t, views, 3)
	for _, v := range views {
		assert.NotEmpty(t, v.DisplayName)
	}
}

func TestRoomIDsForUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	memberRepo := NewMemberRepository(db)

	creatorID := seedUser(t, db, "alice")
	roomA := seedRoom(t, db, creatorID, "a")
	roomB := seedRoom(t, db, creatorID, "b")

	ids, err := memberRepo.RoomIDsForUser(ctx, creatorID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{roomA, roomB}, ids)
}
