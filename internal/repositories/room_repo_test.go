package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
)

func TestRoomCreateSeedsCreatorAsAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creatorID := seedUser(t, db, "alice")

	roomID := seedRoom(t, db, creatorID, "general")

	memberRepo := NewMemberRepository(db)
	member, err := memberRepo.GetByRoomAndUser(ctx, roomID, creatorID)
	require.NoError(t, err)
	assert.True(t, member.IsAdmin)
	assert.Equal(t, creatorID, member.UpdatedBy)
}

func TestRoomListExcludesDeleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)
	creatorID := seedUser(t, db, "alice")

	keepID := seedRoom(t, db, creatorID, "keep")
	dropID := seedRoom(t, db, creatorID, "drop")
	require.NoError(t, repo.SoftDelete(ctx, dropID, creatorID))

	views, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, keepID, views[0].RoomID)
	assert.Equal(t, "alice", views[0].CreatorName)
	assert.False(t, views[0].HasPassword)
}

func TestRoomListReportsPasswordFlagWithoutHash(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)
	creatorID := seedUser(t, db, "alice")

	room := models.Room{RoomName: "secret", CreatorID: creatorID, PasswordHash: "$2a$10$fakehash"}
	require.NoError(t, repo.Create(ctx, &room))

	views, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].HasPassword)
}

func TestRoomUpdateName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)
	creatorID := seedUser(t, db, "alice")
	actorID := seedUser(t, db, "bob")
	roomID := seedRoom(t, db, creatorID, "before")

	require.NoError(t, repo.UpdateName(ctx, roomID, "after", actorID))

	room, err := repo.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, "after", room.RoomName)
	assert.Equal(t, actorID, room.UpdatedBy)
}

func TestRoomUpdateNameNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRoomRepository(db)

	err := repo.UpdateName(context.Background(), 999, "x", 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestRoomSoftDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	roomRepo := NewRoomRepository(db)
	memberRepo := NewMemberRepository(db)
	inviteRepo := NewInviteRepository(db)
	messageRepo := NewMessageRepository(db)

	creatorID := seedUser(t, db, "alice")
	memberID := seedUser(t, db, "bob")
	inviteeID := seedUser(t, db, "carol")
	roomID := seedRoom(t, db, creatorID, "doomed")

	_, err := memberRepo.Join(ctx, roomID, memberID, false)
	require.NoError(t, err)
	invite := models.Invite{RoomID: roomID, InviterUserID: creatorID, InviteeUserID: inviteeID}
	require.NoError(t, inviteRepo.Create(ctx, &invite))
	msg := models.Message{RoomID: roomID, SenderID: creatorID, Content: "hello", Seq: 1}
	require.NoError(t, messageRepo.Create(ctx, &msg))

	require.NoError(t, roomRepo.SoftDelete(ctx, roomID, creatorID))

	_, err = roomRepo.GetByID(ctx, roomID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = memberRepo.GetByRoomAndUser(ctx, roomID, memberID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	pending, err := inviteRepo.ListPendingForUser(ctx, inviteeID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	messages, err := messageRepo.ListByRoom(ctx, roomID, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// 行还在，只是打了删除标记
	var raw models.Room
	require.NoError(t, db.First(&raw, "room_id = ?", roomID).Error)
	assert.True(t, raw.IsDeleted)
	assert.Equal(t, creatorID, raw.UpdatedBy)
}

func TestRoomSoftDeleteIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)
	creatorID := seedUser(t, db, "alice")
	roomID := seedRoom(t, db, creatorID, "general")

	require.NoError(t, repo.SoftDelete(ctx, roomID, creatorID))
	require.NoError(t, repo.SoftDelete(ctx, roomID, creatorID))
}

func TestRoomUpdateCreator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)
	creatorID := seedUser(t, db, "alice")
	newCreatorID := seedUser(t, db, "bob")
	roomID := seedRoom(t, db, creatorID, "general")

	require.NoError(t, repo.UpdateCreator(ctx, roomID, newCreatorID, creatorID))

	room, err := repo.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, newCreatorID, room.CreatorID)
	assert.Equal(t, creatorID, room.UpdatedBy)
}
