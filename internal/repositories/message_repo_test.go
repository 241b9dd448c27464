package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/models"
)

func seedMessage(t *testing.T, db *gorm.DB, roomID, senderID uint, content string, seq int64) *models.Message {
	t.Helper()
	repo := NewMessageRepository(db)
	msg := &models.Message{RoomID: roomID, SenderID: senderID, Content: content, Seq: seq}
	require.NoError(t, repo.Create(context.Background(), msg))
	return msg
}

func TestMessageListByRoomOrdersBySeqDesc(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)

	senderID := seedUser(t, db, "alice")
	roomID := seedRoom(t, db, senderID, "general")

	seedMessage(t, db, roomID, senderID, "first", 1)
	seedMessage(t, db, roomID, senderID, "second", 2)
	seedMessage(t, db, roomID, senderID, "third", 3)

	messages, err := repo.ListByRoom(ctx, roomID, 2, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "third", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, "alice", messages[0].Sender.DisplayName)

	older, err := repo.ListByRoom(ctx, roomID, 2, 2)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "first", older[0].Content)
}

func TestMessageNextSeq(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)

	senderID := seedUser(t, db, "alice")
	roomID := seedRoom(t, db, senderID, "general")

	seq, err := repo.NextSeq(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seedMessage(t, db, roomID, senderID, "hello", seq)

	seq, err = repo.NextSeq(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestMessageLatestByRooms(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)

	senderID := seedUser(t, db, "alice")
	roomA := seedRoom(t, db, senderID, "a")
	roomB := seedRoom(t, db, senderID, "b")
	roomC := seedRoom(t, db, senderID, "c")

	seedMessage(t, db, roomA, senderID, "old", 1)
	seedMessage(t, db, roomA, senderID, "new", 2)
	seedMessage(t, db, roomB, senderID, "only", 1)

	previews, err := repo.LatestByRooms(ctx, []uint{roomA, roomB, roomC})
	require.NoError(t, err)
	assert.Equal(t, "new", previews[roomA])
	assert.Equal(t, "only", previews[roomB])
	_, ok := previews[roomC]
	assert.False(t, ok, "room without messages has no preview entry")
}
