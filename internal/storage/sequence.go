package storage

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// Sequencer 基于 Redis INCR 的房间消息序列号分配器
type Sequencer struct {
	rdb *redis.Client
}

func NewSequencer(rdb *redis.Client) *Sequencer {
	return &Sequencer{rdb: rdb}
}

// NextSeq 为房间生成单调递增的序列号
func (s *Sequencer) NextSeq(ctx context.Context, roomID uint) (int64, error) {
	key := fmt.Sprintf("room:%d:seq", roomID)
	result, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to generate seq for room %d: %w", roomID, err)
	}
	return result, nil
}
