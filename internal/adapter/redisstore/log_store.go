// Package redisstore 提供 redis 后端的部署日志通道存储，
// 多实例部署时让所有实例看到同一份日志流。
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

var _ port.LogStore = (*LogStore)(nil)

// 日志键 7 天过期：部署日志只服务于进行中与刚结束的尝试，
// redeploy 本来就会整体重建。
const logTTL = 7 * 24 * time.Hour

type LogStore struct {
	rdb *redis.Client
}

// NewLogStore 从 REDIS_URL 形式的地址建立连接。
func NewLogStore(redisURL string) (*LogStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse url: %w", err)
	}
	return &LogStore{rdb: redis.NewClient(opt)}, nil
}

func logKey(appID uint) string    { return fmt.Sprintf("deploy:logs:%d", appID) }
func statusKey(appID uint) string { return fmt.Sprintf("deploy:status:%d", appID) }

func (s *LogStore) Append(ctx context.Context, appID uint, entry domain.LogEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, logKey(appID), b)
	pipe.Expire(ctx, logKey(appID), logTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *LogStore) List(ctx context.Context, appID uint) ([]domain.LogEntry, error) {
	raw, err := s.rdb.LRange(ctx, logKey(appID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LogEntry, 0, len(raw))
	for _, item := range raw {
		var e domain.LogEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *LogStore) Clear(ctx context.Context, appID uint) error {
	return s.rdb.Del(ctx, logKey(appID), statusKey(appID)).Err()
}

func (s *LogStore) SetStatus(ctx context.Context, appID uint, status domain.ChannelStatus) error {
	return s.rdb.Set(ctx, statusKey(appID), string(status), logTTL).Err()
}

func (s *LogStore) GetStatus(ctx context.Context, appID uint) (domain.ChannelStatus, error) {
	v, err := s.rdb.Get(ctx, statusKey(appID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return domain.ChannelStatus(v), nil
}
