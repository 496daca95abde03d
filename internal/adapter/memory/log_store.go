// Package memory 提供进程内的部署日志通道存储，作为默认后端。
// 进程重启会丢失日志；需要跨实例共享时用 redisstore。
package memory

import (
	"context"
	"sync"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

var _ port.LogStore = (*LogStore)(nil)

type LogStore struct {
	mu     sync.RWMutex
	logs   map[uint][]domain.LogEntry
	status map[uint]domain.ChannelStatus
}

func NewLogStore() *LogStore {
	return &LogStore{
		logs:   make(map[uint][]domain.LogEntry),
		status: make(map[uint]domain.ChannelStatus),
	}
}

func (s *LogStore) Append(_ context.Context, appID uint, entry domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[appID] = append(s.logs[appID], entry)
	return nil
}

func (s *LogStore) List(_ context.Context, appID uint) ([]domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.logs[appID]
	// 返回副本，调用方拿到的列表不随后续 Append 变化。
	out := make([]domain.LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *LogStore) Clear(_ context.Context, appID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, appID)
	delete(s.status, appID)
	return nil
}

func (s *LogStore) SetStatus(_ context.Context, appID uint, status domain.ChannelStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[appID] = status
	return nil
}

func (s *LogStore) GetStatus(_ context.Context, appID uint) (domain.ChannelStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[appID], nil
}
