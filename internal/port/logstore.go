package port

import (
	"context"

	"github.com/launchdeck-platform/market-engine/internal/domain"
)

// LogStore 是部署日志通道的存储后端。
// 写契约：按 App 追加，条目不改不删；Clear 仅在 redeploy 时调用。
// 读契约：List 返回完整有序列表，重复读取在无写入时字节级一致。
type LogStore interface {
	Append(ctx context.Context, appID uint, entry domain.LogEntry) error
	List(ctx context.Context, appID uint) ([]domain.LogEntry, error)
	Clear(ctx context.Context, appID uint) error

	SetStatus(ctx context.Context, appID uint, status domain.ChannelStatus) error
	// GetStatus 在无记录时返回空串而非错误。
	GetStatus(ctx context.Context, appID uint) (domain.ChannelStatus, error)
}
