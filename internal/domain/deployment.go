package domain

import "time"

// LogLevel 是部署日志条目的级别。
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// Phase 是部署的离散进度阶段，由编排器在写日志时显式打标，
// 读侧不需要解析日志文本（历史上的文本推断见 PhaseFromLogs）。
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhasePackaging Phase = "packaging"
	PhaseUploading Phase = "uploading"
	PhaseBuilding  Phase = "building"
	PhaseVerifying Phase = "verifying"
	PhasePublished Phase = "published"
	PhaseFailed    Phase = "failed"
)

// Percent 返回该阶段对应的进度百分比。
func (p Phase) Percent() int {
	switch p {
	case PhasePreparing:
		return 10
	case PhasePackaging:
		return 30
	case PhaseUploading:
		return 50
	case PhaseBuilding:
		return 70
	case PhaseVerifying:
		return 85
	case PhasePublished:
		return 100
	default:
		return 0
	}
}

// LogEntry 是单条部署日志。按 App 追加写入、只增不改，
// 仅在 redeploy 时整体清空重建。
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Phase     Phase     `json:"phase,omitempty"`
	Percent   int       `json:"percent"`
}

// ChannelStatus 是日志通道层面的部署状态（与 App.Status 独立），
// 轮询端用 is_deploying 判断是否继续拉取。
type ChannelStatus string

const (
	ChannelDeploying ChannelStatus = "deploying"
	ChannelCompleted ChannelStatus = "completed"
	ChannelFailed    ChannelStatus = "failed"
)
