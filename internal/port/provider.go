package port

import (
	"context"

	"github.com/launchdeck-platform/market-engine/internal/domain"
)

// DeployFile 是提交给 provider 的单个源文件。
// 文本文件用 Data 明文传输，二进制文件 base64 编码并置 Encoding。
type DeployFile struct {
	Path     string
	Data     string
	Encoding string // "" 或 "base64"
}

// DeploySubmission 是一次 provider 部署请求的全部输入。
type DeploySubmission struct {
	ProjectName string
	Files       []DeployFile
	Framework   domain.Framework
	// BuildPreset 是框架探测器给出的细分结论（vite / create-react-app /
	// nextjs / static / nodejs / python），adapter 据此生成构建配置。
	BuildPreset string
}

// DeployProvider 把打包好的源码交给外部部署平台并返回生产 URL。
// 一次 Deploy 调用对应 provider 侧的一次完整 build + publish。
type DeployProvider interface {
	Name() domain.Provider
	Deploy(ctx context.Context, sub *DeploySubmission) (productionURL string, err error)
}

// URLVerifier 做部署后的可达性验证。
// 实现方约定：provider 侧传播期间的认证类拒绝（401/403）和超时
// 视为暂态而非失败。
type URLVerifier interface {
	Verify(ctx context.Context, url string, report func(level domain.LogLevel, msg string)) (bool, error)
}
