package port

import (
	"context"
	"io"

	"github.com/launchdeck-platform/market-engine/internal/domain"
)

// Detection 是框架探测结论。Preset 是 provider 构建配置的细分键
// （vite / create-react-app / nextjs / static / nodejs / python）。
type Detection struct {
	Framework  domain.Framework
	Preset     string
	Confidence int // 0-100
}

// ArtifactStore 管理上传的源码制品：落盘、解压、探测、打包、清理。
// 一个 App 同一时刻只有一份制品，重新上传整体替换。
type ArtifactStore interface {
	// SaveArchive 存储上传的 ZIP，返回归档路径。
	SaveArchive(ctx context.Context, appID uint, r io.Reader) (string, error)
	// ExtractArchive 解压归档并返回源码根目录。
	// 用户把目录整个打包时，根目录解析为唯一的一层子目录。
	ExtractArchive(ctx context.Context, appID uint) (string, error)
	// Detect 探测源码目录的框架类型。
	Detect(sourceDir string) Detection
	// Package 把源码目录打成 provider 上传文件列表。
	Package(sourceDir string, report func(level domain.LogLevel, msg string)) ([]DeployFile, error)
	// Remove 删除该 App 的全部制品文件。
	Remove(ctx context.Context, appID uint) error
}
