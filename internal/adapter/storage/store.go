// Package storage 是文件系统上的源码制品仓库：
// 上传的 ZIP 落在 {root}/{appID}/source.zip，解压到 {root}/{appID}/source。
package storage

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

var _ port.ArtifactStore = (*Store)(nil)

// 单文件上限。超过的文件跳过而不是中断打包，provider 对超大文件本来就会拒收。
const maxFileSize = 10 << 20

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) appDir(appID uint) string {
	return filepath.Join(s.root, fmt.Sprintf("%d", appID))
}

// SaveArchive 整体替换该 App 的既有制品后写入新归档。
func (s *Store) SaveArchive(_ context.Context, appID uint, r io.Reader) (string, error) {
	dir := s.appDir(appID)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("storage: clear app dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create app dir: %w", err)
	}

	zipPath := filepath.Join(dir, "source.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("storage: create archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("storage: write archive: %w", err)
	}
	return zipPath, nil
}

func (s *Store) ExtractArchive(_ context.Context, appID uint) (string, error) {
	dir := s.appDir(appID)
	zipPath := filepath.Join(dir, "source.zip")
	extractDir := filepath.Join(dir, "source")

	if err := os.RemoveAll(extractDir); err != nil {
		return "", fmt.Errorf("storage: clear extract dir: %w", err)
	}
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create extract dir: %w", err)
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("%w: invalid zip file", domain.ErrInvalidInput)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := domain.SafeArchivePath(f.Name); err != nil {
			return "", err
		}
		target := filepath.Join(extractDir, filepath.FromSlash(f.Name))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("storage: extract dir: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("storage: extract dir: %w", err)
		}
		if err := extractFile(f, target); err != nil {
			return "", err
		}
	}

	// 用户把整个目录打包时，解压后只有一层子目录，源码根要下钻一层。
	return resolveSourceRoot(extractDir), nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("storage: open zip entry: %w", err)
	}
	defer rc.Close()

	w, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("storage: create file: %w", err)
	}
	defer w.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("storage: extract file: %w", err)
	}
	return nil
}

// resolveSourceRoot 下钻唯一子目录，直到目录里出现文件或多个条目。
func resolveSourceRoot(dir string) string {
	for {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) != 1 || !entries[0].IsDir() {
			return dir
		}
		dir = filepath.Join(dir, entries[0].Name())
	}
}

func (s *Store) Remove(_ context.Context, appID uint) error {
	return os.RemoveAll(s.appDir(appID))
}

// 打包时跳过的目录：版本库、依赖、构建缓存。
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".next":        true,
}

// 明文传输的扩展名，其余一律 base64。
var textExtensions = map[string]bool{
	".json": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".html": true, ".htm": true, ".css": true, ".scss": true, ".sass": true,
	".less": true, ".md": true, ".txt": true, ".xml": true, ".svg": true,
	".yml": true, ".yaml": true, ".toml": true, ".ini": true, ".cfg": true,
	".conf": true,
}

// 隐藏文件默认跳过，这两个例外随包上传。
var keepHidden = map[string]bool{
	".env.example": true,
	".gitignore":   true,
}

// Package 遍历源码目录生成 provider 上传列表。
// 缺 index.html 时补一个默认页，保证静态站点部署后可访问。
func (s *Store) Package(sourceDir string, report func(level domain.LogLevel, msg string)) ([]port.DeployFile, error) {
	var files []port.DeployFile
	hasIndex := false

	err := filepath.WalkDir(sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") && !keepHidden[name] {
			return nil
		}
		// vercel.json 会与 API 下发的 projectSettings 冲突，跳过。
		if strings.EqualFold(name, "vercel.json") {
			rel, _ := filepath.Rel(sourceDir, path)
			report(domain.LogWarning, fmt.Sprintf("Skipping vercel.json to avoid conflicts: %s", rel))
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.Size() > maxFileSize {
			report(domain.LogWarning, fmt.Sprintf("Skipping large file: %s (%d bytes)", rel, info.Size()))
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			report(domain.LogWarning, fmt.Sprintf("Skipping file %s: %v", rel, err))
			return nil
		}

		files = append(files, encodeFile(rel, content))
		if rel == "index.html" || rel == "index.htm" {
			hasIndex = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: walk source dir: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no deployable files in source", domain.ErrInvalidInput)
	}

	if !hasIndex {
		report(domain.LogInfo, "Creating default index.html")
		files = append(files, port.DeployFile{Path: "index.html", Data: defaultIndexHTML})
	}

	return files, nil
}
