package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (p *packageJSON) has(dep string) bool {
	if _, ok := p.Dependencies[dep]; ok {
		return true
	}
	_, ok := p.DevDependencies[dep]
	return ok
}

// Detect 探测源码目录的框架。优先级：
// package.json（next / react-scripts / vite / 裸 react / node）→
// Python 项目文件 → 静态 HTML → unknown。
func (s *Store) Detect(sourceDir string) port.Detection {
	if pkgPath := filepath.Join(sourceDir, "package.json"); fileExists(pkgPath) {
		return detectFromPackageJSON(pkgPath)
	}

	if fileExists(filepath.Join(sourceDir, "requirements.txt")) ||
		fileExists(filepath.Join(sourceDir, "pyproject.toml")) {
		return port.Detection{Framework: domain.FrameworkPython, Preset: "python", Confidence: 90}
	}

	if fileExists(filepath.Join(sourceDir, "index.html")) ||
		fileExists(filepath.Join(sourceDir, "index.htm")) {
		return port.Detection{Framework: domain.FrameworkReact, Preset: "static", Confidence: 70}
	}

	return port.Detection{Framework: domain.FrameworkUnknown, Preset: "static", Confidence: 30}
}

func detectFromPackageJSON(path string) port.Detection {
	data, err := os.ReadFile(path)
	if err != nil {
		return port.Detection{Framework: domain.FrameworkNode, Preset: "nodejs", Confidence: 40}
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		// 文件在但解析不了：当 Node 处理，部署时由 provider 兜底报错。
		return port.Detection{Framework: domain.FrameworkNode, Preset: "nodejs", Confidence: 40}
	}

	switch {
	case pkg.has("next"):
		return port.Detection{Framework: domain.FrameworkNode, Preset: "nextjs", Confidence: 95}
	case pkg.has("react") && pkg.has("react-scripts"):
		return port.Detection{Framework: domain.FrameworkReact, Preset: "create-react-app", Confidence: 90}
	case pkg.has("react") && (pkg.has("vite") || pkg.has("@vitejs/plugin-react")):
		return port.Detection{Framework: domain.FrameworkReact, Preset: "vite", Confidence: 90}
	case pkg.has("react"):
		return port.Detection{Framework: domain.FrameworkReact, Preset: "static", Confidence: 75}
	default:
		return port.Detection{Framework: domain.FrameworkNode, Preset: "nodejs", Confidence: 70}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
