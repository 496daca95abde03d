// Package vercel 封装 Vercel v13 deployments API：
// 源文件内联上传，一次请求触发 build + publish。
package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

var _ port.DeployProvider = (*Client)(nil)

const defaultBaseURL = "https://api.vercel.com"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) Name() domain.Provider { return domain.ProviderVercel }

// deploymentRequest 是 v13/deployments 的请求体（只建模用到的字段）。
type deploymentRequest struct {
	Name            string           `json:"name"`
	Files           []deploymentFile `json:"files"`
	Target          string           `json:"target"`
	ProjectSettings *projectSettings `json:"projectSettings,omitempty"`
}

type deploymentFile struct {
	File     string `json:"file"`
	Data     string `json:"data"`
	Encoding string `json:"encoding,omitempty"`
}

// projectSettings 的 framework 字段允许显式 null（纯静态站点），
// 所以用指针而不是 omitempty。
type projectSettings struct {
	Framework       *string `json:"framework"`
	BuildCommand    string  `json:"buildCommand,omitempty"`
	OutputDirectory string  `json:"outputDirectory,omitempty"`
	InstallCommand  string  `json:"installCommand,omitempty"`
}

type deploymentResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Deploy 提交一次部署并返回生产 URL（https:// 前缀已拼好）。
func (c *Client) Deploy(ctx context.Context, sub *port.DeploySubmission) (string, error) {
	files := make([]deploymentFile, 0, len(sub.Files))
	for _, f := range sub.Files {
		files = append(files, deploymentFile{File: f.Path, Data: f.Data, Encoding: f.Encoding})
	}

	reqBody := deploymentRequest{
		Name:            sub.ProjectName,
		Files:           files,
		Target:          "production",
		ProjectSettings: settingsForPreset(sub.BuildPreset),
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("vercel: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v13/deployments", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("vercel: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vercel: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp errorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("vercel: deployment failed: %d %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("vercel: unexpected status %d", resp.StatusCode)
	}

	var result deploymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("vercel: decode response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("vercel: deployment %s created but no url returned", result.ID)
	}

	return "https://" + result.URL, nil
}

// settingsForPreset 把框架探测结论翻译成 Vercel 构建配置。
// 所有分支都给出 projectSettings，避免 API 侧的缺省报错。
func settingsForPreset(preset string) *projectSettings {
	str := func(s string) *string { return &s }

	switch preset {
	case "vite":
		return &projectSettings{
			Framework:       str("vite"),
			BuildCommand:    "vite build",
			OutputDirectory: "dist",
			InstallCommand:  "npm install",
		}
	case "create-react-app":
		return &projectSettings{
			Framework:       str("create-react-app"),
			BuildCommand:    "npm run build",
			OutputDirectory: "build",
			InstallCommand:  "npm install",
		}
	case "nextjs":
		return &projectSettings{
			Framework:       str("nextjs"),
			BuildCommand:    "npm run build",
			OutputDirectory: ".next",
			InstallCommand:  "npm install",
		}
	case "nodejs":
		return &projectSettings{
			Framework:      str("nodejs"),
			BuildCommand:   "npm run build",
			InstallCommand: "npm install",
		}
	case "python":
		return &projectSettings{
			Framework:      str("python"),
			BuildCommand:   "pip install -r requirements.txt",
			InstallCommand: "pip install -r requirements.txt",
		}
	default: // 纯静态
		return &projectSettings{
			Framework:       nil,
			BuildCommand:    "npm run build",
			OutputDirectory: "dist",
			InstallCommand:  "npm install",
		}
	}
}
