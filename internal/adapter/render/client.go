// Package render 封装 Render API 的部署触发。
// Render 不接受内联文件上传，只能对已有 service 触发 deploy，
// 所以这条路径要求 service 预先在 Render 侧创建、名称与项目名一致。
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

var _ port.DeployProvider = (*Client)(nil)

const defaultBaseURL = "https://api.render.com"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) Name() domain.Provider { return domain.ProviderRender }

type serviceItem struct {
	Service struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		ServiceDetails struct {
			URL string `json:"url"`
		} `json:"serviceDetails"`
	} `json:"service"`
}

// Deploy 按项目名解析 Render service，触发一次 deploy 并返回其 URL。
func (c *Client) Deploy(ctx context.Context, sub *port.DeploySubmission) (string, error) {
	svcID, svcURL, err := c.findService(ctx, sub.ProjectName)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/services/%s/deploys", c.baseURL, svcID), nil)
	if err != nil {
		return "", fmt.Errorf("render: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("render: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render: trigger deploy: unexpected status %d", resp.StatusCode)
	}

	return svcURL, nil
}

func (c *Client) findService(ctx context.Context, name string) (id, svcURL string, err error) {
	params := url.Values{"name": {name}, "limit": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/services?"+params.Encode(), nil)
	if err != nil {
		return "", "", fmt.Errorf("render: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("render: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("render: list services: unexpected status %d", resp.StatusCode)
	}

	var items []serviceItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return "", "", fmt.Errorf("render: decode response: %w", err)
	}
	if len(items) == 0 {
		return "", "", fmt.Errorf("render: no service named %q, create it in the Render dashboard first", name)
	}

	svc := items[0].Service
	return svc.ID, svc.ServiceDetails.URL, nil
}
