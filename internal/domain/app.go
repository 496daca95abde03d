package domain

import "time"

// AppStatus 是 App 的部署生命周期状态。
// 状态流转：draft → deploying → (published | failed)；
// redeploy 是唯一允许回退的边：published/deployed/failed → deploying。
type AppStatus string

const (
	AppStatusDraft     AppStatus = "draft"
	AppStatusDeploying AppStatus = "deploying"
	AppStatusDeployed  AppStatus = "deployed"
	AppStatusPublished AppStatus = "published"
	AppStatusFailed    AppStatus = "failed"
)

// CanRedeploy 判断当前状态是否允许重新部署。
// draft 状态的 App 走首次部署路径，不算 redeploy。
func (s AppStatus) CanRedeploy() bool {
	return s == AppStatusPublished || s == AppStatusDeployed || s == AppStatusFailed
}

// Framework 是上传代码的框架类型，由上传管线自动识别。
type Framework string

const (
	FrameworkReact   Framework = "react"
	FrameworkNode    Framework = "node"
	FrameworkPython  Framework = "python"
	FrameworkUnknown Framework = "unknown"
)

// Provider 是外部部署平台标识。
type Provider string

const (
	ProviderVercel Provider = "vercel"
	ProviderRender Provider = "render"
	ProviderNone   Provider = "none"
)

// Category 是市场内的 App 分类。
type Category string

const (
	CategoryProductivity  Category = "productivity"
	CategoryBusiness      Category = "business"
	CategoryEducation     Category = "education"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategorySocial        Category = "social"
	CategoryFinance       Category = "finance"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"
)

// App 创建分四步：基本信息 → 定价 → 上传源码 → 部署。
// StepCompleted 记录已完成的最后一步，只增不减。
const (
	StepInfo    = 1
	StepPricing = 2
	StepUpload  = 3
	StepDeploy  = 4
)

// App 是市场的核心管理单元：开发者上传的一个 Web 应用。
type App struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Price       float64   `json:"price"` // 月订阅价
	DeveloperID uint      `json:"developer_id"`
	Framework   Framework `json:"framework"`
	Provider    Provider  `json:"deployment_provider"`
	Status      AppStatus `json:"status"`

	StepCompleted int    `json:"step_completed"`
	SourcePath    string `json:"source_path,omitempty"`    // 解压后的源码目录
	ProductionURL string `json:"production_url,omitempty"` // 上线后的访问地址

	// 并发部署租约与超时回收（见 DeployService / Reconciler）。
	DeployAttemptID string     `json:"deploy_attempt_id,omitempty"`
	DeployDeadline  *time.Time `json:"deploy_deadline,omitempty"`

	// 市场展示元数据。
	Images       []string `json:"images,omitempty"`
	LogoURL      string   `json:"logo_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Features     []string `json:"features,omitempty"`
	DemoURL      string   `json:"demo_url,omitempty"`
	SupportEmail string   `json:"support_email,omitempty"`
	WebsiteURL   string   `json:"website_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReadyToDeploy 校验部署前置条件：源码已上传且步骤已走到上传之后。
// 任何外部调用、任何日志写入都必须在这之后发生。
func (a *App) ReadyToDeploy() error {
	if a.StepCompleted < StepUpload {
		return ErrStepIncomplete
	}
	if a.SourcePath == "" {
		return ErrNoSourceArtifact
	}
	return nil
}

// CompleteStep 抬高步骤进度，保证单调。
func (a *App) CompleteStep(step int) {
	if step > a.StepCompleted {
		a.StepCompleted = step
	}
}
