package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

// DeployService 是部署编排器：驱动单个 App 走完
// prepare → package → upload → provider deploy → verify → publish。
// 每个 App 同一时刻最多一次活跃部署（进程内租约 + 落库的 attempt id），
// 失败不自动重试，由用户显式 redeploy。
type DeployService struct {
	appRepo   port.AppRepository
	artifacts port.ArtifactStore
	logStore  port.LogStore
	providers map[domain.Provider]port.DeployProvider
	verifier  port.URLVerifier

	deployTimeout time.Duration
	now           func() time.Time

	mu       sync.Mutex
	inflight map[uint]bool
}

func NewDeployService(
	appRepo port.AppRepository,
	artifacts port.ArtifactStore,
	logStore port.LogStore,
	providers []port.DeployProvider,
	verifier port.URLVerifier,
	deployTimeout time.Duration,
) *DeployService {
	byName := make(map[domain.Provider]port.DeployProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &DeployService{
		appRepo:       appRepo,
		artifacts:     artifacts,
		logStore:      logStore,
		providers:     byName,
		verifier:      verifier,
		deployTimeout: deployTimeout,
		now:           time.Now,
		inflight:      make(map[uint]bool),
	}
}

type DeployAccepted struct {
	Message  string          `json:"message"`
	Provider domain.Provider `json:"provider"`
	AppID    uint            `json:"app_id"`
	Status   string          `json:"status"`
}

// Deploy 触发一次部署。前置校验全部通过后才接受请求，
// 真正的编排在后台 goroutine 里执行，调用方靠轮询日志观察进度。
func (s *DeployService) Deploy(ctx context.Context, user *domain.User, appID uint, provider domain.Provider) (*DeployAccepted, error) {
	app, err := s.begin(ctx, user, appID, provider, false)
	if err != nil {
		return nil, err
	}

	go s.runDeployment(app.ID, provider, false)

	return &DeployAccepted{
		Message:  "Deployment started",
		Provider: provider,
		AppID:    app.ID,
		Status:   string(domain.AppStatusDeploying),
	}, nil
}

// Redeploy 复用已上传的制品重新部署，沿用上一次的 provider。
func (s *DeployService) Redeploy(ctx context.Context, user *domain.User, appID uint) (*DeployAccepted, error) {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	provider := app.Provider
	if provider == "" || provider == domain.ProviderNone {
		provider = domain.ProviderVercel
	}

	if _, err := s.begin(ctx, user, appID, provider, true); err != nil {
		return nil, err
	}

	go s.runDeployment(appID, provider, true)

	return &DeployAccepted{
		Message:  "Redeployment started",
		Provider: provider,
		AppID:    appID,
		Status:   string(domain.AppStatusDeploying),
	}, nil
}

// begin 做全部前置校验并获取租约。被拒的请求不写任何日志、
// 不碰任何外部系统。
func (s *DeployService) begin(ctx context.Context, user *domain.User, appID uint, provider domain.Provider, redeploy bool) (*domain.App, error) {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !user.CanManageApp(app) {
		return nil, domain.ErrForbidden
	}
	if _, ok := s.providers[provider]; !ok {
		return nil, fmt.Errorf("%w: provider %q not supported", domain.ErrInvalidInput, provider)
	}
	if err := app.ReadyToDeploy(); err != nil {
		return nil, err
	}
	if redeploy && !app.Status.CanRedeploy() && app.Status != domain.AppStatusDraft {
		return nil, domain.ErrDeploymentActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[app.ID] {
		return nil, domain.ErrDeploymentActive
	}
	// 进程内没有租约但库里还是 deploying 且未超时：另一个实例在跑。
	if app.Status == domain.AppStatusDeploying &&
		app.DeployDeadline != nil && app.DeployDeadline.After(s.now()) {
		return nil, domain.ErrDeploymentActive
	}

	deadline := s.now().Add(s.deployTimeout)
	app.Status = domain.AppStatusDeploying
	app.Provider = provider
	app.DeployAttemptID = uuid.New().String()
	app.DeployDeadline = &deadline
	app.CompleteStep(domain.StepDeploy)
	app.UpdatedAt = s.now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.inflight[app.ID] = true
	return app, nil
}

// holdsLease 报告本进程是否正在部署该 App，供超时回收器避让。
func (s *DeployService) holdsLease(appID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[appID]
}

func (s *DeployService) releaseLease(appID uint) {
	s.mu.Lock()
	delete(s.inflight, appID)
	s.mu.Unlock()
}

// appendLog 写一条带阶段标签的日志。日志失败只告警，不中断部署。
func (s *DeployService) appendLog(ctx context.Context, appID uint, level domain.LogLevel, phase domain.Phase, msg string) {
	entry := domain.LogEntry{
		Timestamp: s.now(),
		Level:     level,
		Message:   msg,
		Phase:     phase,
		Percent:   phase.Percent(),
	}
	if err := s.logStore.Append(ctx, appID, entry); err != nil {
		slog.Warn("failed to append deployment log", "app_id", appID, "error", err)
	}
	slog.Info("deploy", "app_id", appID, "level", level, "msg", msg)
}

// runDeployment 是后台编排主流程。调用方（HTTP 请求）可能早已离开，
// 所以不复用请求 context，超时由 deployTimeout 约束。
func (s *DeployService) runDeployment(appID uint, providerName domain.Provider, redeploy bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.deployTimeout)
	defer cancel()
	// 租约先于一切挂接释放：App 行拿不到也不能把租约留在进程里。
	defer s.releaseLease(appID)

	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		slog.Error("deployment aborted, app vanished", "app_id", appID, "error", err)
		return
	}
	defer func() {
		app.DeployAttemptID = ""
		app.DeployDeadline = nil
		if err := s.appRepo.Update(context.Background(), app); err != nil {
			slog.Error("failed to persist final app state", "app_id", appID, "error", err)
		}
	}()

	// 每次尝试重建日志通道：旧日志整体清空。
	if err := s.logStore.Clear(ctx, appID); err != nil {
		slog.Warn("failed to clear old logs", "app_id", appID, "error", err)
	}
	if err := s.logStore.SetStatus(ctx, appID, domain.ChannelDeploying); err != nil {
		slog.Warn("failed to set channel status", "app_id", appID, "error", err)
	}

	if redeploy {
		s.appendLog(ctx, appID, domain.LogInfo, domain.PhasePreparing,
			fmt.Sprintf("Initiating redeploy for app ID: %d", appID))
	} else {
		s.appendLog(ctx, appID, domain.LogInfo, domain.PhasePreparing,
			fmt.Sprintf("Initiating deployment for app ID: %d", appID))
	}

	url, verified, err := s.executePipeline(ctx, app, providerName)
	if err != nil {
		app.Status = domain.AppStatusFailed
		app.ProductionURL = ""
		s.appendLog(ctx, appID, domain.LogError, domain.PhaseFailed,
			fmt.Sprintf("Deployment failed: %v", err))
		if err := s.logStore.SetStatus(ctx, appID, domain.ChannelFailed); err != nil {
			slog.Warn("failed to set channel status", "app_id", appID, "error", err)
		}
		return
	}

	app.ProductionURL = url
	if verified {
		app.Status = domain.AppStatusPublished
		s.appendLog(ctx, appID, domain.LogSuccess, domain.PhasePublished, "App verified and published!")
	} else {
		app.Status = domain.AppStatusDeployed
		s.appendLog(ctx, appID, domain.LogWarning, domain.PhaseVerifying,
			"App deployed but failed verification, try accessing it directly")
	}
	if err := s.logStore.SetStatus(ctx, appID, domain.ChannelCompleted); err != nil {
		slog.Warn("failed to set channel status", "app_id", appID, "error", err)
	}
}

// executePipeline 执行打包、上传、验证三段。返回生产 URL 与验证结论。
// 任何一步出错都终止本次尝试（验证暂态除外，见 verifier）。
func (s *DeployService) executePipeline(ctx context.Context, app *domain.App, providerName domain.Provider) (string, bool, error) {
	appID := app.ID
	provider := s.providers[providerName]
	label := providerLabel(providerName)

	s.appendLog(ctx, appID, domain.LogInfo, domain.PhasePreparing, "Preparing files for deployment...")

	detection := s.artifacts.Detect(app.SourcePath)
	s.appendLog(ctx, appID, domain.LogInfo, domain.PhasePreparing,
		fmt.Sprintf("Framework detection complete: %s (%s, confidence %d%%)",
			detection.Framework, detection.Preset, detection.Confidence))
	if detection.Confidence > 70 {
		app.Framework = detection.Framework
	}

	s.appendLog(ctx, appID, domain.LogInfo, domain.PhasePackaging, "Packaging source files...")
	files, err := s.artifacts.Package(app.SourcePath, func(level domain.LogLevel, msg string) {
		s.appendLog(ctx, appID, level, domain.PhasePackaging, msg)
	})
	if err != nil {
		return "", false, err
	}
	s.appendLog(ctx, appID, domain.LogSuccess, domain.PhasePackaging,
		fmt.Sprintf("Prepared %d files for deployment", len(files)))

	s.appendLog(ctx, appID, domain.LogInfo, domain.PhaseUploading,
		fmt.Sprintf("Uploading %d files to %s...", len(files), label))

	url, err := provider.Deploy(ctx, &port.DeploySubmission{
		ProjectName: fmt.Sprintf("app-%d-%s", appID, domain.SanitizeProjectName(app.Name)),
		Files:       files,
		Framework:   detection.Framework,
		BuildPreset: detection.Preset,
	})
	if err != nil {
		return "", false, err
	}
	s.appendLog(ctx, appID, domain.LogInfo, domain.PhaseBuilding,
		fmt.Sprintf("%s API response: deployment accepted", label))
	s.appendLog(ctx, appID, domain.LogSuccess, domain.PhaseBuilding,
		fmt.Sprintf("Live URL: %s", url))

	s.appendLog(ctx, appID, domain.LogInfo, domain.PhaseVerifying, "Starting verification process...")
	verified, err := s.verifier.Verify(ctx, url, func(level domain.LogLevel, msg string) {
		s.appendLog(ctx, appID, level, domain.PhaseVerifying, msg)
	})
	if err != nil {
		// 验证环节自身出错不推翻已成功的部署。
		s.appendLog(ctx, appID, domain.LogWarning, domain.PhaseVerifying,
			fmt.Sprintf("Verification error: %v", err))
		return url, false, nil
	}

	return url, verified, nil
}

type DeploymentLogs struct {
	AppID       uint              `json:"app_id"`
	Logs        []domain.LogEntry `json:"logs"`
	Status      string            `json:"status"`
	IsDeploying bool              `json:"is_deploying"`
	Phase       domain.Phase      `json:"phase"`
	Percent     int               `json:"percent"`
}

// GetLogs 返回日志通道全量快照，附带推导出的当前阶段。
// 前端轮询此接口渲染进度条。
func (s *DeployService) GetLogs(ctx context.Context, user *domain.User, appID uint) (*DeploymentLogs, error) {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !user.CanManageApp(app) {
		return nil, domain.ErrForbidden
	}

	logs, err := s.logStore.List(ctx, appID)
	if err != nil {
		return nil, err
	}
	status, err := s.logStore.GetStatus(ctx, appID)
	if err != nil {
		return nil, err
	}

	phase, percent := domain.PhaseFromLogs(logs)
	return &DeploymentLogs{
		AppID:       appID,
		Logs:        logs,
		Status:      string(status),
		IsDeploying: status == domain.ChannelDeploying,
		Phase:       phase,
		Percent:     percent,
	}, nil
}

// HandleWebhook 处理 provider 回调：构建结束后 provider 主动推送
// 部署结果，省掉一轮轮询。失败回调直接把 App 标记为 failed。
func (s *DeployService) HandleWebhook(ctx context.Context, appID uint, event string, liveURL string) error {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return err
	}

	switch event {
	case "deployed":
		if liveURL == "" {
			return fmt.Errorf("%w: missing live url", domain.ErrInvalidInput)
		}
		if err := s.acceptDeployed(ctx, app, liveURL); err != nil {
			return err
		}
		go s.verifyAndPublish(appID, liveURL)
		return nil

	case "failed":
		app.Status = domain.AppStatusFailed
		app.UpdatedAt = s.now()
		if err := s.appRepo.Update(ctx, app); err != nil {
			return err
		}
		s.appendLog(ctx, appID, domain.LogError, domain.PhaseFailed, "Deployment failed: provider reported build failure")
		if err := s.logStore.SetStatus(ctx, appID, domain.ChannelFailed); err != nil {
			slog.Warn("failed to set channel status", "app_id", appID, "error", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown webhook event %q", domain.ErrInvalidInput, event)
	}
}

// acceptDeployed 记录 provider 推送的结果，并把日志通道置回部署中，
// 补跑验证期间轮询方看到的 is_deploying 保持为真。
func (s *DeployService) acceptDeployed(ctx context.Context, app *domain.App, liveURL string) error {
	app.ProductionURL = liveURL
	app.Status = domain.AppStatusDeployed
	app.UpdatedAt = s.now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return err
	}
	if err := s.logStore.SetStatus(ctx, app.ID, domain.ChannelDeploying); err != nil {
		slog.Warn("failed to set channel status", "app_id", app.ID, "error", err)
	}
	s.appendLog(ctx, app.ID, domain.LogSuccess, domain.PhaseBuilding,
		fmt.Sprintf("%s API response: build finished, live at %s", providerLabel(app.Provider), liveURL))
	return nil
}

// verifyAndPublish 对 webhook 送来的 URL 补跑验证段。
func (s *DeployService) verifyAndPublish(appID uint, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.deployTimeout)
	defer cancel()

	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		slog.Error("webhook verification aborted", "app_id", appID, "error", err)
		if err := s.logStore.SetStatus(ctx, appID, domain.ChannelCompleted); err != nil {
			slog.Warn("failed to set channel status", "app_id", appID, "error", err)
		}
		return
	}

	s.appendLog(ctx, appID, domain.LogInfo, domain.PhaseVerifying, "Starting verification process...")
	verified, err := s.verifier.Verify(ctx, url, func(level domain.LogLevel, msg string) {
		s.appendLog(ctx, appID, level, domain.PhaseVerifying, msg)
	})
	if err != nil || !verified {
		s.appendLog(ctx, appID, domain.LogWarning, domain.PhaseVerifying,
			"App deployed but failed verification, try accessing it directly")
	} else {
		app.Status = domain.AppStatusPublished
		s.appendLog(ctx, appID, domain.LogSuccess, domain.PhasePublished, "App verified and published!")
	}
	app.DeployAttemptID = ""
	app.DeployDeadline = nil
	app.UpdatedAt = s.now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		slog.Error("failed to persist app after webhook verification", "app_id", appID, "error", err)
	}
	if err := s.logStore.SetStatus(ctx, appID, domain.ChannelCompleted); err != nil {
		slog.Warn("failed to set channel status", "app_id", appID, "error", err)
	}
}

func providerLabel(p domain.Provider) string {
	switch p {
	case domain.ProviderVercel:
		return "Vercel"
	case domain.ProviderRender:
		return "Render"
	default:
		return string(p)
	}
}
