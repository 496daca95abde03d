package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
	"github.com/robfig/cron/v3"
)

// Reconciler 周期性回收卡死的部署：进程崩溃或 goroutine 悬死时
// App 会停在 deploying 且 deadline 已过，由这里兜底标记为 failed。
type Reconciler struct {
	appRepo  port.AppRepository
	logStore port.LogStore
	deploys  *DeployService
	cron     *cron.Cron
	now      func() time.Time
}

func NewReconciler(appRepo port.AppRepository, logStore port.LogStore, deploys *DeployService) *Reconciler {
	return &Reconciler{
		appRepo:  appRepo,
		logStore: logStore,
		deploys:  deploys,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start 注册每分钟一次的扫描并启动调度器。
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Sweep(ctx); err != nil {
			slog.Error("deployment sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

// Sweep 扫描一轮超时的 deploying App。本进程仍持有租约的跳过，
// 留给部署 goroutine 自己收尾。
func (r *Reconciler) Sweep(ctx context.Context) error {
	apps, err := r.appRepo.FindDeployingBefore(ctx, r.now())
	if err != nil {
		return err
	}

	for _, app := range apps {
		if r.deploys.holdsLease(app.ID) {
			continue
		}

		app.Status = domain.AppStatusFailed
		app.DeployAttemptID = ""
		app.DeployDeadline = nil
		app.UpdatedAt = r.now()
		if err := r.appRepo.Update(ctx, app); err != nil {
			slog.Error("failed to reclaim stuck deployment", "app_id", app.ID, "error", err)
			continue
		}

		entry := domain.LogEntry{
			Timestamp: r.now(),
			Level:     domain.LogError,
			Message:   "Deployment failed: timed out after exceeding deadline",
			Phase:     domain.PhaseFailed,
			Percent:   domain.PhaseFailed.Percent(),
		}
		if err := r.logStore.Append(ctx, app.ID, entry); err != nil {
			slog.Warn("failed to append timeout log", "app_id", app.ID, "error", err)
		}
		if err := r.logStore.SetStatus(ctx, app.ID, domain.ChannelFailed); err != nil {
			slog.Warn("failed to set channel status", "app_id", app.ID, "error", err)
		}
		slog.Warn("reclaimed stuck deployment", "app_id", app.ID)
	}
	return nil
}
