package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/launchdeck-platform/market-engine/internal/adapter/memory"
	"github.com/launchdeck-platform/market-engine/internal/domain"
)

func appFixture() (*AppService, *fakeAppRepo, *fakeSubRepo) {
	appRepo := newFakeAppRepo()
	subRepo := newFakeSubRepo()
	svc := NewAppService(appRepo, subRepo, &fakeArtifacts{}, memory.NewLogStore())
	return svc, appRepo, subRepo
}

func TestCreateApp_Success(t *testing.T) {
	svc, _, _ := appFixture()
	app, err := svc.CreateApp(context.Background(), developer(), CreateAppRequest{
		Name:  "Invoice Tool",
		Price: 299,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Status != domain.AppStatusDraft {
		t.Errorf("status = %q, want draft", app.Status)
	}
	if app.StepCompleted != domain.StepInfo {
		t.Errorf("StepCompleted = %d, want %d", app.StepCompleted, domain.StepInfo)
	}
	if app.Category != domain.CategoryOther {
		t.Errorf("category = %q, want default other", app.Category)
	}
}

func TestCreateApp_PlainUserForbidden(t *testing.T) {
	svc, _, _ := appFixture()
	_, err := svc.CreateApp(context.Background(), subscriber(), CreateAppRequest{Name: "Nope"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateApp_NegativePrice(t *testing.T) {
	svc, _, _ := appFixture()
	_, err := svc.CreateApp(context.Background(), developer(), CreateAppRequest{
		Name:  "Cheap",
		Price: -1,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetApp_UnpublishedHiddenFromOthers(t *testing.T) {
	svc, appRepo, _ := appFixture()
	app := appRepo.seed(readyApp(1))

	if _, err := svc.GetApp(context.Background(), subscriber(), app.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for outsider, got %v", err)
	}
	if _, err := svc.GetApp(context.Background(), developer(), app.ID); err != nil {
		t.Fatalf("owner should see own draft: %v", err)
	}
}

func TestListApps_RoleFiltering(t *testing.T) {
	svc, appRepo, _ := appFixture()
	mine := readyApp(1)
	appRepo.seed(mine)
	published := publishedApp(100)
	published.DeveloperID = 2
	appRepo.seed(published)

	devApps, err := svc.ListApps(context.Background(), developer(), 0, 50)
	if err != nil {
		t.Fatalf("developer list: %v", err)
	}
	if len(devApps) != 1 || devApps[0].ID != mine.ID {
		t.Errorf("developer sees %d apps, want only own", len(devApps))
	}

	userApps, err := svc.ListApps(context.Background(), subscriber(), 0, 50)
	if err != nil {
		t.Fatalf("user list: %v", err)
	}
	if len(userApps) != 1 || userApps[0].ID != published.ID {
		t.Errorf("user sees %d apps, want only published", len(userApps))
	}

	admin := &domain.User{ID: 99, Role: domain.RoleAdmin}
	adminApps, err := svc.ListApps(context.Background(), admin, 0, 50)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminApps) != 2 {
		t.Errorf("admin sees %d apps, want 2", len(adminApps))
	}
}

func TestUpdateApp_PartialUpdate(t *testing.T) {
	svc, appRepo, _ := appFixture()
	app := appRepo.seed(readyApp(1))

	desc := "Now with charts"
	updated, err := svc.UpdateApp(context.Background(), developer(), app.ID, UpdateAppRequest{
		Description: &desc,
		Tags:        []string{"charts", "reports"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Description != desc {
		t.Errorf("Description = %q", updated.Description)
	}
	if updated.Name != app.Name {
		t.Errorf("Name changed to %q, fields not in request must stay", updated.Name)
	}
	if len(updated.Tags) != 2 {
		t.Errorf("Tags = %v", updated.Tags)
	}
}

func TestUpdatePricing_AdvancesStep(t *testing.T) {
	svc, appRepo, _ := appFixture()
	app := readyApp(1)
	app.StepCompleted = domain.StepInfo
	appRepo.seed(app)

	price := 199.0
	updated, err := svc.UpdatePricing(context.Background(), developer(), app.ID, PricingRequest{Price: &price})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.StepCompleted != domain.StepPricing {
		t.Errorf("StepCompleted = %d, want %d", updated.StepCompleted, domain.StepPricing)
	}
}

func TestUpdateStep_Monotonic(t *testing.T) {
	svc, appRepo, _ := appFixture()
	app := readyApp(1) // StepUpload
	appRepo.seed(app)

	updated, err := svc.UpdateStep(context.Background(), developer(), app.ID, domain.StepInfo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.StepCompleted != domain.StepUpload {
		t.Errorf("StepCompleted = %d, steps must not go backwards", updated.StepCompleted)
	}
}

func TestUpdateStep_OutOfRange(t *testing.T) {
	svc, appRepo, _ := appFixture()
	app := appRepo.seed(readyApp(1))

	if _, err := svc.UpdateStep(context.Background(), developer(), app.ID, 9); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadSource_SetsFrameworkAndStep(t *testing.T) {
	svc, appRepo, _ := appFixture()
	app := readyApp(1)
	app.StepCompleted = domain.StepPricing
	app.SourcePath = ""
	appRepo.seed(app)

	result, err := svc.UploadSource(context.Background(), developer(), app.ID, strings.NewReader("zip-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Framework != domain.FrameworkReact {
		t.Errorf("Framework = %q, want react from detection", result.Framework)
	}
	if result.StepCompleted != domain.StepUpload {
		t.Errorf("StepCompleted = %d, want %d", result.StepCompleted, domain.StepUpload)
	}

	got, _ := appRepo.FindByID(context.Background(), app.ID)
	if got.SourcePath == "" {
		t.Error("SourcePath not persisted")
	}
}

func TestDeleteApp_CascadesSubscriptions(t *testing.T) {
	svc, appRepo, subRepo := appFixture()
	app := appRepo.seed(readyApp(1))
	_ = subRepo.Save(context.Background(), &domain.Subscription{
		UserID: 7, AppID: app.ID, Status: domain.SubscriptionActive,
	})

	if err := svc.DeleteApp(context.Background(), developer(), app.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := appRepo.FindByID(context.Background(), app.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("app still present after delete")
	}
	if _, err := subRepo.FindActive(context.Background(), 7, app.ID); err == nil {
		t.Error("subscription survived app deletion")
	}
}
