package domain

import (
	"errors"
	"testing"
)

func TestReadyToDeploy(t *testing.T) {
	app := &App{StepCompleted: StepPricing, SourcePath: "storage/uploads/1/source"}
	if err := app.ReadyToDeploy(); !errors.Is(err, ErrStepIncomplete) {
		t.Errorf("expected ErrStepIncomplete, got %v", err)
	}

	app.StepCompleted = StepUpload
	app.SourcePath = ""
	if err := app.ReadyToDeploy(); !errors.Is(err, ErrNoSourceArtifact) {
		t.Errorf("expected ErrNoSourceArtifact, got %v", err)
	}

	app.SourcePath = "storage/uploads/1/source"
	if err := app.ReadyToDeploy(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCompleteStep_Monotonic(t *testing.T) {
	app := &App{StepCompleted: StepUpload}
	app.CompleteStep(StepInfo)
	if app.StepCompleted != StepUpload {
		t.Errorf("StepCompleted = %d, regressed", app.StepCompleted)
	}
	app.CompleteStep(StepDeploy)
	if app.StepCompleted != StepDeploy {
		t.Errorf("StepCompleted = %d, want %d", app.StepCompleted, StepDeploy)
	}
}

func TestCanRedeploy(t *testing.T) {
	yes := []AppStatus{AppStatusPublished, AppStatusDeployed, AppStatusFailed}
	for _, s := range yes {
		if !s.CanRedeploy() {
			t.Errorf("%q.CanRedeploy() = false, want true", s)
		}
	}
	no := []AppStatus{AppStatusDraft, AppStatusDeploying}
	for _, s := range no {
		if s.CanRedeploy() {
			t.Errorf("%q.CanRedeploy() = true, want false", s)
		}
	}
}

func TestCanManageApp(t *testing.T) {
	app := &App{ID: 1, DeveloperID: 10}
	owner := &User{ID: 10, Role: RoleDeveloper}
	admin := &User{ID: 2, Role: RoleAdmin}
	stranger := &User{ID: 3, Role: RoleDeveloper}

	if !owner.CanManageApp(app) {
		t.Error("owner cannot manage own app")
	}
	if !admin.CanManageApp(app) {
		t.Error("admin cannot manage app")
	}
	if stranger.CanManageApp(app) {
		t.Error("other developer can manage foreign app")
	}
}

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &User{PasswordHash: hash}
	if !u.CheckPassword("correct horse battery") {
		t.Error("correct password rejected")
	}
	if u.CheckPassword("wrong") {
		t.Error("wrong password accepted")
	}
}
