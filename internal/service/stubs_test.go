package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

// --- in-memory repo fakes shared by the service tests ---

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*domain.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*domain.User)}
}

func (r *fakeUserRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrAlreadyExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type fakeAppRepo struct {
	mu     sync.Mutex
	apps   map[uint]*domain.App
	nextID uint
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: make(map[uint]*domain.App)}
}

func (r *fakeAppRepo) seed(app *domain.App) *domain.App {
	r.mu.Lock()
	defer r.mu.Unlock()
	if app.ID == 0 {
		r.nextID++
		app.ID = r.nextID
	} else if app.ID > r.nextID {
		r.nextID = app.ID
	}
	clone := *app
	r.apps[app.ID] = &clone
	return app
}

func (r *fakeAppRepo) Save(_ context.Context, app *domain.App) error {
	r.seed(app)
	return nil
}

func (r *fakeAppRepo) FindByID(_ context.Context, id uint) (*domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, domain.ErrAppNotFound
	}
	clone := *app
	return &clone, nil
}

func (r *fakeAppRepo) FindByDeveloper(_ context.Context, developerID uint, _, _ int) ([]*domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.App
	for _, app := range r.apps {
		if app.DeveloperID == developerID {
			clone := *app
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) FindByStatus(_ context.Context, status domain.AppStatus, _, _ int) ([]*domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.App
	for _, app := range r.apps {
		if app.Status == status {
			clone := *app
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) FindAll(_ context.Context, _, _ int) ([]*domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.App
	for _, app := range r.apps {
		clone := *app
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeAppRepo) FindDeployingBefore(_ context.Context, cutoff time.Time) ([]*domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.App
	for _, app := range r.apps {
		if app.Status == domain.AppStatusDeploying &&
			app.DeployDeadline != nil && app.DeployDeadline.Before(cutoff) {
			clone := *app
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) Update(_ context.Context, app *domain.App) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.ID]; !ok {
		return domain.ErrAppNotFound
	}
	clone := *app
	r.apps[app.ID] = &clone
	return nil
}

func (r *fakeAppRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.apps, id)
	return nil
}

type fakeSubRepo struct {
	mu     sync.Mutex
	subs   map[uint]*domain.Subscription
	nextID uint
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[uint]*domain.Subscription)}
}

func (r *fakeSubRepo) Save(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub.ID = r.nextID
	clone := *sub
	r.subs[sub.ID] = &clone
	return nil
}

func (r *fakeSubRepo) FindByID(_ context.Context, id uint) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	clone := *sub
	return &clone, nil
}

func (r *fakeSubRepo) FindActive(_ context.Context, userID, appID uint) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.UserID == userID && sub.AppID == appID && sub.Status == domain.SubscriptionActive {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (r *fakeSubRepo) FindByUser(_ context.Context, userID uint) ([]*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Subscription
	for _, sub := range r.subs {
		if sub.UserID == userID {
			clone := *sub
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSubRepo) Update(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *sub
	r.subs[sub.ID] = &clone
	return nil
}

func (r *fakeSubRepo) DeleteByApp(_ context.Context, appID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sub := range r.subs {
		if sub.AppID == appID {
			delete(r.subs, id)
		}
	}
	return nil
}

type fakeTxnRepo struct {
	mu     sync.Mutex
	txns   map[string]*domain.Transaction
	nextID uint
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{txns: make(map[string]*domain.Transaction)}
}

func (r *fakeTxnRepo) Save(_ context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txns[txn.RazorpayOrderID]; ok {
		return domain.ErrAlreadyExists
	}
	r.nextID++
	txn.ID = r.nextID
	clone := *txn
	r.txns[txn.RazorpayOrderID] = &clone
	return nil
}

func (r *fakeTxnRepo) FindByOrderID(_ context.Context, orderID string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[orderID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	clone := *txn
	return &clone, nil
}

func (r *fakeTxnRepo) Update(_ context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *txn
	r.txns[txn.RazorpayOrderID] = &clone
	return nil
}

// --- deployment pipeline fakes ---

type fakeArtifacts struct {
	detection  port.Detection
	files      []port.DeployFile
	packageErr error
}

func (f *fakeArtifacts) SaveArchive(_ context.Context, appID uint, _ io.Reader) (string, error) {
	return fmt.Sprintf("storage/uploads/%d/source.zip", appID), nil
}

func (f *fakeArtifacts) ExtractArchive(_ context.Context, appID uint) (string, error) {
	return fmt.Sprintf("storage/uploads/%d/source", appID), nil
}

func (f *fakeArtifacts) Detect(_ string) port.Detection {
	if f.detection.Framework == "" {
		return port.Detection{Framework: domain.FrameworkReact, Preset: "vite", Confidence: 90}
	}
	return f.detection
}

func (f *fakeArtifacts) Package(_ string, _ func(level domain.LogLevel, msg string)) ([]port.DeployFile, error) {
	if f.packageErr != nil {
		return nil, f.packageErr
	}
	if f.files == nil {
		return []port.DeployFile{{Path: "index.html", Data: "<html></html>"}}, nil
	}
	return f.files, nil
}

func (f *fakeArtifacts) Remove(_ context.Context, _ uint) error { return nil }

type fakeProvider struct {
	name     domain.Provider
	url      string
	err      error
	deployed int
	lastSub  *port.DeploySubmission
	deployMu sync.Mutex
}

func (f *fakeProvider) Name() domain.Provider {
	if f.name == "" {
		return domain.ProviderVercel
	}
	return f.name
}

func (f *fakeProvider) Deploy(_ context.Context, sub *port.DeploySubmission) (string, error) {
	f.deployMu.Lock()
	defer f.deployMu.Unlock()
	f.deployed++
	f.lastSub = sub
	if f.err != nil {
		return "", f.err
	}
	if f.url == "" {
		return "https://myapp.vercel.app", nil
	}
	return f.url, nil
}

type fakeVerifier struct {
	ok  bool
	err error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string, report func(level domain.LogLevel, msg string)) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.ok {
		report(domain.LogSuccess, "Verification successful: 200")
	}
	return f.ok, nil
}

type fakeGateway struct {
	orders    int
	verifyOK  bool
	lastPaise int64
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, currency, _ string) (*port.PaymentOrder, error) {
	f.orders++
	f.lastPaise = amountPaise
	return &port.PaymentOrder{
		ID:       fmt.Sprintf("order_test_%d", f.orders),
		Amount:   amountPaise,
		Currency: currency,
	}, nil
}

func (f *fakeGateway) VerifySignature(_, _, _ string) bool { return f.verifyOK }

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }
