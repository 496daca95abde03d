package repository

import "time"

// UserModel 是 User 的数据库持久化模型。
type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string
	IsActive     bool

	FullName            string
	Company             string
	Bio                 string `gorm:"type:text"`
	OnboardingCompleted bool

	CreatedAt time.Time
}

func (UserModel) TableName() string { return "users" }

// AppModel 是 App 的数据库持久化模型。切片字段 JSON 序列化存储。
type AppModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"index"`
	Description string `gorm:"type:text"`
	Category    string
	Price       float64
	DeveloperID uint `gorm:"index"`
	Framework   string
	Provider    string
	Status      string `gorm:"index"`

	StepCompleted int
	SourcePath    string
	ProductionURL string

	DeployAttemptID string
	DeployDeadline  *time.Time

	Images       string // JSON 序列化的 []string
	LogoURL      string
	Tags         string // JSON 序列化的 []string
	Features     string // JSON 序列化的 []string
	DemoURL      string
	SupportEmail string
	WebsiteURL   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AppModel) TableName() string { return "apps" }

// SubscriptionModel 是 Subscription 的数据库持久化模型。
type SubscriptionModel struct {
	ID            uint `gorm:"primaryKey"`
	UserID        uint `gorm:"index:idx_user_app"`
	AppID         uint `gorm:"index:idx_user_app"`
	Status        string
	RazorpaySubID string
	CreatedAt     time.Time
	CanceledAt    *time.Time
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

// TransactionModel 是 Transaction 的数据库持久化模型。
type TransactionModel struct {
	ID                uint `gorm:"primaryKey"`
	UserID            uint `gorm:"index"`
	AppID             uint `gorm:"index"`
	Amount            int64
	Currency          string
	RazorpayOrderID   string `gorm:"uniqueIndex"`
	RazorpayPaymentID string
	Status            string
	CreatedAt         time.Time
}

func (TransactionModel) TableName() string { return "transactions" }
