package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role 决定用户能看到什么、能做什么：
// developer 管理自己的 App，user 只能浏览已发布的 App 并订阅，admin 两者皆可。
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
)

// User 是平台注册用户。
type User struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"is_active"`

	FullName            string `json:"full_name,omitempty"`
	Company             string `json:"company,omitempty"`
	Bio                 string `json:"bio,omitempty"`
	OnboardingCompleted bool   `json:"onboarding_completed"`

	CreatedAt time.Time `json:"created_at"`
}

// CanManageApp 判断用户是否有权操作指定 App（所有者或管理员）。
func (u *User) CanManageApp(app *App) bool {
	return u.Role == RoleAdmin || app.DeveloperID == u.ID
}

// HashPassword 用 bcrypt 生成密码哈希。
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword 校验明文密码与存储的哈希是否匹配。
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
