package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail 做宽松的邮箱格式校验，真实性由验证邮件保证。
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: %q is not a valid email", ErrInvalidInput, email)
	}
	return nil
}

// ValidateAppName 校验 App 名称非空且长度合理。
func ValidateAppName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: app name is required", ErrInvalidInput)
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: app name too long", ErrInvalidInput)
	}
	return nil
}

// ValidatePrice 校验订阅价格为非负数。
func ValidatePrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

var slugStripRegex = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeProjectName 把 App 名称压成 provider 可接受的项目名：
// 小写字母、数字、连字符，最长 50 字符，空结果回退为 saas-app。
func SanitizeProjectName(name string) string {
	s := strings.ToLower(name)
	s = slugStripRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.Trim(s[:50], "-")
	}
	if s == "" {
		s = "saas-app"
	}
	return s
}

// SafeArchivePath 校验 ZIP 内的文件路径，防止解压穿越到目标目录之外。
func SafeArchivePath(name string) error {
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: archive entry %q escapes extraction dir", ErrInvalidInput, name)
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("%w: archive entry %q is absolute", ErrInvalidInput, name)
	}
	return nil
}
