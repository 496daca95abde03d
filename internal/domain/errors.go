package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")

	ErrAppNotFound          = fmt.Errorf("app %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("subscription %w", ErrNotFound)
	ErrTransactionNotFound  = fmt.Errorf("transaction %w", ErrNotFound)

	// 部署前置条件与租约。
	ErrStepIncomplete   = fmt.Errorf("%w: app setup steps incomplete", ErrInvalidInput)
	ErrNoSourceArtifact = fmt.Errorf("%w: no source artifact uploaded", ErrInvalidInput)
	ErrDeploymentActive = errors.New("deployment already in progress")
	ErrAppNotPublished  = fmt.Errorf("%w: app is not published", ErrInvalidInput)

	// 支付与访问。
	ErrInvalidSignature     = fmt.Errorf("%w: payment signature mismatch", ErrInvalidInput)
	ErrSubscriptionRequired = fmt.Errorf("%w: active subscription required", ErrForbidden)
	ErrInvalidToken         = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)
