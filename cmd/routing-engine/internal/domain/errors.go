package domain

import "errors"

var (
	// ErrNoProvidersConfigured 未配置任何提供商（致命，直接上抛）
	ErrNoProvidersConfigured = errors.New("no providers configured")

	// ErrProfileNotFound 未找到用户画像
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProviderNotFound 提供商不存在
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderUnhealthy 探测成功且确认提供商不可用（区别于探测本身失败）
	ErrProviderUnhealthy = errors.New("provider unhealthy")

	// ErrRateLimitExceeded 触发限流
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrPermissionDenied 权限不足
	ErrPermissionDenied = errors.New("permission denied")
)
