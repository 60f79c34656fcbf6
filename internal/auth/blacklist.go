package auth

import (
	"context"
	"time"
)

// TokenBlacklist stores revoked token ids until the token would have expired anyway.
type TokenBlacklist interface {
	// Add 将 jti 加入黑名单，到 Token 原始过期时间后自动移除。
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
