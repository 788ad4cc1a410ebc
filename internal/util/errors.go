package util

import "errors"

// Call-outcome sentinels. A model call either fails to reach the provider
// (ErrProviderUnavailable) or reaches it and comes back with output failing
// the caller's shape check (ErrUnusableOutput); callers wrap one of the two
// so the split survives as a typed outcome. The quota and rate sentinels
// mark retryable provider rejections.
var (
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	ErrUnusableOutput      = errors.New("llm output failed shape check")
	ErrQuotaExhausted      = errors.New("provider quota exhausted")
	ErrRateLimited         = errors.New("provider rate limited")
)
