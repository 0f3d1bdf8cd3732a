package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// attemptFunc 执行一次请求，返回正文、状态码（没有响应时为 0）和错误
type attemptFunc func(ctx context.Context) ([]byte, int, error)

// withRetries 按策略执行请求：首次 + 最多 MaxRetries 次重试，4xx 等永久失败立即返回
func withRetries(ctx context.Context, rawURL string, p Policy, sleep Sleeper, logger *log.Logger, do attemptFunc) FetchResult {
	if sleep == nil {
		sleep = Sleep
	}
	if logger == nil {
		logger = log.Default()
	}

	if err := validateRequest(rawURL, p); err != nil {
		return FetchResult{URL: rawURL, Err: &FetchError{Kind: KindInvalidRequest, Err: err}}
	}

	var last *FetchError
	attempts := 0
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(p, attempt)
			logger.Debug("backing off before retry", "url", rawURL, "attempt", attempt, "delay", delay)
			if err := sleep(ctx, delay); err != nil {
				last = &FetchError{Kind: KindCanceled, Err: err}
				break
			}
		}
		if err := ctx.Err(); err != nil {
			last = &FetchError{Kind: KindCanceled, Err: err}
			break
		}

		attempts++
		body, status, err := do(ctx)
		if err == nil && status >= 200 && status < 300 {
			return FetchResult{URL: rawURL, Body: body, StatusCode: status, Attempts: attempts}
		}
		if err == nil {
			err = fmt.Errorf("unexpected status %d", status)
		}

		last = classify(ctx, status, err)
		logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempts, "kind", last.Kind, "err", err)
		if !last.Transient() {
			break
		}
	}

	last.Attempts = attempts
	return FetchResult{URL: rawURL, StatusCode: last.StatusCode, Attempts: attempts, Err: last}
}

func retryDelay(p Policy, attempt int) time.Duration {
	if !p.Backoff || attempt <= 1 {
		return p.RetryDelay
	}
	return p.RetryDelay * time.Duration(1<<uint(attempt-1))
}
