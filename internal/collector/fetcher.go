package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Policy 单次抓取的超时与重试策略
type Policy struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// Backoff 为 true 时每次重试的等待时间翻倍
	Backoff bool
}

// ErrorKind 抓取失败的类别
type ErrorKind int

const (
	KindInvalidRequest ErrorKind = iota + 1
	KindTimeout
	KindConnection
	KindHTTPStatus
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindHTTPStatus:
		return "http_status"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// FetchError 重试耗尽（或不可重试）后的失败结果
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Category()
	}
	return fmt.Sprintf("%s after %d attempt(s): %v", e.Category(), e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Category 报告中展示的错误类别，不包含内部错误细节
func (e *FetchError) Category() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case KindConnection:
		return "connection error"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return e.Kind.String()
	}
}

// Transient 是否值得重试：超时、连接错误与 5xx
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case KindTimeout, KindConnection:
		return true
	case KindHTTPStatus:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// FetchResult 一次抓取的结果：Err 为 nil 时 Body 有效
type FetchResult struct {
	URL        string
	Body       []byte
	StatusCode int
	Attempts   int
	Err        *FetchError
}

func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Fetcher 抽象一次带重试的页面获取，不关心页面语义
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, p Policy) FetchResult
}

// Sleeper 可替换的等待函数，测试中注入以避免真实等待
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep 真实等待，ctx 取消时提前返回
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func validateRequest(rawURL string, p Policy) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not an absolute http(s) url: %q", rawURL)
	}
	if p.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if p.MaxRetries < 0 {
		return errors.New("max retries must be non-negative")
	}
	return nil
}

// classify 把一次尝试的错误归类；status 为 0 表示没有拿到 HTTP 响应
func classify(ctx context.Context, status int, err error) *FetchError {
	if ctx.Err() != nil {
		return &FetchError{Kind: KindCanceled, Err: ctx.Err()}
	}
	if status != 0 {
		return &FetchError{Kind: KindHTTPStatus, StatusCode: status, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: KindConnection, Err: err}
}
