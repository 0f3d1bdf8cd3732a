package config

import "errors"

// 配置校验错误，调用方可以用 errors.Is 判断
var (
	// ErrConfigNotFound 配置文件不存在
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrNoSources 没有任何站点，无法产出有意义的报告
	ErrNoSources = errors.New("no sources configured")

	ErrDuplicateSource  = errors.New("duplicate source name")
	ErrInvalidSourceURL = errors.New("source url must be an absolute http(s) url")
	ErrInvalidSelector  = errors.New("invalid css selector")
	ErrInvalidTimeout   = errors.New("invalid timeout: must be positive")
	ErrInvalidRetries   = errors.New("invalid max retries: must be non-negative")
	ErrInvalidDelay     = errors.New("invalid delay: must be non-negative")
	ErrInvalidRender    = errors.New("invalid render mode: must be http or browser")
)
