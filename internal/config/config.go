package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/LJTian/CompetitorTracker/internal/collector"
	"github.com/LJTian/CompetitorTracker/internal/model"
	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config.yaml"
	DefaultUserAgent  = "Mozilla/5.0 (compatible; CompetitorTracker/1.0)"
	DefaultOutputDir  = "reports"
)

type Config struct {
	Sources []model.Source `yaml:"sources"`

	Timeout            time.Duration `yaml:"timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryDelay         time.Duration `yaml:"retry_delay"`
	ExponentialBackoff bool          `yaml:"exponential_backoff"`
	// SourceDelay 相邻两个站点之间的礼貌等待
	SourceDelay time.Duration `yaml:"delay_between_requests"`

	MaxArticles      int    `yaml:"max_articles"`
	SummaryMaxLength int    `yaml:"summary_max_length"`
	UserAgent        string `yaml:"user_agent"`

	OutputDir string `yaml:"output_dir"`
	LogLevel  string `yaml:"log_level"`
	AppPort   string `yaml:"app_port"`
}

// Default 返回内置默认配置：未找到配置文件时使用
func Default() *Config {
	return &Config{
		Sources: []model.Source{
			{
				Name: "OpenAI",
				URL:  "https://openai.com/blog",
				Locators: model.Locators{
					Container: "h3 a",
					Date:      ".published-date",
					Summary:   ".excerpt",
				},
			},
			{
				Name: "Google AI",
				URL:  "https://ai.googleblog.com/",
				Locators: model.Locators{
					Container: ".post",
					Title:     ".post-title a",
					Link:      ".post-title a",
					Date:      ".published",
					Summary:   ".post-body",
				},
			},
		},
		Timeout:          10 * time.Second,
		MaxRetries:       2,
		RetryDelay:       time.Second,
		SourceDelay:      2 * time.Second,
		MaxArticles:      5,
		SummaryMaxLength: 200,
		UserAgent:        DefaultUserAgent,
		OutputDir:        DefaultOutputDir,
		LogLevel:         "info",
		AppPort:          "9000",
	}
}

// Load 读取 YAML 配置；path 为空时依次使用 TRACKER_CONFIG 与默认文件名。
// 文件不存在时返回默认配置，并返回 ErrConfigNotFound 方便调用方打印提示。
// 环境变量会覆盖文件中的同名设置。
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv("TRACKER_CONFIG", DefaultConfigFile)
	}

	cfg, err := LoadFile(path)
	if errors.Is(err, ErrConfigNotFound) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, err
}

// LoadFile 只读取文件，未设置的全局项使用默认值
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	secondsToDuration(&root)

	cfg := Default()
	cfg.Sources = nil
	if len(root.Content) == 0 {
		return cfg, nil
	}
	if err := root.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// durationKeys 取值为时长的配置项
var durationKeys = map[string]bool{
	"timeout":                true,
	"retry_delay":            true,
	"delay_between_requests": true,
}

// secondsToDuration 时长项写成纯数字时按秒处理（例如 delay_between_requests: 2），
// 其余写法仍按 Go 时长语法解析（"500ms"、"10s"）
func secondsToDuration(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if durationKeys[key.Value] && val.Kind == yaml.ScalarNode && (val.Tag == "!!int" || val.Tag == "!!float") {
				val.Value += "s"
				val.Tag = "!!str"
				val.Style = 0
			}
		}
	}
	for _, c := range n.Content {
		secondsToDuration(c)
	}
}

func (c *Config) applyEnv() {
	c.OutputDir = getEnv("TRACKER_OUTPUT_DIR", c.OutputDir)
	c.LogLevel = getEnv("TRACKER_LOG_LEVEL", c.LogLevel)
	c.AppPort = getEnv("APP_PORT", c.AppPort)
}

// Validate 校验配置，返回第一个发现的问题
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries < 0 {
		return ErrInvalidRetries
	}
	if c.RetryDelay < 0 || c.SourceDelay < 0 {
		return ErrInvalidDelay
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		name := strings.TrimSpace(s.Name)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateSource, name)
		}
		seen[name] = struct{}{}

		if err := validateSource(s); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
	}
	return nil
}

func validateSource(s model.Source) error {
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSourceURL
	}
	if s.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if s.Render != "" && s.Render != model.RenderHTTP && s.Render != model.RenderBrowser {
		return ErrInvalidRender
	}
	if strings.TrimSpace(s.Locators.Container) == "" {
		return fmt.Errorf("%w: container selector is required", ErrInvalidSelector)
	}

	selectors := []struct{ field, sel string }{
		{"container", s.Locators.Container},
		{"title", s.Locators.Title},
		{"link", s.Locators.Link},
		{"summary", s.Locators.Summary},
		{"date", s.Locators.Date},
	}
	for _, f := range selectors {
		if f.sel == "" {
			continue
		}
		if _, err := cascadia.Compile(f.sel); err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidSelector, f.field, f.sel, err)
		}
	}
	return nil
}

// Policy 计算某个站点的抓取策略：站点级超时优先
func (c *Config) Policy(s model.Source) collector.Policy {
	timeout := c.Timeout
	if s.Timeout > 0 {
		timeout = s.Timeout
	}
	return collector.Policy{
		Timeout:    timeout,
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay,
		Backoff:    c.ExponentialBackoff,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
