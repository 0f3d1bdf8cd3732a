package model

import "time"

// Locators 描述一个站点的抽取规则：一个文章容器选择器，加上容器内的各字段子选择器。
// Title/Link 为空时取容器本身；Summary/Date 为空表示不抽取该字段。
type Locators struct {
	Container string `yaml:"container" json:"container"`
	Title     string `yaml:"title" json:"title"`
	Link      string `yaml:"link" json:"link"`
	// LinkAttr 默认 href
	LinkAttr string `yaml:"link_attr" json:"linkAttr"`
	Summary  string `yaml:"summary" json:"summary"`
	Date     string `yaml:"date" json:"date"`
	// DateAttr 非空时从属性读取日期，例如 <time datetime="...">
	DateAttr string `yaml:"date_attr" json:"dateAttr"`
}

// 渲染方式
const (
	RenderHTTP    = "http"
	RenderBrowser = "browser"
)

// Source 一个被监控的竞品站点
type Source struct {
	Name     string        `yaml:"name" json:"name"`
	URL      string        `yaml:"url" json:"url"`
	Locators Locators      `yaml:"selectors" json:"selectors"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"` // 0 表示使用全局超时
	Render   string        `yaml:"render" json:"render"`   // http(默认) / browser
}

// UsesBrowser 该站点是否需要 headless 浏览器渲染后再抽取
func (s Source) UsesBrowser() bool {
	return s.Render == RenderBrowser
}
