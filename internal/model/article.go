package model

import "time"

// Article 从列表页抽取出的一条文章
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
	// Published 页面上的原始日期文本
	Published string `json:"published,omitempty"`
	// PublishedAt 解析失败时为零值
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// HasDate 是否带有日期信息
func (a Article) HasDate() bool {
	return a.Published != "" || !a.PublishedAt.IsZero()
}

// DisplayDate 优先使用解析后的日期，其次原始文本
func (a Article) DisplayDate() string {
	if !a.PublishedAt.IsZero() {
		return a.PublishedAt.Format("2006-01-02")
	}
	return a.Published
}
