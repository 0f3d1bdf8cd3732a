package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/LJTian/CompetitorTracker/internal/model"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// Dedupe 去掉同一页面中标题与链接都相同的重复条目，保持原有顺序
func Dedupe(items []model.Article) []model.Article {
	out := make([]model.Article, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, it := range items {
		id := articleID(it)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}

// articleID 以 标题+URL 作为条目的身份
func articleID(a model.Article) string {
	h := sha1.New()
	h.Write([]byte(strings.TrimSpace(a.Title)))
	h.Write([]byte{0})
	h.Write([]byte(a.URL))
	return hex.EncodeToString(h.Sum(nil))
}

// Truncate 按显示宽度截断（中文按 2 计），超出时以省略号结尾；limit<=0 不截断
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || runewidth.StringWidth(s) <= limit {
		return s
	}
	return runewidth.Truncate(s, limit, ellipsis)
}
