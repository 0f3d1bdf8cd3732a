package collector

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/LJTian/CompetitorTracker/internal/model"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/araddon/dateparse"
	"github.com/charmbracelet/log"
)

// Extractor 按站点的选择器规则从列表页 HTML 中抽取文章。
// 页面结构随时可能调整，这里做“尽力而为”的解析：匹配不到返回空列表而不是错误。
type Extractor struct {
	// MaxArticles 最多处理的容器数量，<=0 表示不限制
	MaxArticles int
	Logger      *log.Logger
}

func NewExtractor(maxArticles int, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{MaxArticles: maxArticles, Logger: logger}
}

type compiledLocators struct {
	container cascadia.Selector
	title     cascadia.Selector
	link      cascadia.Selector
	summary   cascadia.Selector
	date      cascadia.Selector
	linkAttr  string
	dateAttr  string
}

var anchorSelector = cascadia.MustCompile("a[href]")

// Extract 从 markup 中抽取文章，相对链接基于 baseURL 转为绝对地址
func (e *Extractor) Extract(markup []byte, baseURL string, rules model.Locators) []model.Article {
	loc, ok := e.compile(rules)
	if !ok {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		e.Logger.Warn("parse html failed", "url", baseURL, "err", err)
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	containers := doc.FindMatcher(loc.container)
	if e.MaxArticles > 0 && containers.Length() > e.MaxArticles {
		containers = containers.Slice(0, e.MaxArticles)
	}

	articles := make([]model.Article, 0, containers.Length())
	containers.Each(func(_ int, s *goquery.Selection) {
		a, ok := extractOne(s, loc, base)
		if !ok {
			return
		}
		articles = append(articles, a)
	})
	return articles
}

func (e *Extractor) compile(rules model.Locators) (compiledLocators, bool) {
	var loc compiledLocators
	container, err := cascadia.Compile(strings.TrimSpace(rules.Container))
	if err != nil {
		e.Logger.Warn("invalid container selector", "selector", rules.Container, "err", err)
		return loc, false
	}
	loc.container = container
	loc.title = e.optional("title", rules.Title)
	loc.link = e.optional("link", rules.Link)
	loc.summary = e.optional("summary", rules.Summary)
	loc.date = e.optional("date", rules.Date)

	loc.linkAttr = rules.LinkAttr
	if loc.linkAttr == "" {
		loc.linkAttr = "href"
	}
	loc.dateAttr = rules.DateAttr
	return loc, true
}

// optional 子选择器无效时视为“匹配不到”，只影响该字段
func (e *Extractor) optional(field, sel string) cascadia.Selector {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil
	}
	s, err := cascadia.Compile(sel)
	if err != nil {
		e.Logger.Warn("invalid selector, field skipped", "field", field, "selector", sel, "err", err)
		return nil
	}
	return s
}

func extractOne(s *goquery.Selection, loc compiledLocators, base *url.URL) (model.Article, bool) {
	var a model.Article

	titleSel := s
	if loc.title != nil {
		titleSel = s.FindMatcher(loc.title).First()
	}
	a.Title = normalizeSpace(titleSel.Text())

	a.URL = resolveURL(base, findLink(s, loc))

	// 标题和链接都没有的条目没有意义
	if a.Title == "" && a.URL == "" {
		return a, false
	}

	if loc.summary != nil {
		a.Summary = normalizeSpace(s.FindMatcher(loc.summary).First().Text())
	}

	if loc.date != nil {
		dateSel := s.FindMatcher(loc.date).First()
		if loc.dateAttr != "" {
			a.Published = strings.TrimSpace(dateSel.AttrOr(loc.dateAttr, ""))
		}
		if a.Published == "" {
			a.Published = normalizeSpace(dateSel.Text())
		}
		if a.Published != "" {
			if t, err := dateparse.ParseAny(a.Published); err == nil {
				a.PublishedAt = t
			}
		}
	}
	return a, true
}

// findLink 优先使用链接选择器，其次容器本身的属性，最后取容器内第一个 a[href]
func findLink(s *goquery.Selection, loc compiledLocators) string {
	target := s
	if loc.link != nil {
		target = s.FindMatcher(loc.link).First()
		if target.Length() == 0 {
			return ""
		}
	}
	if href, ok := target.Attr(loc.linkAttr); ok && strings.TrimSpace(href) != "" {
		return strings.TrimSpace(href)
	}
	if href, ok := target.FindMatcher(anchorSelector).First().Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	return ""
}

func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() && base != nil {
		ref = base.ResolveReference(ref)
	}
	// javascript:、mailto: 之类不是文章地址
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
