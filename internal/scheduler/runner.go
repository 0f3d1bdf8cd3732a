package scheduler

import (
	"context"

	"github.com/LJTian/CompetitorTracker/internal/collector"
	"github.com/LJTian/CompetitorTracker/internal/model"
	"github.com/LJTian/CompetitorTracker/internal/processor"
	"github.com/charmbracelet/log"
)

// SourceRunner 处理单个站点：抓取 -> 抽取，失败只影响该站点
type SourceRunner interface {
	Run(ctx context.Context, src model.Source) model.SourceReport
}

// PolicyFunc 返回某个站点使用的抓取策略
type PolicyFunc func(src model.Source) collector.Policy

type Runner struct {
	fetcher   collector.Fetcher
	browser   collector.Fetcher
	extractor *collector.Extractor
	policy    PolicyFunc
	logger    *log.Logger
}

// NewRunner browser 可以为 nil，此时 render: browser 的站点退回普通 HTTP 抓取
func NewRunner(fetcher, browser collector.Fetcher, extractor *collector.Extractor, policy PolicyFunc, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		fetcher:   fetcher,
		browser:   browser,
		extractor: extractor,
		policy:    policy,
		logger:    logger,
	}
}

func (r *Runner) Run(ctx context.Context, src model.Source) model.SourceReport {
	logger := r.logger.With("source", src.Name)
	report := model.SourceReport{Name: src.Name, URL: src.URL, Articles: []model.Article{}}

	logger.Debug("fetching", "url", src.URL)
	res := r.fetcherFor(src, logger).Fetch(ctx, src.URL, r.policy(src))
	if !res.OK() {
		report.Status = model.StatusError
		report.ErrorCategory = res.Err.Category()
		report.Err = res.Err
		logger.Error("fetch failed", "url", src.URL, "category", report.ErrorCategory, "attempts", res.Attempts, "err", res.Err.Err)
		return report
	}

	logger.Debug("extracting", "bytes", len(res.Body), "status", res.StatusCode)
	articles := processor.Dedupe(r.extractor.Extract(res.Body, src.URL, src.Locators))
	if len(articles) == 0 {
		report.Status = model.StatusEmpty
		logger.Warn("no articles matched", "container", src.Locators.Container)
		return report
	}

	report.Status = model.StatusOK
	report.Articles = articles
	logger.Info("source done", "articles", len(articles), "attempts", res.Attempts)
	return report
}

func (r *Runner) fetcherFor(src model.Source, logger *log.Logger) collector.Fetcher {
	if !src.UsesBrowser() {
		return r.fetcher
	}
	if r.browser == nil {
		logger.Warn("browser rendering not available, falling back to http")
		return r.fetcher
	}
	return r.browser
}
