package scheduler

import (
	"context"
	"time"

	"github.com/LJTian/CompetitorTracker/internal/collector"
	"github.com/LJTian/CompetitorTracker/internal/config"
	"github.com/LJTian/CompetitorTracker/internal/model"
	"github.com/charmbracelet/log"
)

// Scheduler 按配置顺序逐个处理站点，站点之间保持礼貌等待，最终汇总成 Digest。
// 站点串行处理，不做并发。
type Scheduler struct {
	sources []model.Source
	runner  SourceRunner
	delay   time.Duration
	sleep   collector.Sleeper
	now     func() time.Time
	logger  *log.Logger
}

type Option func(*Scheduler)

// WithSleeper 替换站点之间的等待实现，测试中用来跳过真实等待
func WithSleeper(s collector.Sleeper) Option {
	return func(sc *Scheduler) { sc.sleep = s }
}

// WithClock 替换记录运行时间用的时钟
func WithClock(now func() time.Time) Option {
	return func(sc *Scheduler) { sc.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(sc *Scheduler) { sc.logger = l }
}

// New 没有任何站点时返回 config.ErrNoSources
func New(sources []model.Source, runner SourceRunner, delay time.Duration, opts ...Option) (*Scheduler, error) {
	if len(sources) == 0 {
		return nil, config.ErrNoSources
	}

	s := &Scheduler{
		sources: append([]model.Source(nil), sources...),
		runner:  runner,
		delay:   delay,
		sleep:   collector.Sleep,
		now:     config.Now,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunOnce 执行一轮采集并返回 Digest；每个站点都会产出一条结果。
// ctx 被取消后，剩余站点不再抓取，直接记为 canceled。
func (s *Scheduler) RunOnce(ctx context.Context) *model.Digest {
	startedAt := s.now()
	s.logger.Info("start collect job", "sources", len(s.sources))

	reports := make([]model.SourceReport, 0, len(s.sources))
	for i, src := range s.sources {
		if i > 0 && ctx.Err() == nil {
			if err := s.sleep(ctx, s.delay); err != nil {
				s.logger.Warn("politeness delay interrupted", "err", err)
			}
		}

		if err := ctx.Err(); err != nil {
			reports = append(reports, canceledReport(src, err))
			continue
		}
		reports = append(reports, s.runner.Run(ctx, src))
	}

	digest := model.NewDigest(startedAt, reports)
	s.logger.Info("collect job done",
		"attempted", digest.Summary.Attempted,
		"succeeded", digest.Summary.Succeeded,
		"failed", digest.Summary.Failed,
		"articles", digest.Summary.Articles,
	)
	return digest
}

func canceledReport(src model.Source, err error) model.SourceReport {
	fe := &collector.FetchError{Kind: collector.KindCanceled, Err: err}
	return model.SourceReport{
		Name:          src.Name,
		URL:           src.URL,
		Status:        model.StatusError,
		Articles:      []model.Article{},
		ErrorCategory: fe.Category(),
		Err:           fe,
	}
}
