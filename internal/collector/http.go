package collector

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"
)

const httpMaxBodySize = 4 << 20 // 4MB，列表页足够，防止超大 HTML

// HTTPFetcher 使用 colly 获取页面原始 HTML
type HTTPFetcher struct {
	UserAgent   string
	MaxBodySize int
	Sleep       Sleeper
	Logger      *log.Logger
}

func NewHTTPFetcher(userAgent string, logger *log.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		UserAgent:   userAgent,
		MaxBodySize: httpMaxBodySize,
		Sleep:       Sleep,
		Logger:      logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, p Policy) FetchResult {
	opts := []colly.CollectorOption{
		// 重试需要重复访问同一个 URL
		colly.AllowURLRevisit(),
		colly.MaxBodySize(f.MaxBodySize),
		// 所有响应都交给 OnResponse，是否成功由状态码是否为 2xx 决定
		colly.ParseHTTPErrorResponse(),
	}
	if f.UserAgent != "" {
		opts = append(opts, colly.UserAgent(f.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(p.Timeout)
	c.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	return withRetries(ctx, rawURL, p, f.Sleep, f.Logger, func(ctx context.Context) ([]byte, int, error) {
		body, status = nil, 0
		err := c.Visit(rawURL)
		return body, status, err
	})
}

// contextTransport 把调用方的 ctx 绑定到每个请求上，取消时进行中的请求立即中断
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
