package collector

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher 通过 headless Chrome 渲染页面后返回 DOM，适用于前端渲染的博客列表。
// 渲染结果拿不到真实的 HTTP 状态码，成功时记为 200。
type BrowserFetcher struct {
	UserAgent string
	Sleep     Sleeper
	Logger    *log.Logger
}

func NewBrowserFetcher(userAgent string, logger *log.Logger) *BrowserFetcher {
	return &BrowserFetcher{UserAgent: userAgent, Sleep: Sleep, Logger: logger}
}

func (b *BrowserFetcher) Fetch(ctx context.Context, rawURL string, p Policy) FetchResult {
	if err := validateRequest(rawURL, p); err != nil {
		return FetchResult{URL: rawURL, Err: &FetchError{Kind: KindInvalidRequest, Err: err}}
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if b.UserAgent != "" {
		opts = append(opts[:len(opts):len(opts)], chromedp.UserAgent(b.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// 每次抓取复用同一个浏览器实例，重试只重新导航
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	return withRetries(ctx, rawURL, p, b.Sleep, b.Logger, func(ctx context.Context) ([]byte, int, error) {
		attemptCtx, cancel := context.WithTimeout(browserCtx, p.Timeout)
		defer cancel()

		var html string
		err := chromedp.Run(attemptCtx,
			chromedp.Navigate(rawURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			if attemptCtx.Err() == context.DeadlineExceeded {
				return nil, 0, context.DeadlineExceeded
			}
			return nil, 0, err
		}
		return []byte(html), http.StatusOK, nil
	})
}
