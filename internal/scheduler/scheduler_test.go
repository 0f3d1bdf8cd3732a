package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/LJTian/CompetitorTracker/internal/collector"
	"github.com/LJTian/CompetitorTracker/internal/config"
	"github.com/LJTian/CompetitorTracker/internal/model"
	"github.com/charmbracelet/log"
)

const acmePage = `<html><body>
<div class="card"><a class="t" href="/blog/agents">Agents GA</a><p class="s">Agents are here.</p></div>
<div class="card"><a class="t" href="/blog/evals">New evals</a><p class="s">Better evals.</p></div>
</body></html>`

var testLocators = model.Locators{Container: "div.card", Title: "a.t", Link: "a.t", Summary: "p.s"}

// fakeFetcher 按 URL 返回预设结果，并记录每个 URL 的调用次数
type fakeFetcher struct {
	pages    map[string]string
	failures map[string]*collector.FetchError
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    map[string]string{},
		failures: map[string]*collector.FetchError{},
		calls:    map[string]int{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string, p collector.Policy) collector.FetchResult {
	f.calls[rawURL]++
	if fe, ok := f.failures[rawURL]; ok {
		cp := *fe
		cp.Attempts = p.MaxRetries + 1
		return collector.FetchResult{URL: rawURL, Attempts: cp.Attempts, Err: &cp}
	}
	if body, ok := f.pages[rawURL]; ok {
		return collector.FetchResult{URL: rawURL, Body: []byte(body), StatusCode: 200, Attempts: 1}
	}
	return collector.FetchResult{URL: rawURL, Attempts: 1, Err: &collector.FetchError{Kind: collector.KindHTTPStatus, StatusCode: 404, Attempts: 1}}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestRunner(f collector.Fetcher) *Runner {
	policy := func(model.Source) collector.Policy {
		return collector.Policy{Timeout: time.Second, MaxRetries: 2, RetryDelay: time.Millisecond}
	}
	return NewRunner(f, nil, collector.NewExtractor(10, quietLogger()), policy, quietLogger())
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
}

func TestEndToEndDigest(t *testing.T) {
	f := newFakeFetcher()
	f.pages["https://acme.ai/blog"] = acmePage
	f.failures["https://broken.example/blog"] = &collector.FetchError{Kind: collector.KindConnection, Err: errors.New("connection refused")}

	sources := []model.Source{
		{Name: "Acme AI", URL: "https://acme.ai/blog", Locators: testLocators},
		{Name: "Broken Co", URL: "https://broken.example/blog", Locators: testLocators},
	}

	rec := &sleepRecorder{}
	s, err := New(sources, newTestRunner(f), 2*time.Second, WithSleeper(rec.sleep), WithClock(fixedClock), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	d := s.RunOnce(context.Background())
	if len(d.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(d.Reports))
	}

	acme := d.Reports[0]
	if acme.Name != "Acme AI" || acme.Status != model.StatusOK || len(acme.Articles) != 2 {
		t.Fatalf("unexpected acme report: %+v", acme)
	}
	if acme.Articles[0].URL != "https://acme.ai/blog/agents" || acme.Articles[1].Summary != "Better evals." {
		t.Fatalf("unexpected acme articles: %+v", acme.Articles)
	}

	broken := d.Reports[1]
	if broken.Name != "Broken Co" || broken.Status != model.StatusError {
		t.Fatalf("unexpected broken report: %+v", broken)
	}
	if broken.ErrorCategory != "connection error" || len(broken.Articles) != 0 {
		t.Fatalf("error report should carry category only: %+v", broken)
	}
	var fe *collector.FetchError
	if !errors.As(broken.Err, &fe) || fe.Attempts != 3 {
		t.Fatalf("error detail should be the fetch error after 3 attempts: %v", broken.Err)
	}

	want := model.Summary{Attempted: 2, Succeeded: 1, Failed: 1, Articles: 2}
	if d.Summary != want {
		t.Fatalf("summary = %+v, want %+v", d.Summary, want)
	}
	if !d.GeneratedAt.Equal(fixedClock()) {
		t.Fatalf("generatedAt = %v", d.GeneratedAt)
	}
	if len(rec.delays) != 1 || rec.delays[0] != 2*time.Second {
		t.Fatalf("expected one politeness delay between two sources, got %v", rec.delays)
	}
}

func TestRunOnceProducesOneReportPerSourceInOrder(t *testing.T) {
	f := newFakeFetcher()
	var sources []model.Source
	for i := 0; i < 7; i++ {
		u := fmt.Sprintf("https://site%d.example/blog", i)
		switch i % 3 {
		case 0:
			f.pages[u] = acmePage
		case 1:
			f.pages[u] = "<html><body><p>redesigned</p></body></html>"
		}
		sources = append(sources, model.Source{Name: fmt.Sprintf("Site %d", i), URL: u, Locators: testLocators})
	}

	rec := &sleepRecorder{}
	s, err := New(sources, newTestRunner(f), time.Second, WithSleeper(rec.sleep), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	d := s.RunOnce(context.Background())

	if len(d.Reports) != len(sources) {
		t.Fatalf("got %d reports, want %d", len(d.Reports), len(sources))
	}
	for i, r := range d.Reports {
		if r.Name != sources[i].Name {
			t.Fatalf("report %d name = %q, want %q", i, r.Name, sources[i].Name)
		}
		want := []model.Status{model.StatusOK, model.StatusEmpty, model.StatusError}[i%3]
		if r.Status != want {
			t.Errorf("report %d status = %s, want %s", i, r.Status, want)
		}
	}
	if len(rec.delays) != len(sources)-1 {
		t.Fatalf("delays = %d, want %d", len(rec.delays), len(sources)-1)
	}
	if d.Summary.Empty != 2 || d.Summary.Failed != 2 || d.Summary.Succeeded != 5 {
		t.Fatalf("unexpected summary %+v", d.Summary)
	}
}

func TestPermanentFailureNeverOK(t *testing.T) {
	f := newFakeFetcher()
	f.failures["https://x.example"] = &collector.FetchError{Kind: collector.KindHTTPStatus, StatusCode: 403}
	r := newTestRunner(f)

	for i := 0; i < 3; i++ {
		rep := r.Run(context.Background(), model.Source{Name: "X", URL: "https://x.example", Locators: testLocators})
		if rep.Status != model.StatusError || rep.ErrorCategory != "HTTP 403" {
			t.Fatalf("expected ERROR/HTTP 403, got %+v", rep)
		}
	}
}

func TestRunnerUsesBrowserFetcherWhenConfigured(t *testing.T) {
	plain := newFakeFetcher()
	browser := newFakeFetcher()
	browser.pages["https://spa.example"] = acmePage

	policy := func(model.Source) collector.Policy { return collector.Policy{Timeout: time.Second} }
	r := NewRunner(plain, browser, collector.NewExtractor(5, quietLogger()), policy, quietLogger())

	rep := r.Run(context.Background(), model.Source{Name: "SPA", URL: "https://spa.example", Locators: testLocators, Render: model.RenderBrowser})
	if rep.Status != model.StatusOK || browser.calls["https://spa.example"] != 1 || plain.calls["https://spa.example"] != 0 {
		t.Fatalf("browser fetcher not used: %+v plain=%v browser=%v", rep, plain.calls, browser.calls)
	}

	// 没有浏览器时退回 HTTP
	r = NewRunner(plain, nil, collector.NewExtractor(5, quietLogger()), policy, quietLogger())
	_ = r.Run(context.Background(), model.Source{Name: "SPA", URL: "https://spa.example", Locators: testLocators, Render: model.RenderBrowser})
	if plain.calls["https://spa.example"] != 1 {
		t.Fatalf("expected http fallback, calls=%v", plain.calls)
	}
}

func TestRunOnceIsDeterministic(t *testing.T) {
	build := func() *model.Digest {
		f := newFakeFetcher()
		f.pages["https://acme.ai/blog"] = acmePage
		sources := []model.Source{
			{Name: "Acme AI", URL: "https://acme.ai/blog", Locators: testLocators},
			{Name: "Gone", URL: "https://gone.example", Locators: testLocators},
		}
		rec := &sleepRecorder{}
		s, err := New(sources, newTestRunner(f), time.Second, WithSleeper(rec.sleep), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("New error: %v", err)
		}
		return s.RunOnce(context.Background())
	}

	a, b := build(), build()
	a.GeneratedAt, b.GeneratedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("digests differ:\n%+v\n%+v", a, b)
	}
}

func TestRunOnceCanceledStillReportsEverySource(t *testing.T) {
	f := newFakeFetcher()
	f.pages["https://a.example"] = acmePage
	f.pages["https://b.example"] = acmePage
	sources := []model.Source{
		{Name: "A", URL: "https://a.example", Locators: testLocators},
		{Name: "B", URL: "https://b.example", Locators: testLocators},
		{Name: "C", URL: "https://c.example", Locators: testLocators},
	}

	ctx, cancel := context.WithCancel(context.Background())
	sleeper := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	s, err := New(sources, newTestRunner(f), time.Second, WithSleeper(sleeper), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	d := s.RunOnce(ctx)
	if len(d.Reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(d.Reports))
	}
	if d.Reports[0].Status != model.StatusOK {
		t.Fatalf("first source should finish before cancel: %+v", d.Reports[0])
	}
	for _, r := range d.Reports[1:] {
		if r.Status != model.StatusError || r.ErrorCategory != "canceled" {
			t.Fatalf("expected canceled report, got %+v", r)
		}
	}
	if f.calls["https://b.example"] != 0 || f.calls["https://c.example"] != 0 {
		t.Fatalf("canceled sources must not be fetched: %v", f.calls)
	}
}

func TestNewRejectsEmptySources(t *testing.T) {
	if _, err := New(nil, newTestRunner(newFakeFetcher()), time.Second); !errors.Is(err, config.ErrNoSources) {
		t.Fatalf("New(nil) err = %v, want ErrNoSources", err)
	}
}
