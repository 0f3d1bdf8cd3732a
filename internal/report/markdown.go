package report

import (
	"bytes"
	"fmt"

	"github.com/LJTian/CompetitorTracker/internal/model"
	"github.com/LJTian/CompetitorTracker/internal/processor"
	"github.com/nao1215/markdown"
)

const (
	Title = "AI Competitive Intelligence Report"

	// DefaultSummaryWidth 报告中摘要的最大显示宽度
	DefaultSummaryWidth = 200
)

// Markdown 把 Digest 渲染成 Markdown 文档。
// 输出只依赖 Digest 的内容：同样的 Digest 一定得到同样的文本。
type Markdown struct {
	SummaryWidth int
}

func NewMarkdown(summaryWidth int) *Markdown {
	if summaryWidth <= 0 {
		summaryWidth = DefaultSummaryWidth
	}
	return &Markdown{SummaryWidth: summaryWidth}
}

func (m *Markdown) Render(d *model.Digest) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	m.writeHeader(md, d)
	for _, r := range d.Reports {
		m.writeSource(md, r)
	}

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("report: build markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *Markdown) writeHeader(md *markdown.Markdown, d *model.Digest) {
	s := d.Summary
	md.H1(Title)
	md.PlainText("")
	md.BulletList(
		markdown.Bold("Date")+": "+d.Date(),
		markdown.Bold("Sources")+fmt.Sprintf(": %d attempted, %d succeeded, %d empty, %d failed", s.Attempted, s.Succeeded, s.Empty, s.Failed),
		markdown.Bold("Articles Found")+fmt.Sprintf(": %d", s.Articles),
	)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("This report contains the latest updates from key AI companies and competitors.")
	md.PlainText("")
}

func (m *Markdown) writeSource(md *markdown.Markdown, r model.SourceReport) {
	switch r.Status {
	case model.StatusOK:
		md.H2(fmt.Sprintf("%s (%s, %d articles)", r.Name, r.Status, len(r.Articles)))
		md.PlainText("")
		for _, a := range r.Articles {
			m.writeArticle(md, a)
		}
	case model.StatusEmpty:
		md.H2(fmt.Sprintf("%s (%s)", r.Name, r.Status))
		md.PlainText("")
		md.PlainText("No articles matched the configured selectors.")
		md.PlainText("")
	default:
		category := r.ErrorCategory
		if category == "" {
			category = "unknown error"
		}
		md.H2(fmt.Sprintf("%s (%s)", r.Name, model.StatusError))
		md.PlainText("")
		md.PlainText(markdown.Bold("Error") + ": " + category)
		md.PlainText("")
	}
}

func (m *Markdown) writeArticle(md *markdown.Markdown, a model.Article) {
	title := a.Title
	if title == "" {
		title = a.URL
	}
	md.H3(title)

	var lines []string
	if a.URL != "" {
		lines = append(lines, markdown.Bold("Link")+": "+markdown.Link(a.URL, a.URL))
	}
	if a.HasDate() {
		lines = append(lines, markdown.Bold("Published")+": "+a.DisplayDate())
	}
	if a.Summary != "" {
		lines = append(lines, markdown.Bold("Summary")+": "+processor.Truncate(a.Summary, m.SummaryWidth))
	}
	if len(lines) > 0 {
		md.BulletList(lines...)
	}
	md.PlainText("")
}
