package model

import "time"

// Status 单个站点本轮的结果
type Status string

const (
	StatusOK    Status = "OK"
	StatusEmpty Status = "EMPTY"
	StatusError Status = "ERROR"
)

// SourceReport 单个站点一次运行的结果，创建后不再修改
type SourceReport struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Status   Status    `json:"status"`
	Articles []Article `json:"articles"`
	// ErrorCategory 仅 ERROR 时存在，用于报告展示（例如 "timeout"、"HTTP 404"）
	ErrorCategory string `json:"errorCategory,omitempty"`
	Err           error  `json:"-"`
}

// Summary 汇总计数
type Summary struct {
	Attempted int `json:"attempted"`
	// Succeeded 抓取成功的站点数（OK + EMPTY）
	Succeeded int `json:"succeeded"`
	Empty     int `json:"empty"`
	Failed    int `json:"failed"`
	Articles  int `json:"articles"`
}

// Digest 一次运行的汇总报告，顺序与配置中的站点顺序一致
type Digest struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Reports     []SourceReport `json:"reports"`
	Summary     Summary        `json:"summary"`
}

// NewDigest 由已完成的站点结果构建 Digest 并计算汇总
func NewDigest(generatedAt time.Time, reports []SourceReport) *Digest {
	return &Digest{
		GeneratedAt: generatedAt,
		Reports:     reports,
		Summary:     Summarize(reports),
	}
}

// Summarize 根据站点结果计算汇总计数
func Summarize(reports []SourceReport) Summary {
	s := Summary{Attempted: len(reports)}
	for _, r := range reports {
		switch r.Status {
		case StatusOK:
			s.Succeeded++
			s.Articles += len(r.Articles)
		case StatusEmpty:
			s.Succeeded++
			s.Empty++
		default:
			s.Failed++
		}
	}
	return s
}

// Date 报告日期，格式 YYYY-MM-DD，用作文件名
func (d *Digest) Date() string {
	return d.GeneratedAt.Format("2006-01-02")
}
