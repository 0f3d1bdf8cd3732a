package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "ai_competitive_report_"
	fileSuffix = ".md"
	dateLayout = "2006-01-02"
)

// ErrReportNotFound 指定日期没有报告
var ErrReportNotFound = errors.New("report not found")

// ErrInvalidDate 日期不是 YYYY-MM-DD
var ErrInvalidDate = errors.New("invalid report date")

// Store 按日期保存渲染好的报告，每天一个文件，同一天重复运行直接覆盖
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path 返回某个日期报告的文件路径
func (s *Store) Path(date string) string {
	return filepath.Join(s.Dir, filePrefix+date+fileSuffix)
}

// Save 写入报告，返回文件路径
func (s *Store) Save(date string, content []byte) (string, error) {
	if err := validateDate(date); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", s.Dir, err)
	}

	path := s.Path(date)
	// 先写临时文件再改名
	tmp, err := os.CreateTemp(s.Dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("storage: chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("storage: rename report: %w", err)
	}
	return path, nil
}

// Load 读取某个日期的报告
func (s *Store) Load(date string) ([]byte, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("storage: read report %s: %w", date, err)
	}
	return data, nil
}

// ListDates 返回已有报告的日期（倒序），limit<=0 或过大时取 31
func (s *Store) ListDates(limit int) ([]string, error) {
	if limit <= 0 || limit > 365 {
		limit = 31
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("storage: list %s: %w", s.Dir, err)
	}

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if validateDate(date) != nil {
			continue
		}
		dates = append(dates, date)
	}

	// YYYY-MM-DD 字典序即时间序
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}

// Latest 最近一份报告的日期
func (s *Store) Latest() (string, error) {
	dates, err := s.ListDates(1)
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", ErrReportNotFound
	}
	return dates[0], nil
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
