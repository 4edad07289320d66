package infra

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nrad-K/trend-crawler/internal/constants"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

const failureLogTimeLayout = "2006-01-02 15:04:05"

// FailureExporterは失敗したタスクを書き出します。
type FailureExporter interface {
	Write(failure model.Failure) error
	Close() error
}

// FailureLogExporterは失敗ログをCSVに書き出します。
type FailureLogExporter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// FailureLogPathは実行開始時刻から失敗ログのファイル名を決めます。
func FailureLogPath(dir string, startedAt time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("failures_%s.csv", startedAt.Format("20060102_150405")))
}

func NewFailureLogExporter(filePath string) (*FailureLogExporter, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("CSVファイルの作成に失敗しました: %w", err)
	}

	writer := csv.NewWriter(file)

	if err := writer.Write(constants.FailureLogHeaders); err != nil {
		file.Close()
		return nil, fmt.Errorf("CSVヘッダーの書き込みに失敗しました: %w", err)
	}

	return &FailureLogExporter{
		file:   file,
		writer: writer,
	}, nil
}

func (c *FailureLogExporter) Write(f model.Failure) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		f.CompanyID,
		f.JobNumber,
		f.Reason,
		f.At.Format(failureLogTimeLayout),
	}
	if err := c.writer.Write(row); err != nil {
		return err
	}
	// 途中で止まっても書いた分は残す
	c.writer.Flush()
	return c.writer.Error()
}

func (c *FailureLogExporter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	return c.file.Close()
}
