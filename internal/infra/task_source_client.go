package infra

import (
	"context"
	"fmt"
	"strings"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/repository"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
	"github.com/nrad-K/trend-crawler/internal/logger"
	"github.com/xuri/excelize/v2"
)

// TaskSheetOptionsは入力シートの配置です。列は "A" などの列名です。
type TaskSheetOptions struct {
	Sheet       string
	HeaderRows  int
	CompanyID   string
	CompanyName string
	Category    string
	SourceSite  string
	PeriodStart string
	PeriodEnd   string
	// 申込期間の上書き。nilでなければ全行にこの期間を使う
	Period *model.Period
}

type taskSourceClient struct {
	store  CellStore
	opts   TaskSheetOptions
	logger logger.AppLogger
}

func NewTaskSourceClient(store CellStore, opts TaskSheetOptions, logger logger.AppLogger) repository.CompanyTaskRepository {
	return &taskSourceClient{
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// FindAllは入力シートの全行をCompanyTaskに変換します。
// 企業IDが空の行は読み飛ばし、日付が読めない行は警告を出して読み飛ばします。
func (c *taskSourceClient) FindAll(ctx context.Context) ([]model.CompanyTask, error) {
	rows, err := c.store.ReadRows(c.opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("入力シートの読み込みに失敗しました: %w", err)
	}

	idx, err := c.columnIndexes()
	if err != nil {
		return nil, err
	}

	var tasks []model.CompanyTask
	for i := c.opts.HeaderRows; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rows[i]
		cell := func(col int) string {
			if col < 0 || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		companyID := cell(idx.companyID)
		if companyID == "" {
			continue
		}

		task := model.CompanyTask{
			RowNumber:   i + 1,
			CompanyID:   companyID,
			CompanyName: cell(idx.companyName),
			Category:    model.ParseCategory(cell(idx.category)),
			SourceSite:  cell(idx.sourceSite),
		}

		if c.opts.Period != nil {
			task.PeriodStart = c.opts.Period.Start
			task.PeriodEnd = c.opts.Period.End
		} else {
			start, okStart := service.ToCalendarDate(cell(idx.periodStart))
			end, okEnd := service.ToCalendarDate(cell(idx.periodEnd))
			if !okStart || !okEnd {
				c.logger.Warn("申込期間が読めない行を読み飛ばします", "row", i+1, "company_id", companyID)
				continue
			}
			task.PeriodStart = start
			task.PeriodEnd = end
		}

		tasks = append(tasks, task)
	}
	return tasks, nil
}

type taskColumns struct {
	companyID, companyName, category, sourceSite, periodStart, periodEnd int
}

func (c *taskSourceClient) columnIndexes() (taskColumns, error) {
	index := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		n, err := excelize.ColumnNameToNumber(name)
		if err != nil {
			return 0, fmt.Errorf("入力シートの列名が不正です: %s: %w", name, err)
		}
		return n - 1, nil
	}

	var cols taskColumns
	var err error
	targets := []struct {
		dst  *int
		name string
	}{
		{&cols.companyID, c.opts.CompanyID},
		{&cols.companyName, c.opts.CompanyName},
		{&cols.category, c.opts.Category},
		{&cols.sourceSite, c.opts.SourceSite},
		{&cols.periodStart, c.opts.PeriodStart},
		{&cols.periodEnd, c.opts.PeriodEnd},
	}
	for _, t := range targets {
		if *t.dst, err = index(t.name); err != nil {
			return taskColumns{}, err
		}
	}
	return cols, nil
}
