package infra

import (
	"context"
	"fmt"

	"github.com/nrad-K/trend-crawler/internal/constants"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/repository"
)

const trendDateLayout = "2006/01/02"

// TrendSheetOptionsは出力シートの配置です。
type TrendSheetOptions struct {
	NormalSheet string
	NightSheet  string
	HeaderRows  int
}

type trendSheetClient struct {
	store CellStore
	opts  TrendSheetOptions
}

func NewTrendSheetClient(store CellStore, opts TrendSheetOptions) repository.TrendRowRepository {
	return &trendSheetClient{
		store: store,
		opts:  opts,
	}
}

func (c *trendSheetClient) layout(category model.Category) (string, constants.TrendColumns) {
	if category.IsNight() {
		return c.opts.NightSheet, constants.NightTrendColumns
	}
	return c.opts.NormalSheet, constants.NormalTrendColumns
}

// ExistsUniqueIDは出力シートの重複判定列にuniqueIDがあるかを返します。
func (c *trendSheetClient) ExistsUniqueID(ctx context.Context, category model.Category, uniqueID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	sheet, cols := c.layout(category)
	_, found, err := c.store.FindInColumn(sheet, cols.UniqueID, uniqueID)
	if err != nil {
		return false, fmt.Errorf("重複判定列の検索に失敗しました: %w", err)
	}
	return found, nil
}

// Appendは最初の空行に1行を書き込みます。セルごとに書き込むため、途中で失敗した場合は書きかけの行が残ります。
func (c *trendSheetClient) Append(ctx context.Context, row model.TrendRow) error {
	sheet, cols := c.layout(row.Category)

	// 書き込みの直前に毎回空行を探し直す
	rowNum, err := c.store.FirstEmptyRow(sheet, c.opts.HeaderRows+1)
	if err != nil {
		return fmt.Errorf("空行の検索に失敗しました: %w", err)
	}

	for _, cell := range trendCells(row, cols) {
		if cell.column == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.store.WriteCell(sheet, cell.column, rowNum, cell.value); err != nil {
			return fmt.Errorf("%d行目の書き込みに失敗しました: %w", rowNum, err)
		}
	}
	return nil
}

type trendCell struct {
	column string
	value  any
}

func trendCells(row model.TrendRow, cols constants.TrendColumns) []trendCell {
	return []trendCell{
		{cols.Category, string(row.Category)},
		{cols.Plan, row.Plan},
		{cols.ListPV, row.ListPV},
		{cols.DetailPV, row.DetailPV},
		{cols.WebApplications, row.WebApplications},
		{cols.TelApplications, row.TelApplications},
		{cols.Weeks, row.Weeks},
		{cols.Prefecture, row.Prefecture},
		{cols.City, row.City},
		{cols.Station, row.Station},
		{cols.Year, row.Year},
		{cols.Month, row.Month},
		{cols.Region, row.Region},
		{cols.JobCategoryLarge, row.JobCategoryLarge},
		{cols.JobCategoryMedium, row.JobCategoryMid},
		{cols.JobCategorySmall, row.JobCategorySmall},
		{cols.SalaryType, row.SalaryType},
		{cols.SalaryAmount, row.SalaryAmount.CellValue()},
		{cols.CompanyID, row.CompanyID},
		{cols.CompanyName, row.CompanyName},
		{cols.StoreName, row.StoreName},
		{cols.Media, row.Media},
		{cols.AppStart, row.AppStart.Format(trendDateLayout)},
		{cols.AppEnd, row.AppEnd.Format(trendDateLayout)},
		// 重複判定列は最後に書く
		{cols.UniqueID, row.UniqueID},
	}
}
