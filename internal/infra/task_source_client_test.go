package infra

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeInputBook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet("企業一覧")
	require.NoError(t, err)
	rows := [][]any{
		{"企業ID", "企業名", "区分", "媒体", "開始", "終了"},
		{"1001", "Acme", "Normal", "バイトル", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024/01/31"},
		{"", "空行", "", "", "", ""},
		{"1002", "Moon", "ナイト", "", "2024-02-01", "2024-02-29"},
		{"1003", "Broken", "Normal", "", "未定", "2024/03/31"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("企業一覧", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func taskOptions() TaskSheetOptions {
	return TaskSheetOptions{
		Sheet:       "企業一覧",
		HeaderRows:  1,
		CompanyID:   "A",
		CompanyName: "B",
		Category:    "C",
		SourceSite:  "D",
		PeriodStart: "E",
		PeriodEnd:   "F",
	}
}

func TestTaskSourceClient_FindAll(t *testing.T) {
	wb, err := OpenWorkbook(writeInputBook(t))
	require.NoError(t, err)
	defer wb.Close()

	tasks, err := NewTaskSourceClient(wb, taskOptions(), logger.Nop()).FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, 2, tasks[0].RowNumber)
	assert.Equal(t, "1001", tasks[0].CompanyID)
	assert.Equal(t, model.CategoryNormal, tasks[0].Category)
	assert.Equal(t, "バイトル", tasks[0].SourceSite)
	assert.Equal(t, "1001_Acme_2024/01/01_2024/01/31", tasks[0].UniqueID())

	assert.Equal(t, 4, tasks[1].RowNumber)
	assert.Equal(t, model.CategoryNight, tasks[1].Category)
	assert.Equal(t, "1002_Moon_2024/02/01_2024/02/29", tasks[1].UniqueID())
}

func TestTaskSourceClient_PeriodOverride(t *testing.T) {
	wb, err := OpenWorkbook(writeInputBook(t))
	require.NoError(t, err)
	defer wb.Close()

	opts := taskOptions()
	opts.Period = &model.Period{
		Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	}
	tasks, err := NewTaskSourceClient(wb, opts, logger.Nop()).FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "1003_Broken_2024/05/01_2024/05/31", tasks[2].UniqueID())
}

func TestTaskSourceClient_InvalidColumn(t *testing.T) {
	wb, err := OpenWorkbook(writeInputBook(t))
	require.NoError(t, err)
	defer wb.Close()

	opts := taskOptions()
	opts.CompanyID = "9"
	_, err = NewTaskSourceClient(wb, opts, logger.Nop()).FindAll(context.Background())
	assert.Error(t, err)
}
