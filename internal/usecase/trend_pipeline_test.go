package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/nrad-K/trend-crawler/internal/constants"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
	"github.com/nrad-K/trend-crawler/internal/infra"
	"github.com/nrad-K/trend-crawler/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	normalSheet = "通常"
	nightSheet  = "ナイト"
)

type fakeController struct {
	reportErrs   []error
	reportCalls  int
	previewErrs  []error
	previewCalls int
	previewJobs  []string
	preview      model.PreviewAttributes
}

func (c *fakeController) FetchReport(_ context.Context, s *model.Session) (string, error) {
	c.reportCalls++
	if len(c.reportErrs) > 0 {
		err := c.reportErrs[0]
		c.reportErrs = c.reportErrs[1:]
		if err != nil {
			return "", err
		}
	}
	s.ReportPath = s.Task.CompanyID + ".csv"
	return s.ReportPath, nil
}

func (c *fakeController) FetchPreview(_ context.Context, s *model.Session, jobNumber string) (model.PreviewAttributes, error) {
	c.previewCalls++
	c.previewJobs = append(c.previewJobs, jobNumber)
	s.JobNumber = jobNumber
	if len(c.previewErrs) > 0 {
		err := c.previewErrs[0]
		c.previewErrs = c.previewErrs[1:]
		if err != nil {
			return model.PreviewAttributes{}, err
		}
	}
	return c.preview, nil
}

type fakeReportReader struct {
	reports map[string][]model.RawRecord
}

func (r fakeReportReader) Read(path string) ([]model.RawRecord, error) {
	records, ok := r.reports[path]
	if !ok {
		return nil, fmt.Errorf("%s not found", path)
	}
	return records, nil
}

type memoryRuns struct {
	runs []model.TaskRun
}

func (m *memoryRuns) Save(_ context.Context, run model.TaskRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryRuns) FindListByStatus(_ context.Context, _ int, status model.TaskRunStatus) ([]model.TaskRun, error) {
	var out []model.TaskRun
	for _, r := range m.runs {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

type memoryFailures struct {
	failures []model.Failure
}

func (m *memoryFailures) Write(f model.Failure) error {
	m.failures = append(m.failures, f)
	return nil
}

func (m *memoryFailures) Close() error { return nil }

func reportRecord(jobNumber, perfStart, perfEnd, appStart, appEnd string, pv int) model.RawRecord {
	return model.RawRecord{
		Plan:               "Aプラン(4週)",
		JobNumber:          jobNumber,
		ListPV:             pv,
		DetailPV:           pv * 2,
		WebApplications:    1,
		TelApplications:    1,
		PerfStart:          model.NewDateCell(perfStart),
		PerfEnd:            model.NewDateCell(perfEnd),
		AppStart:           model.NewDateCell(appStart),
		AppEnd:             model.NewDateCell(appEnd),
		JobCategoryRawText: "ホールスタッフ",
		SalaryRawText:      "時給1,100円",
	}
}

func acmeTask() model.CompanyTask {
	return model.CompanyTask{
		RowNumber:   2,
		CompanyID:   "1001",
		CompanyName: "Acme",
		Category:    model.CategoryNormal,
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		SourceSite:  "バイトル",
	}
}

func acmeReport() []model.RawRecord {
	return []model.RawRecord{
		reportRecord("J-1", "2024/01/01", "2024/01/31", "2024/01/01", "2024/01/31", 10),
		reportRecord("J-2", "2024/01/03", "2024/01/31", "2024/01/05", "2024/01/20", 20),
		reportRecord("J-3", "2024/01/10", "2024/02/10", "2024/01/02", "2024/02/05", 30),
	}
}

type pipelineFixture struct {
	workbook   *infra.Workbook
	controller *fakeController
	runs       *memoryRuns
	failures   *memoryFailures
	pipeline   *TrendPipeline
}

func newPipelineFixture(t *testing.T, reports map[string][]model.RawRecord) *pipelineFixture {
	t.Helper()
	wb, err := infra.OpenWorkbook(filepath.Join(t.TempDir(), "trend.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })

	f := &pipelineFixture{
		workbook: wb,
		controller: &fakeController{preview: model.PreviewAttributes{
			Prefecture:         "東京都",
			City:               "新宿区",
			Station:            "新宿駅",
			JobCategoryRawText: "ホールスタッフ",
			SalaryType:         "時給",
			SalaryRawAmount:    "時給1,200円",
		}},
		runs:     &memoryRuns{},
		failures: &memoryFailures{},
	}

	taxonomy := model.Taxonomy{
		NormalJobCategories: []model.JobCategory{{Large: "飲食・フード", Medium: "ホール", Small: "ホールスタッフ"}},
		NightJobCategories:  []model.JobCategory{{Large: "ナイトワーク", Medium: "キャバクラ", Small: "キャスト"}},
	}
	f.pipeline = NewTrendPipeline(TrendPipelineArgs{
		Cfg: &config.AppConfig{Retry: config.RetryConfig{
			TaskAttempts: 3,
			DelaySeconds: 1,
			Backoff:      "linear",
		}},
		Controller: f.controller,
		Reader:     fakeReportReader{reports: reports},
		Classifier: service.NewClassifier(taxonomy, nil),
		Rows:       infra.NewTrendSheetClient(wb, infra.TrendSheetOptions{NormalSheet: normalSheet, NightSheet: nightSheet, HeaderRows: 1}),
		Runs:       f.runs,
		Failures:   f.failures,
		Logger:     logger.Nop(),
		Now:        func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) },
		Sleep:      func(context.Context, time.Duration) error { return nil },
	})
	return f
}

// uniqueIDsは出力シートの重複判定列の値を上から順に返します。
func (f *pipelineFixture) uniqueIDs(t *testing.T, sheet string, cols constants.TrendColumns) []string {
	t.Helper()
	rows, err := f.workbook.ReadRows(sheet)
	require.NoError(t, err)
	col := columnIndex(cols.UniqueID)
	var ids []string
	for _, row := range rows {
		if col < len(row) && row[col] != "" {
			ids = append(ids, row[col])
		}
	}
	return ids
}

func columnIndex(column string) int {
	n := 0
	for _, r := range column {
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}

func TestTrendPipeline_WritesMatchedAndAggregateRows(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": acmeReport()})

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	// 集計行も含め、行にはタスクのUniqueIDを書く
	assert.Equal(t, []string{
		"1001_Acme_2024/01/01_2024/01/31",
		"1001_Acme_2024/01/01_2024/01/31",
	}, f.uniqueIDs(t, normalSheet, constants.NormalTrendColumns))
	assert.Equal(t, 2, f.controller.previewCalls)

	rows, err := f.workbook.ReadRows(normalSheet)
	require.NoError(t, err)
	cols := constants.NormalTrendColumns
	aggregate := rows[2]
	assert.Equal(t, "Aプラン", aggregate[columnIndex(cols.Plan)])
	assert.Equal(t, "50", aggregate[columnIndex(cols.ListPV)])
	assert.Equal(t, "5", aggregate[columnIndex(cols.Weeks)])
	assert.Equal(t, "関東", aggregate[columnIndex(cols.Region)])
	assert.Equal(t, "ホールスタッフ", aggregate[columnIndex(cols.JobCategorySmall)])
	assert.Equal(t, "1200", aggregate[columnIndex(cols.SalaryAmount)])
	assert.Equal(t, "バイトル", aggregate[columnIndex(cols.Media)])
	assert.Equal(t, "1", aggregate[columnIndex(cols.Month)])

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, model.TaskRunStatusSuccess, f.runs.runs[0].Status)
	assert.Equal(t, "1001_Acme_2024/01/01_2024/01/31", f.runs.runs[0].UniqueID)
}

func TestTrendPipeline_WritesEveryRecordSharingAWindow(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": {
		reportRecord("J-1", "2024/01/01", "2024/01/31", "2024/01/01", "2024/01/31", 10),
		reportRecord("J-2", "2024/01/01", "2024/01/31", "2024/01/01", "2024/01/31", 20),
		reportRecord("J-3", "2024/01/01", "2024/01/31", "", "", 30),
	}})

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, []string{"J-1", "J-2", "J-3"}, f.controller.previewJobs)
	assert.Len(t, f.uniqueIDs(t, normalSheet, constants.NormalTrendColumns), 3)

	rows, err := f.workbook.ReadRows(normalSheet)
	require.NoError(t, err)
	col := columnIndex(constants.NormalTrendColumns.ListPV)
	assert.Equal(t, "10", rows[1][col])
	assert.Equal(t, "20", rows[2][col])
	assert.Equal(t, "30", rows[3][col])
}

func TestTrendPipeline_RetryDoesNotRewriteRows(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": {
		reportRecord("J-1", "2024/01/01", "2024/01/31", "2024/01/01", "2024/01/31", 10),
		reportRecord("J-2", "2024/01/01", "2024/01/31", "2024/01/01", "2024/01/31", 20),
	}})
	f.controller.previewErrs = []error{nil, errors.New("preview timeout")}

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, f.controller.reportCalls)
	// 2回目の試行ではJ-1を飛ばす
	assert.Equal(t, []string{"J-1", "J-2", "J-2"}, f.controller.previewJobs)
	assert.Len(t, f.uniqueIDs(t, normalSheet, constants.NormalTrendColumns), 2)
}

func TestTrendPipeline_Idempotent(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": acmeReport()})
	tasks := []model.CompanyTask{acmeTask()}

	_, err := f.pipeline.Run(context.Background(), tasks)
	require.NoError(t, err)
	summary, err := f.pipeline.Run(context.Background(), tasks)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, f.controller.reportCalls)
	assert.Len(t, f.uniqueIDs(t, normalSheet, constants.NormalTrendColumns), 2)
}

func TestTrendPipeline_SkipsExistingUniqueID(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": acmeReport()})
	require.NoError(t, f.workbook.WriteCell(normalSheet, constants.NormalTrendColumns.UniqueID, 2, "1001_Acme_2024/01/01_2024/01/31"))

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, model.RunSummary{Skipped: 1}, summary)
	assert.Equal(t, 0, f.controller.reportCalls)
	assert.Equal(t, []string{"1001_Acme_2024/01/01_2024/01/31"}, f.uniqueIDs(t, normalSheet, constants.NormalTrendColumns))
	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, model.TaskRunStatusSkipped, f.runs.runs[0].Status)
}

func TestTrendPipeline_NightGoesToNightSheet(t *testing.T) {
	task := acmeTask()
	task.CompanyID = "2001"
	task.CompanyName = "Moon"
	task.Category = model.CategoryNight
	f := newPipelineFixture(t, map[string][]model.RawRecord{
		"2001.csv": {reportRecord("N-1", "2024/01/01", "掲載中", "2024/01/01", "2024/01/31", 5)},
	})

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{task})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Empty(t, f.uniqueIDs(t, normalSheet, constants.NormalTrendColumns))
	assert.Equal(t, []string{"2001_Moon_2024/01/01_2024/01/31"}, f.uniqueIDs(t, nightSheet, constants.NightTrendColumns))
}

func TestTrendPipeline_ContinuesAfterFailure(t *testing.T) {
	broken := acmeTask()
	broken.CompanyID = "1000"
	broken.CompanyName = "Broken"
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": acmeReport()})
	f.controller.reportErrs = []error{
		errors.New("selector not found"),
		errors.New("selector not found"),
		errors.New("selector not found"),
	}

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{broken, acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Processed)
	// 失敗したタスクは3回試行する
	assert.Equal(t, 4, f.controller.reportCalls)
	require.Len(t, f.failures.failures, 1)
	assert.Equal(t, "1000", f.failures.failures[0].CompanyID)
	assert.Contains(t, f.failures.failures[0].Reason, "selector not found")
	assert.Equal(t, summary.Failures, f.failures.failures)

	failed, err := f.runs.FindListByStatus(context.Background(), 10, model.TaskRunStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "1000", failed[0].CompanyID)
}

func TestTrendPipeline_RetriesTransientFailure(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": acmeReport()})
	f.controller.reportErrs = []error{errors.New("timeout"), nil}

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, f.controller.reportCalls)
}

func TestTrendPipeline_ErrorPageIsNotRetried(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": acmeReport()})
	f.controller.reportErrs = []error{fmt.Errorf("https://portal.example.com/error: %w", ErrPortalErrorPage)}

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, f.controller.reportCalls)
}

func TestTrendPipeline_EmptyReportIsSkipped(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": {}})

	summary, err := f.pipeline.Run(context.Background(), []model.CompanyTask{acmeTask()})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, f.controller.reportCalls)
	assert.Empty(t, f.failures.failures)
}

func TestTrendPipeline_Canceled(t *testing.T) {
	f := newPipelineFixture(t, map[string][]model.RawRecord{"1001.csv": acmeReport()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx, []model.CompanyTask{acmeTask()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.controller.reportCalls)
}
