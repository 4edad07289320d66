package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/nrad-K/trend-crawler/internal/constants"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/repository"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
	"github.com/nrad-K/trend-crawler/internal/infra"
	"github.com/nrad-K/trend-crawler/internal/logger"
	"github.com/nrad-K/trend-crawler/internal/retry"
)

// errTaskSkippedはタスクを処理せずに終えたことを表します。失敗としては数えません。
var errTaskSkipped = errors.New("タスクをスキップしました")

// SessionControllerはポータルからレポートとプレビュー情報を取得します。
type SessionController interface {
	FetchReport(ctx context.Context, s *model.Session) (string, error)
	FetchPreview(ctx context.Context, s *model.Session, jobNumber string) (model.PreviewAttributes, error)
}

// RecordClassifierはレポート行とプレビュー情報を分類します。
type RecordClassifier interface {
	Classify(ctx context.Context, category model.Category, record model.RawRecord, preview model.PreviewAttributes) model.ClassificationResult
}

// TrendPipelineArgsは、TrendPipelineを構築するための引数を保持します。
//
// フィールド:
//
//	Cfg        : アプリケーション設定
//	Controller : ポータル操作
//	Reader     : レポートの読み込み
//	Classifier : 分類エンジン
//	Rows       : 出力シート
//	Runs       : 実行記録の保存先。nilの場合は記録しない
//	Failures   : 失敗ログの出力先。nilの場合は出力しない
//	Logger     : ロガー
//	Now        : 現在時刻。nilの場合はtime.Now
//	Sleep      : タスク単位の再試行の待機関数
type TrendPipelineArgs struct {
	Cfg        *config.AppConfig
	Controller SessionController
	Reader     infra.ReportReader
	Classifier RecordClassifier
	Rows       repository.TrendRowRepository
	Runs       repository.TaskRunRepository
	Failures   infra.FailureExporter
	Logger     logger.AppLogger
	Now        func() time.Time
	Sleep      func(ctx context.Context, d time.Duration) error
}

// TrendPipelineは企業タスクを1件ずつ順番に処理し、結果を出力シートに追記します。
type TrendPipeline struct {
	cfg        *config.AppConfig
	controller SessionController
	reader     infra.ReportReader
	classifier RecordClassifier
	rows       repository.TrendRowRepository
	runs       repository.TaskRunRepository
	failures   infra.FailureExporter
	logger     logger.AppLogger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewTrendPipelineはTrendPipelineを生成します。
func NewTrendPipeline(args TrendPipelineArgs) *TrendPipeline {
	now := args.Now
	if now == nil {
		now = time.Now
	}
	return &TrendPipeline{
		cfg:        args.Cfg,
		controller: args.Controller,
		reader:     args.Reader,
		classifier: args.Classifier,
		rows:       args.Rows,
		runs:       args.Runs,
		failures:   args.Failures,
		logger:     args.Logger,
		now:        now,
		sleep:      args.Sleep,
	}
}

// Runはタスクを順番に処理します。個々のタスクの失敗では止まらず、最後に集計を返します。
// contextがキャンセルされた場合だけ途中で終了してエラーを返します。
func (p *TrendPipeline) Run(ctx context.Context, tasks []model.CompanyTask) (model.RunSummary, error) {
	var summary model.RunSummary
	session := model.NewSession()

	p.logger.Info("トレンド収集を開始します", "tasks", len(tasks))

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		p.logger.Info("タスクを処理中", "index", i+1, "total", len(tasks), "row", task.RowNumber, "company_id", task.CompanyID, "category", string(task.Category))

		written, err := p.runTask(ctx, session, task)
		switch {
		case err == nil:
			summary.Processed++
			p.recordRun(ctx, task, session.JobNumber, model.TaskRunStatusSuccess, fmt.Sprintf("%d行を書き込みました", written))
			p.logger.Info("タスクが完了しました", "company_id", task.CompanyID, "rows", written)

		case errors.Is(err, errTaskSkipped):
			summary.Skipped++
			p.recordRun(ctx, task, session.JobNumber, model.TaskRunStatusSkipped, err.Error())
			p.logger.Info("タスクをスキップしました", "company_id", task.CompanyID, "reason", err.Error())

		case ctx.Err() != nil:
			return summary, ctx.Err()

		default:
			failure := model.Failure{
				CompanyID: task.CompanyID,
				JobNumber: session.JobNumber,
				Reason:    err.Error(),
				At:        p.now(),
			}
			summary.Failed++
			summary.Failures = append(summary.Failures, failure)
			p.recordRun(ctx, task, session.JobNumber, model.TaskRunStatusFailed, err.Error())
			p.writeFailure(failure)
			p.logger.Error("タスクの処理に失敗しました", "company_id", task.CompanyID, "job_number", session.JobNumber, "error", err)
		}

		if (i+1)%constants.LogBatchCount == 0 {
			p.logger.Info("進捗", "done", i+1, "total", len(tasks), "processed", summary.Processed, "skipped", summary.Skipped, "failed", summary.Failed)
		}
	}

	p.logger.Info("トレンド収集が完了しました", "processed", summary.Processed, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// runTaskは1件のタスクを処理し、書き込んだ行数を返します。
// 出力シートに同じUniqueIDがあればポータルを操作せずにスキップします。
func (p *TrendPipeline) runTask(ctx context.Context, session *model.Session, task model.CompanyTask) (int, error) {
	session.BeginTask(task)

	uniqueID := task.UniqueID()
	exists, err := p.rows.ExistsUniqueID(ctx, task.Category, uniqueID)
	if err != nil {
		return 0, fmt.Errorf("重複の確認に失敗しました: %w", err)
	}
	if exists {
		return 0, fmt.Errorf("%s は出力済みです: %w", uniqueID, errTaskSkipped)
	}

	policy := retry.Policy{
		MaxAttempts: p.cfg.Retry.TaskAttempts,
		BaseDelay:   config.Duration(p.cfg.Retry.DelaySeconds),
		Backoff:     retry.Backoff(p.cfg.Retry.Backoff),
		Sleep:       p.sleep,
		OnRetry: func(attempt int, err error) {
			p.logger.Warn("タスクを再試行します", "company_id", task.CompanyID, "attempt", attempt, "error", err)
		},
	}

	// 書き込み済みの出力行の番号。再試行では同じレポートを読み直すので番号で判定できる
	done := make(map[int]struct{})
	written := 0
	err = retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		n, err := p.processTask(ctx, session, task, done)
		written += n
		if errors.Is(err, ErrPortalErrorPage) {
			return retry.Permanent(err)
		}
		return err
	})
	return written, err
}

// processTaskはレポートの取得から書き込みまでを行います。
// doneにある行は書き込み済みとして飛ばします。書き込みの途中で失敗した場合、それまでに書いたセルは残ります。
func (p *TrendPipeline) processTask(ctx context.Context, session *model.Session, task model.CompanyTask, done map[int]struct{}) (int, error) {
	path, err := p.controller.FetchReport(ctx, session)
	if err != nil {
		return 0, err
	}

	records, err := p.reader.Read(path)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("レポートを読み込めませんでした: %w", err))
	}

	outcome, err := service.Validate(records, task.Period())
	if err != nil {
		if errors.Is(err, service.ErrNoRecords) {
			return 0, retry.Permanent(fmt.Errorf("%s: %w", err.Error(), errTaskSkipped))
		}
		return 0, retry.Permanent(err)
	}
	p.logger.Info("レポートを照合しました", "company_id", task.CompanyID, "matched", len(outcome.MatchedRecords), "unmatched", len(outcome.UnmatchedRecords))

	written := 0
	for i, record := range outcome.OutputRecords() {
		if _, ok := done[i]; ok {
			continue
		}
		if err := p.writeRecord(ctx, session, task, record); err != nil {
			return written, err
		}
		done[i] = struct{}{}
		written++
	}
	return written, nil
}

// writeRecordは1レコードを分類して出力シートに追記します。
// 行にはタスクのUniqueIDを書くので、応募期間が同じレコードでも1件ずつ行になります。
func (p *TrendPipeline) writeRecord(ctx context.Context, session *model.Session, task model.CompanyTask, record model.RawRecord) error {
	appStart, ok := service.ToCalendarDate(record.AppStart)
	if !ok {
		appStart = task.PeriodStart
	}
	appEnd, ok := service.ToCalendarDate(record.AppEnd)
	if !ok {
		appEnd = task.PeriodEnd
	}

	var preview model.PreviewAttributes
	if record.JobNumber != "" {
		var err error
		preview, err = p.controller.FetchPreview(ctx, session, record.JobNumber)
		if err != nil {
			return err
		}
	}

	classification := p.classifier.Classify(ctx, task.Category, record, preview)
	row := model.NewTrendRow(model.TrendRowArgs{
		Task:           task,
		Record:         record,
		AppStart:       appStart,
		AppEnd:         appEnd,
		Preview:        preview,
		Classification: classification,
	})

	if err := p.rows.Append(ctx, row); err != nil {
		return retry.Permanent(fmt.Errorf("出力シートへの書き込みに失敗しました: %w", err))
	}
	p.logger.Debug("行を書き込みました", "unique_id", row.UniqueID, "job_number", record.JobNumber)
	return nil
}

func (p *TrendPipeline) recordRun(ctx context.Context, task model.CompanyTask, jobNumber string, status model.TaskRunStatus, reason string) {
	if p.runs == nil {
		return
	}
	run := model.TaskRun{
		ID:        uuid.New(),
		UniqueID:  task.UniqueID(),
		CompanyID: task.CompanyID,
		JobNumber: jobNumber,
		Status:    status,
		Reason:    reason,
		At:        p.now(),
	}
	if err := p.runs.Save(ctx, run); err != nil {
		p.logger.Warn("実行記録を保存できませんでした", "company_id", task.CompanyID, "error", err)
	}
}

func (p *TrendPipeline) writeFailure(f model.Failure) {
	if p.failures == nil {
		return
	}
	if err := p.failures.Write(f); err != nil {
		p.logger.Warn("失敗ログを書き込めませんでした", "company_id", f.CompanyID, "error", err)
	}
}
