package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/repository"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
	"github.com/nrad-K/trend-crawler/internal/infra"
	"github.com/nrad-K/trend-crawler/internal/logger"
	"github.com/nrad-K/trend-crawler/internal/usecase"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "入力シートの全企業を処理します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, usecase.AllTasks())
	},
}

var rowCmd = &cobra.Command{
	Use:   "row <n>",
	Short: "入力シートのn件目(見出し行を除く)の企業だけを処理します",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("行番号が不正です: %s", args[0])
		}
		return runPipeline(cmd, usecase.RowTask(n))
	},
}

var rowsCmd = &cobra.Command{
	Use:   "rows <n>",
	Short: "入力シートの先頭からn件の企業を処理します",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("件数が不正です: %s", args[0])
		}
		return runPipeline(cmd, usecase.FirstRows(n))
	},
}

var companyCmd = &cobra.Command{
	Use:   "company <company_id>",
	Short: "企業IDが一致する行だけを処理します",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, usecase.CompanyTasks(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(runCmd, rowCmd, rowsCmd, companyCmd)
}

// runPipelineは依存関係を組み立ててパイプラインを実行し、最後に集計を表示します。
func runPipeline(cmd *cobra.Command, selector usecase.TaskSelector) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	// logger初期化
	appLogger := logger.New(cfg.LogLevel)

	// 入力ブックがない場合は何も始めない
	if _, err := os.Stat(cfg.Workbook.Input.Path); err != nil {
		return fmt.Errorf("入力シートが見つかりません: %w", err)
	}
	input, err := infra.OpenWorkbook(cfg.Workbook.Input.Path)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := infra.OpenWorkbook(cfg.Workbook.Output.Path)
	if err != nil {
		return err
	}
	defer output.Close()

	in := cfg.Workbook.Input
	taskOpts := infra.TaskSheetOptions{
		Sheet:       in.Sheet,
		HeaderRows:  in.HeaderRows,
		CompanyID:   in.Columns.CompanyID,
		CompanyName: in.Columns.CompanyName,
		Category:    in.Columns.Category,
		SourceSite:  in.Columns.SourceSite,
		PeriodStart: in.Columns.PeriodStart,
		PeriodEnd:   in.Columns.PeriodEnd,
	}
	if cfg.PeriodStart != nil && cfg.PeriodEnd != nil {
		taskOpts.Period = &model.Period{Start: *cfg.PeriodStart, End: *cfg.PeriodEnd}
	}
	taskRepo := infra.NewTaskSourceClient(input, taskOpts, appLogger)

	data, err := usecase.LoadStartupData(ctx, func() (model.Taxonomy, error) {
		return infra.LoadTaxonomy(cfg.TaxonomyPath)
	}, taskRepo)
	if err != nil {
		return err
	}
	tasks, err := selector(data.Tasks)
	if err != nil {
		return err
	}
	appLogger.Info("処理対象のタスクを読み込みました", "tasks", len(tasks), "input_rows", len(data.Tasks))

	var matcher service.Matcher
	if secrets.AIAPIKey != "" && cfg.AI.Endpoint != "" {
		matcher = infra.NewAIMatcher(cfg.AI, secrets.AIAPIKey, appLogger)
	} else {
		appLogger.Info("AIマッチャーの設定がないため、キーワードと類似度だけで分類します")
	}

	var runs repository.TaskRunRepository
	if secrets.RedisAddress != "" {
		rdb, err := newRedisClient(ctx, secrets)
		if err != nil {
			return err
		}
		defer rdb.Close()
		runs = infra.NewTaskRunClient(rdb)
		appLogger.Info("Redisへの接続を確認しました")
	}

	failures, err := infra.NewFailureLogExporter(infra.FailureLogPath(cfg.FailureLog, time.Now()))
	if err != nil {
		return err
	}
	defer failures.Close()

	// browser client初期化
	browserClient, err := infra.NewBrowserClient(&cfg)
	if err != nil {
		return fmt.Errorf("ブラウザクライアントの初期化に失敗: %w", err)
	}
	defer browserClient.Close()

	watcher := infra.NewDownloadWatcher(infra.DownloadWatcherOptions{
		Dir:      cfg.Download.Dir,
		Stable:   config.Duration(cfg.Download.StableSeconds),
		Timeout:  config.Duration(cfg.Download.TimeoutSeconds),
		Interval: time.Duration(cfg.Download.PollMillis) * time.Millisecond,
	})

	controller, err := usecase.NewPortalController(usecase.PortalControllerArgs{
		Cfg:         &cfg,
		Credentials: usecase.Credentials{LoginID: secrets.LoginID, Password: secrets.Password},
		Client:      browserClient,
		Downloads:   watcher,
		Logger:      appLogger,
	})
	if err != nil {
		return err
	}

	out := cfg.Workbook.Output
	pipeline := usecase.NewTrendPipeline(usecase.TrendPipelineArgs{
		Cfg:        &cfg,
		Controller: controller,
		Reader:     infra.NewReportReader(),
		Classifier: service.NewClassifier(data.Taxonomy, matcher),
		Rows: infra.NewTrendSheetClient(output, infra.TrendSheetOptions{
			NormalSheet: out.NormalSheet,
			NightSheet:  out.NightSheet,
			HeaderRows:  out.HeaderRows,
		}),
		Runs:     runs,
		Failures: failures,
		Logger:   appLogger,
	})

	summary, err := pipeline.Run(ctx, tasks)
	printSummary(cmd, summary)
	return err
}

func printSummary(cmd *cobra.Command, summary model.RunSummary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "処理: %d件 / スキップ: %d件 / 失敗: %d件\n", summary.Processed, summary.Skipped, summary.Failed)
	for _, f := range summary.Failures {
		fmt.Fprintf(w, "  企業ID=%s 仕事No=%s 理由=%s\n", f.CompanyID, f.JobNumber, f.Reason)
	}
}
