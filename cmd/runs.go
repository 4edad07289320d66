package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/infra"
	"github.com/spf13/cobra"
)

var runStatus string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Redisに記録したタスクの実行結果を一覧表示します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		status := model.TaskRunStatus(strings.ToUpper(runStatus))
		switch status {
		case model.TaskRunStatusSuccess, model.TaskRunStatusSkipped, model.TaskRunStatusFailed:
		default:
			return fmt.Errorf("--statusにはsuccess, skipped, failedのいずれかを指定してください: %s", runStatus)
		}

		addr := os.Getenv("REDIS_ADDRESS")
		if addr == "" {
			return fmt.Errorf("REDIS_ADDRESSが設定されていません")
		}
		rdb, err := newRedisClient(ctx, config.Secrets{
			RedisAddress:  addr,
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		runs, err := infra.NewTaskRunClient(rdb).FindListByStatus(ctx, cfg.RunListSize, status)
		if err != nil {
			return err
		}
		sort.Slice(runs, func(i, j int) bool { return runs[i].At.Before(runs[j].At) })

		w := cmd.OutOrStdout()
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.At.Format("2006-01-02 15:04:05"), r.Status, r.UniqueID, r.JobNumber, r.Reason)
		}
		fmt.Fprintf(w, "%d件\n", len(runs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runStatus, "status", "failed", "表示するステータス (success, skipped, failed)")
}
