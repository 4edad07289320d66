package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/spf13/cobra"
)

// グローバルフラグ
var (
	configPath string
	headless   bool
	retryCount int
	retryDelay int
	startDate  string
	endDate    string
)

// rootCmdは、アプリケーションのエントリーポイントとなるルートコマンドです。
var rootCmd = &cobra.Command{
	Use:   "trend-crawler",
	Short: "求人掲載の実績レポートを収集し、トレンドシートに追記するツールです。",
	Long: `trend-crawlerは、入力シートの企業ごとに管理画面から実績レポートをダウンロードし、
掲載期間の照合と職種・地方・給与の分類を行って、結果を出力シートに追記します。
出力シートに同じUniqueIDがある企業はスキップします。`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Executeは、全てのサブコマンドをルートコマンドに追加し、フラグを適切に設定します。
// この関数はmain.main()から呼び出され、rootCmdに対して一度だけ実行される必要があります。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "settings/trend.yaml", "設定ファイルのパス")
	pf.BoolVar(&headless, "headless", true, "ブラウザをヘッドレスで起動します")
	pf.IntVar(&retryCount, "retry", 0, "求人検索と企業単位の試行回数 (0は設定ファイルの値)")
	pf.IntVar(&retryDelay, "retry-delay", 0, "再試行までの待機秒数 (0は設定ファイルの値)")
	pf.StringVar(&startDate, "start", "", "応募開始日の上書き (YYYY-MM-DD)")
	pf.StringVar(&endDate, "end", "", "応募終了日の上書き (YYYY-MM-DD)")
}

// loadConfigは.envと設定ファイルを読み込み、フラグの値を反映します。
func loadConfig(cmd *cobra.Command) (config.AppConfig, error) {
	// .envがなければ環境変数をそのまま使う
	_ = godotenv.Load()

	cfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return config.AppConfig{}, err
	}

	overrides := config.Overrides{
		RetryAttempts:     retryCount,
		RetryDelaySeconds: retryDelay,
		Start:             startDate,
		End:               endDate,
	}
	if cmd.Flags().Changed("headless") {
		overrides.Headless = &headless
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return config.AppConfig{}, err
	}
	return cfg, nil
}
