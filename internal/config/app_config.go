package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"
)

// AppConfigはトレンド収集ツールの動作設定をまとめる構造体です。
type AppConfig struct {
	Portal       PortalConfig   `yaml:"portal" validate:"required"`
	Retry        RetryConfig    `yaml:"retry" validate:"required"`
	Download     DownloadConfig `yaml:"download" validate:"required"`
	Workbook     WorkbookConfig `yaml:"workbook" validate:"required"`
	TaxonomyPath string         `yaml:"taxonomy_path" validate:"required"`   // 分類マスタ(JSON)のパス
	FailureLog   string         `yaml:"failure_log_dir" validate:"required"` // 失敗ログCSVの出力先
	Headless     bool           `yaml:"enable_headless"`                     // ヘッドレスで起動するか
	LogLevel     string         `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	AI           AIConfig       `yaml:"ai"`
	RunListSize  int            `yaml:"run_list_size" validate:"omitempty,min=1,max=1000"` // redisのSCAN件数

	// 実行時に上書きする申込期間。nilの場合は入力シートの値を使う
	PeriodStart *time.Time `yaml:"-"`
	PeriodEnd   *time.Time `yaml:"-"`
}

// PortalConfigは管理画面のURLとセレクターの設定です。
type PortalConfig struct {
	LoginURL             string          `yaml:"login_url" validate:"required,url"`
	ErrorURLPattern      string          `yaml:"error_url_pattern" validate:"required"` // この正規表現に一致するURLに遷移したら中断する
	UserAgent            string          `yaml:"user_agent"`
	TimeoutSeconds       int             `yaml:"timeout_seconds" validate:"min=5,max=60"`            // 要素の可視待機のタイムアウト
	SelectCheckDelaySecs int             `yaml:"select_check_delay_seconds" validate:"min=0,max=30"` // 企業選択後にURLを再確認するまでの待機
	Selector             PortalSelector  `yaml:"selector" validate:"required"`
	Preview              PreviewSelector `yaml:"preview" validate:"required"`
}

// PortalSelectorは画面遷移に使うCSSセレクターです。
type PortalSelector struct {
	LoginID             string `yaml:"login_id" validate:"required"`
	Password            string `yaml:"password" validate:"required"`
	LoginButton         string `yaml:"login_button" validate:"required"`
	TopMarker           string `yaml:"top_marker" validate:"required"` // トップ画面の表示確認
	TopLink             string `yaml:"top_link" validate:"required"`   // トップ画面へ戻るリンク
	CompanySearchInput  string `yaml:"company_search_input" validate:"required"`
	CompanySearchButton string `yaml:"company_search_button" validate:"required"`
	CompanyResultLink   string `yaml:"company_result_link" validate:"required"` // 検索結果の企業リンク
	CompanyPageMarker   string `yaml:"company_page_marker" validate:"required"`
	ReportMenu          string `yaml:"report_menu" validate:"required"`
	ReportDownload      string `yaml:"report_download" validate:"required"`
	JobSearchMenu       string `yaml:"job_search_menu" validate:"required"`
	JobNumberInput      string `yaml:"job_number_input" validate:"required"`
	JobSearchButton     string `yaml:"job_search_button" validate:"required"`
	PreviewLink         string `yaml:"preview_link" validate:"required"`
	PreviewMarker       string `yaml:"preview_marker" validate:"required"`
}

// PreviewSelectorはプレビュー画面の項目のCSSセレクターです。
// Addressを指定した場合は住所1行から都道府県と市区町村を取り出します。
type PreviewSelector struct {
	Address     string `yaml:"address"`
	Prefecture  string `yaml:"prefecture"`
	City        string `yaml:"city"`
	Station     string `yaml:"station"`
	JobCategory string `yaml:"job_category" validate:"required"`
	SalaryType  string `yaml:"salary_type"`
	Salary      string `yaml:"salary" validate:"required"`
}

// RetryConfigはリトライ回数と待機時間の設定です。
type RetryConfig struct {
	JobSearchAttempts int    `yaml:"job_search_attempts" validate:"min=1,max=10"` // 求人検索〜プレビューの試行回数
	AttributeAttempts int    `yaml:"attribute_attempts" validate:"min=1,max=10"`  // プレビュー項目ごとの試行回数
	TaskAttempts      int    `yaml:"task_attempts" validate:"min=1,max=10"`       // 企業単位の試行回数
	DelaySeconds      int    `yaml:"delay_seconds" validate:"min=0,max=60"`
	Backoff           string `yaml:"backoff" validate:"omitempty,oneof=fixed linear"`
}

// DownloadConfigはレポートのダウンロード完了判定の設定です。
type DownloadConfig struct {
	Dir            string `yaml:"dir" validate:"required"`
	StableSeconds  int    `yaml:"stable_seconds" validate:"min=1,max=60"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=1,max=600"`
	PollMillis     int    `yaml:"poll_millis" validate:"min=50,max=5000"`
}

// WorkbookConfigは入力と出力のExcelブックの設定です。
type WorkbookConfig struct {
	Input  InputSheetConfig  `yaml:"input" validate:"required"`
	Output OutputSheetConfig `yaml:"output" validate:"required"`
}

// InputSheetConfigは企業一覧シートの設定です。列は "A" などの列名で指定します。
type InputSheetConfig struct {
	Path       string       `yaml:"path" validate:"required"`
	Sheet      string       `yaml:"sheet" validate:"required"`
	HeaderRows int          `yaml:"header_rows" validate:"min=0,max=20"`
	Columns    InputColumns `yaml:"columns" validate:"required"`
}

type InputColumns struct {
	CompanyID   string `yaml:"company_id" validate:"required,column"`
	CompanyName string `yaml:"company_name" validate:"required,column"`
	Category    string `yaml:"category" validate:"required,column"`
	SourceSite  string `yaml:"source_site" validate:"omitempty,column"`
	PeriodStart string `yaml:"period_start" validate:"required,column"`
	PeriodEnd   string `yaml:"period_end" validate:"required,column"`
}

// OutputSheetConfigは結果を追記するシートの設定です。
type OutputSheetConfig struct {
	Path        string `yaml:"path" validate:"required"`
	NormalSheet string `yaml:"normal_sheet" validate:"required"`
	NightSheet  string `yaml:"night_sheet" validate:"required"`
	HeaderRows  int    `yaml:"header_rows" validate:"min=0,max=20"`
}

// AIConfigはAIマッチャーの接続先です。APIキーは環境変数から読み込みます。
type AIConfig struct {
	Endpoint       string `yaml:"endpoint" validate:"omitempty,url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"omitempty,min=1,max=120"`
}

// バリデーターのインスタンス
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 列名として解釈できるか ("A", "AB" など)
	_ = v.RegisterValidation("column", func(fl validator.FieldLevel) bool {
		_, err := excelize.ColumnNameToNumber(fl.Field().String())
		return err == nil
	})
	return v
}

// LoadAppConfigはYAMLファイルからAppConfigを読み込みます。
func LoadAppConfig(path string) (AppConfig, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("設定ファイルを読み込めませんでした: %w", err)
	}
	return ParseAppConfig(f)
}

// ParseAppConfigはYAMLのバイト列からAppConfigを生成し、既定値の補完と検証を行います。
func ParseAppConfig(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("YAMLの解析に失敗しました: %w", err)
	}

	cfg.applyDefaults()

	// バリデーション
	if err := validate.Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("設定のバリデーションに失敗しました: %w", err)
	}

	// カスタムバリデーション
	if _, err := regexp.Compile(cfg.Portal.ErrorURLPattern); err != nil {
		return AppConfig{}, fmt.Errorf("error_url_patternが正規表現として不正です: %w", err)
	}
	p := cfg.Portal.Preview
	if p.Address == "" && p.Prefecture == "" {
		return AppConfig{}, fmt.Errorf("previewにはaddressかprefectureのどちらかが必要です")
	}
	if cfg.Workbook.Output.NormalSheet == cfg.Workbook.Output.NightSheet {
		return AppConfig{}, fmt.Errorf("normal_sheetとnight_sheetには別のシートを指定してください")
	}
	if cfg.Download.StableSeconds >= cfg.Download.TimeoutSeconds {
		return AppConfig{}, fmt.Errorf("download.stable_secondsはtimeout_secondsより短くしてください")
	}

	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Portal.TimeoutSeconds == 0 {
		c.Portal.TimeoutSeconds = 30
	}
	if c.Portal.SelectCheckDelaySecs == 0 {
		c.Portal.SelectCheckDelaySecs = 3
	}
	if c.Retry.JobSearchAttempts == 0 {
		c.Retry.JobSearchAttempts = 5
	}
	if c.Retry.AttributeAttempts == 0 {
		c.Retry.AttributeAttempts = 3
	}
	if c.Retry.TaskAttempts == 0 {
		c.Retry.TaskAttempts = 1
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = "fixed"
	}
	if c.Download.StableSeconds == 0 {
		c.Download.StableSeconds = 2
	}
	if c.Download.TimeoutSeconds == 0 {
		c.Download.TimeoutSeconds = 60
	}
	if c.Download.PollMillis == 0 {
		c.Download.PollMillis = 500
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 20
	}
	if c.RunListSize == 0 {
		c.RunListSize = 100
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Overridesはコマンドラインフラグによる上書き値です。ゼロ値の項目は上書きしません。
type Overrides struct {
	Headless          *bool
	RetryAttempts     int
	RetryDelaySeconds int
	Start             string
	End               string
}

// ApplyOverridesはフラグの値を設定に反映します。
func (c *AppConfig) ApplyOverrides(o Overrides) error {
	if o.Headless != nil {
		c.Headless = *o.Headless
	}
	if o.RetryAttempts > 0 {
		c.Retry.JobSearchAttempts = o.RetryAttempts
		c.Retry.TaskAttempts = o.RetryAttempts
	}
	if o.RetryDelaySeconds > 0 {
		c.Retry.DelaySeconds = o.RetryDelaySeconds
	}

	if (o.Start == "") != (o.End == "") {
		return fmt.Errorf("--startと--endは同時に指定してください")
	}
	if o.Start == "" {
		return nil
	}
	start, err := parseFlagDate(o.Start)
	if err != nil {
		return fmt.Errorf("--startの日付が不正です: %w", err)
	}
	end, err := parseFlagDate(o.End)
	if err != nil {
		return fmt.Errorf("--endの日付が不正です: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("--endは--start以降の日付を指定してください")
	}
	c.PeriodStart = &start
	c.PeriodEnd = &end
	return nil
}

func parseFlagDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.ReplaceAll(strings.TrimSpace(s), "/", "-"))
}

// Secretsは環境変数から読み込む認証情報です。
type Secrets struct {
	LoginID       string `validate:"required"`
	Password      string `validate:"required"`
	AIAPIKey      string
	RedisAddress  string
	RedisPassword string
}

// LoadSecretsは環境変数から認証情報を読み込みます。ログイン情報がない場合はエラーです。
func LoadSecrets() (Secrets, error) {
	s := Secrets{
		LoginID:       os.Getenv("PORTAL_LOGIN_ID"),
		Password:      os.Getenv("PORTAL_PASSWORD"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
	if err := validate.Struct(s); err != nil {
		return Secrets{}, fmt.Errorf("PORTAL_LOGIN_IDとPORTAL_PASSWORDを設定してください: %w", err)
	}
	return s, nil
}

// Durationは秒数をtime.Durationに変換します。
func Duration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
