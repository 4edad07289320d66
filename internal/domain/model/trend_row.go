package model

import "time"

// TrendRowは出力シートへ書き込む1行分のデータです。UniqueIDで重複を判定します。
type TrendRow struct {
	Category         Category
	Plan             string
	ListPV           int
	DetailPV         int
	WebApplications  int
	TelApplications  int
	Weeks            int
	Prefecture       string
	City             string
	Station          string
	Year             int
	Month            int
	Region           string
	JobCategoryLarge string
	JobCategoryMid   string
	JobCategorySmall string
	SalaryType       string
	SalaryAmount     SalaryAmount
	CompanyID        string
	CompanyName      string
	StoreName        string
	Media            string
	AppStart         time.Time
	AppEnd           time.Time
	UniqueID         string
}

// TrendRowArgsはTrendRowの組み立てに必要な値です。
type TrendRowArgs struct {
	Task           CompanyTask
	Record         RawRecord
	AppStart       time.Time
	AppEnd         time.Time
	Preview        PreviewAttributes
	Classification ClassificationResult
}

// NewTrendRowはレコード・プレビュー・分類結果を1行に平坦化します。
// 年月はレコード自身の応募期間から求めます。UniqueIDはタスクのキーで、同じタスクの行はすべて同じ値になります。
func NewTrendRow(args TrendRowArgs) TrendRow {
	return TrendRow{
		Category:         args.Task.Category,
		Plan:             args.Classification.Plan,
		ListPV:           args.Record.ListPV,
		DetailPV:         args.Record.DetailPV,
		WebApplications:  args.Record.WebApplications,
		TelApplications:  args.Record.TelApplications,
		Weeks:            args.Record.Weeks,
		Prefecture:       args.Preview.Prefecture,
		City:             args.Preview.City,
		Station:          args.Preview.Station,
		Year:             args.AppStart.Year(),
		Month:            int(args.AppStart.Month()),
		Region:           args.Classification.Region,
		JobCategoryLarge: args.Classification.JobCategory.Large,
		JobCategoryMid:   args.Classification.JobCategory.Medium,
		JobCategorySmall: args.Classification.JobCategory.Small,
		SalaryType:       args.Classification.SalaryType,
		SalaryAmount:     args.Classification.SalaryAmount,
		CompanyID:        args.Task.CompanyID,
		CompanyName:      args.Task.CompanyName,
		StoreName:        args.Task.CompanyName,
		Media:            args.Task.SourceSite,
		AppStart:         args.AppStart,
		AppEnd:           args.AppEnd,
		UniqueID:         args.Task.UniqueID(),
	}
}
