package constants

import "regexp"

// TrendColumnsは出力シートの列配置です。空文字の項目は書き込みません。
type TrendColumns struct {
	Category          string
	Plan              string
	ListPV            string
	DetailPV          string
	WebApplications   string
	TelApplications   string
	Weeks             string
	Prefecture        string
	City              string
	Station           string
	Year              string
	Month             string
	Region            string
	JobCategoryLarge  string
	JobCategoryMedium string
	JobCategorySmall  string
	SalaryType        string
	SalaryAmount      string
	CompanyID         string
	CompanyName       string
	StoreName         string
	Media             string
	AppStart          string
	AppEnd            string
	UniqueID          string
}

// NormalTrendColumnsは通常掲載の出力列です。
var NormalTrendColumns = TrendColumns{
	Category:          "A",
	Plan:              "B",
	ListPV:            "C",
	DetailPV:          "D",
	WebApplications:   "E",
	TelApplications:   "F",
	Weeks:             "G",
	Prefecture:        "H",
	City:              "I",
	Station:           "J",
	Year:              "K",
	Month:             "L",
	Region:            "M",
	JobCategoryLarge:  "N",
	JobCategoryMedium: "O",
	JobCategorySmall:  "P",
	SalaryType:        "Q",
	SalaryAmount:      "R",
	CompanyID:         "S",
	CompanyName:       "T",
	StoreName:         "U",
	Media:             "V",
	AppStart:          "W",
	AppEnd:            "X",
	UniqueID:          "Y",
}

// NightTrendColumnsはナイト掲載の出力列です。媒体列はありません。
var NightTrendColumns = TrendColumns{
	Category:          "A",
	Plan:              "B",
	ListPV:            "C",
	DetailPV:          "D",
	WebApplications:   "E",
	TelApplications:   "F",
	Weeks:             "G",
	Year:              "H",
	Month:             "I",
	Prefecture:        "J",
	City:              "K",
	Station:           "L",
	Region:            "M",
	JobCategoryLarge:  "N",
	JobCategoryMedium: "O",
	JobCategorySmall:  "P",
	SalaryType:        "Q",
	SalaryAmount:      "R",
	CompanyID:         "S",
	CompanyName:       "T",
	StoreName:         "U",
	AppStart:          "V",
	AppEnd:            "W",
	UniqueID:          "X",
}

// ReportField はレポートの論理列です。
type ReportField string

const (
	FieldPlan            ReportField = "plan"
	FieldListPV          ReportField = "list_pv"
	FieldDetailPV        ReportField = "detail_pv"
	FieldWebApplications ReportField = "web_applications"
	FieldTelApplications ReportField = "tel_applications"
	FieldPerfStart       ReportField = "perf_start"
	FieldPerfEnd         ReportField = "perf_end"
	FieldAppStart        ReportField = "app_start"
	FieldAppEnd          ReportField = "app_end"
	FieldWeeks           ReportField = "weeks"
	FieldJobNumber       ReportField = "job_number"
	FieldJobCategory     ReportField = "job_category"
	FieldSalary          ReportField = "salary"
)

// RequiredReportFieldsはレポートに必ず含まれる列です。
var RequiredReportFields = []ReportField{
	FieldPlan, FieldListPV, FieldDetailPV, FieldWebApplications, FieldTelApplications,
	FieldPerfStart, FieldPerfEnd, FieldAppStart, FieldAppEnd, FieldJobNumber,
}

// ReportHeaderAliasesはレポートの見出しの表記ゆれです。比較は空白を除いて行います。
var ReportHeaderAliases = map[ReportField][]string{
	FieldPlan:            {"プラン", "掲載プラン", "商品名", "プラン名"},
	FieldListPV:          {"一覧PV", "一覧PV数", "一覧表示数", "一覧ページビュー"},
	FieldDetailPV:        {"詳細PV", "詳細PV数", "詳細表示数", "詳細ページビュー"},
	FieldWebApplications: {"WEB応募数", "Web応募数", "WEB応募", "応募数(WEB)"},
	FieldTelApplications: {"電話応募数", "TEL応募数", "電話応募", "応募数(電話)"},
	FieldPerfStart:       {"掲載開始日", "実績開始日", "掲載期間開始"},
	FieldPerfEnd:         {"掲載終了日", "実績終了日", "掲載期間終了"},
	FieldAppStart:        {"申込開始日", "申込期間開始", "申込期間(開始)"},
	FieldAppEnd:          {"申込終了日", "申込期間終了", "申込期間(終了)"},
	FieldWeeks:           {"掲載週数", "週数", "掲載期間(週)"},
	FieldJobNumber:       {"仕事No", "仕事番号", "求人番号", "原稿番号"},
	FieldJobCategory:     {"職種", "職種名"},
	FieldSalary:          {"給与", "給与(原文)"},
}

// CityPatternは都道府県名より後ろの住所から市区町村を取り出す正規表現です(例: 渋谷区道玄坂 → 渋谷区)。
var CityPattern = regexp.MustCompile(`^\s*(.+?[市区町村])`)

// SalaryTextPatternはプレビューの給与欄から「給与形態+金額(範囲)」の部分を取り出す正規表現です。
// 例: 交通費支給 月収21万円〜22万円 昇給あり → 月収21万円〜22万円
const SalaryTextPattern = `(?:時給|日給|月給|月収|年収)\s*[0-9０-９,，.]+万?円?(?:\s*[〜~～]\s*(?:[0-9０-９,，.]+万?円?)?)?`

// FailureLogHeadersは失敗ログCSVの見出しです。
var FailureLogHeaders = []string{"企業ID", "仕事No", "理由", "日時"}

const (
	LogBatchCount = 100
)
