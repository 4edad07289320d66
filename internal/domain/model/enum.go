package model

import "strings"

// Categoryは掲載区分です。ナイトと通常で出力先シートと分類ルールが変わります。
type Category string

const (
	CategoryNight  Category = "Night"
	CategoryNormal Category = "Normal"
)

// ParseCategoryは入力シートの掲載区分の文字列をCategoryに変換します。
// "Night"(大文字小文字は問わない) または "ナイト" のみNightとし、それ以外はすべてNormalです。
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(CategoryNight)) || s == "ナイト" {
		return CategoryNight
	}
	return CategoryNormal
}

func (c Category) IsNight() bool {
	return c == CategoryNight
}

// SalaryFormは給与形態です。
type SalaryForm string

const (
	Hourly      SalaryForm = "時給"
	Daily       SalaryForm = "日給"
	MonthlyBase SalaryForm = "月給"
	Monthly     SalaryForm = "月収"
	Yearly      SalaryForm = "年収"
	UnknownForm SalaryForm = ""
)

// SalaryFormsは先頭一致で判定する順に並べた給与形態の一覧です。
var SalaryForms = []SalaryForm{Hourly, Daily, MonthlyBase, Monthly, Yearly}

// SessionStateはポータル操作の状態です。宣言順が遷移順になります。
type SessionState int

const (
	LoggedOut SessionState = iota
	TopPage
	CompanySearched
	CompanySelected
	ReportDownloaded
	JobSearchPage
	PreviewOpen
	PreviewClosed
)

func (s SessionState) String() string {
	switch s {
	case LoggedOut:
		return "LoggedOut"
	case TopPage:
		return "TopPage"
	case CompanySearched:
		return "CompanySearched"
	case CompanySelected:
		return "CompanySelected"
	case ReportDownloaded:
		return "ReportDownloaded"
	case JobSearchPage:
		return "JobSearchPage"
	case PreviewOpen:
		return "PreviewOpen"
	case PreviewClosed:
		return "PreviewClosed"
	default:
		return "Unknown"
	}
}

type PrefectureCode string

const (
	Hokkaido  PrefectureCode = "01"
	Aomori    PrefectureCode = "02"
	Iwate     PrefectureCode = "03"
	Miyagi    PrefectureCode = "04"
	Akita     PrefectureCode = "05"
	Yamagata  PrefectureCode = "06"
	Fukushima PrefectureCode = "07"
	Ibaraki   PrefectureCode = "08"
	Tochigi   PrefectureCode = "09"
	Gunma     PrefectureCode = "10"
	Saitama   PrefectureCode = "11"
	Chiba     PrefectureCode = "12"
	Tokyo     PrefectureCode = "13"
	Kanagawa  PrefectureCode = "14"
	Niigata   PrefectureCode = "15"
	Toyama    PrefectureCode = "16"
	Ishikawa  PrefectureCode = "17"
	Fukui     PrefectureCode = "18"
	Yamanashi PrefectureCode = "19"
	Nagano    PrefectureCode = "20"
	Gifu      PrefectureCode = "21"
	Shizuoka  PrefectureCode = "22"
	Aichi     PrefectureCode = "23"
	Mie       PrefectureCode = "24"
	Shiga     PrefectureCode = "25"
	Kyoto     PrefectureCode = "26"
	Osaka     PrefectureCode = "27"
	Hyogo     PrefectureCode = "28"
	Nara      PrefectureCode = "29"
	Wakayama  PrefectureCode = "30"
	Tottori   PrefectureCode = "31"
	Shimane   PrefectureCode = "32"
	Okayama   PrefectureCode = "33"
	Hiroshima PrefectureCode = "34"
	Yamaguchi PrefectureCode = "35"
	Tokushima PrefectureCode = "36"
	Kagawa    PrefectureCode = "37"
	Ehime     PrefectureCode = "38"
	Kochi     PrefectureCode = "39"
	Fukuoka   PrefectureCode = "40"
	Saga      PrefectureCode = "41"
	Nagasaki  PrefectureCode = "42"
	Kumamoto  PrefectureCode = "43"
	Oita      PrefectureCode = "44"
	Miyazaki  PrefectureCode = "45"
	Kagoshima PrefectureCode = "46"
	Okinawa   PrefectureCode = "47"
)

// TaskRunStatusはタスク実行結果のステータスです。
type TaskRunStatus string

const (
	TaskRunStatusSuccess TaskRunStatus = "SUCCESS"
	TaskRunStatusSkipped TaskRunStatus = "SKIPPED"
	TaskRunStatusFailed  TaskRunStatus = "FAILED"
)
