package model

import (
	"fmt"
	"time"
)

const uniqueIDDateLayout = "2006/01/02"

// Periodは応募期間です。
type Period struct {
	Start time.Time
	End   time.Time
}

// CompanyTaskは入力シート1行分の処理単位です。読み込み後は変更しません。
type CompanyTask struct {
	RowNumber   int
	CompanyID   string
	CompanyName string
	Category    Category
	PeriodStart time.Time
	PeriodEnd   time.Time
	SourceSite  string
}

func (t CompanyTask) Period() Period {
	return Period{Start: t.PeriodStart, End: t.PeriodEnd}
}

// UniqueIDはタスクの重複判定キーを返します。
func (t CompanyTask) UniqueID() string {
	return BuildUniqueID(t.CompanyID, t.CompanyName, t.PeriodStart, t.PeriodEnd)
}

// BuildUniqueIDは "会社ID_会社名_開始日_終了日" 形式の重複判定キーを組み立てます。
func BuildUniqueID(companyID, companyName string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s", companyID, companyName, start.Format(uniqueIDDateLayout), end.Format(uniqueIDDateLayout))
}
