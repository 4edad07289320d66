package service

import (
	"errors"
	"time"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

// ErrNoRecordsは照合対象のレコードが1件もないことを表します。
var ErrNoRecords = errors.New("照合対象のレコードがありません")

// ValidationOutcomeはレポート行を掲載期間と応募期間が一致したものと、それ以外に分けた結果です。
// 入力の各レコードはどちらか一方にだけ含まれます。
type ValidationOutcome struct {
	MatchedRecords   []model.RawRecord
	UnmatchedRecords []model.RawRecord
}

// Validateはレコードを一致/不一致に振り分けます。
// 応募期間が空のレコードはタスクの応募期間を補ってから判定します。
//
// args:
//
//	records : レポートから読み込んだ行
//	period  : タスクの応募期間
//
// return:
//
//	ValidationOutcome : 振り分け結果
//	error             : レコードが1件もない場合はErrNoRecords
func Validate(records []model.RawRecord, period model.Period) (ValidationOutcome, error) {
	var outcome ValidationOutcome
	for _, record := range records {
		record = withApplicationPeriod(record, period)
		if IsPeriodMatched(record) {
			outcome.MatchedRecords = append(outcome.MatchedRecords, record)
			continue
		}
		outcome.UnmatchedRecords = append(outcome.UnmatchedRecords, record)
	}

	if len(outcome.MatchedRecords) == 0 && len(outcome.UnmatchedRecords) == 0 {
		return ValidationOutcome{}, ErrNoRecords
	}
	return outcome, nil
}

// IsPeriodMatchedは掲載期間と応募期間が一致しているかを判定します。
// 掲載終了日が掲載継続中の場合は開始日の一致だけを見ます。
func IsPeriodMatched(record model.RawRecord) bool {
	startMatch := SameCalendarDate(record.PerfStart, record.AppStart)
	if record.PerfEnd.IsOpen() {
		return startMatch
	}
	return startMatch && SameCalendarDate(record.PerfEnd, record.AppEnd)
}

func withApplicationPeriod(record model.RawRecord, period model.Period) model.RawRecord {
	if record.AppStart.IsEmpty() && !period.Start.IsZero() {
		record.AppStart = model.DateCellOf(period.Start)
	}
	if record.AppEnd.IsEmpty() && !period.End.IsZero() {
		record.AppEnd = model.DateCellOf(period.End)
	}
	return record
}

// Aggregateは不一致レコードを1行に合算します。
// PVと応募数は合計し、応募期間は最も早い開始日から最も遅い終了日までとし、週数はその期間から求め直します。
// プランや求人番号などの文字列項目は先頭レコードの値を使います。
func Aggregate(unmatched []model.RawRecord) (model.RawRecord, bool) {
	if len(unmatched) == 0 {
		return model.RawRecord{}, false
	}

	first := unmatched[0]
	agg := model.RawRecord{
		Plan:               first.Plan,
		JobNumber:          first.JobNumber,
		JobCategoryRawText: first.JobCategoryRawText,
		SalaryRawText:      first.SalaryRawText,
	}

	var start, end time.Time
	for _, r := range unmatched {
		agg.ListPV += r.ListPV
		agg.DetailPV += r.DetailPV
		agg.WebApplications += r.WebApplications
		agg.TelApplications += r.TelApplications

		if s, ok := ToCalendarDate(r.AppStart); ok && (start.IsZero() || s.Before(start)) {
			start = s
		}
		if e, ok := ToCalendarDate(r.AppEnd); ok && (end.IsZero() || e.After(end)) {
			end = e
		}
	}

	if !start.IsZero() {
		agg.AppStart = model.DateCellOf(start)
		agg.PerfStart = model.DateCellOf(start)
	}
	if !end.IsZero() {
		agg.AppEnd = model.DateCellOf(end)
		agg.PerfEnd = model.DateCellOf(end)
	}
	if !start.IsZero() && !end.IsZero() {
		agg.Weeks = WeeksBetween(start, end)
	}
	return agg, true
}

// OutputRecordsは出力対象のレコードを返します。
// 一致レコードはそれぞれ1行、不一致レコードは合算した1行になります。
func (o ValidationOutcome) OutputRecords() []model.RawRecord {
	out := make([]model.RawRecord, 0, len(o.MatchedRecords)+1)
	for _, r := range o.MatchedRecords {
		if r.Weeks == 0 {
			s, okS := ToCalendarDate(r.AppStart)
			e, okE := ToCalendarDate(r.AppEnd)
			if okS && okE {
				r.Weeks = WeeksBetween(s, e)
			}
		}
		out = append(out, r)
	}
	if agg, ok := Aggregate(o.UnmatchedRecords); ok {
		out = append(out, agg)
	}
	return out
}
