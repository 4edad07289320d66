package model

import (
	"strings"
	"time"
)

// openEndMarkersは掲載終了日の欄に入る「掲載継続中」を表す値です。
var openEndMarkers = map[string]struct{}{
	"掲載中":   {},
	"掲載継続中": {},
	"継続中":   {},
	"-":     {},
	"－":     {},
	"ー":     {},
}

// DateCellはレポートやシートのセルに入っていた日付値をそのまま保持します。
// 値は time.Time、Excelのシリアル値(float64/int)、日付文字列のいずれかです。
type DateCell struct {
	raw any
}

func NewDateCell(raw any) DateCell {
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	return DateCell{raw: raw}
}

// DateCellOfは日付から DateCell を作ります。
func DateCellOf(t time.Time) DateCell {
	return DateCell{raw: t}
}

func (d DateCell) Raw() any {
	return d.raw
}

// IsEmptyはセルが空かどうかを返します。
func (d DateCell) IsEmpty() bool {
	if d.raw == nil {
		return true
	}
	if s, ok := d.raw.(string); ok {
		return s == ""
	}
	if t, ok := d.raw.(time.Time); ok {
		return t.IsZero()
	}
	return false
}

// IsOpenは掲載終了日が「掲載継続中」の目印かどうかを返します。
func (d DateCell) IsOpen() bool {
	s, ok := d.raw.(string)
	if !ok {
		return false
	}
	_, found := openEndMarkers[s]
	return found
}

// RawRecordはダウンロードしたレポートの1行です。
type RawRecord struct {
	Plan               string
	ListPV             int
	DetailPV           int
	WebApplications    int
	TelApplications    int
	PerfStart          DateCell
	PerfEnd            DateCell
	AppStart           DateCell
	AppEnd             DateCell
	Weeks              int
	JobNumber          string
	JobCategoryRawText string
	SalaryRawText      string
}
