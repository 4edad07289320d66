package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

// Excelのシリアル値の起点
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// 9999/12/31
const maxSerial = 2958465

var dateSeparatorReplacer = strings.NewReplacer(
	"年", "/",
	"月", "/",
	"日", "",
	"-", "/",
	".", "/",
)

// ToCalendarDateはセル値を暦日(UTCの0時)に変換します。
// time.Time、1899/12/30起点のシリアル値、"/" または "-" 区切りの文字列(ISO形式を含む)を受け付けます。
func ToCalendarDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case model.DateCell:
		return ToCalendarDate(x.Raw())
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC), true
	case float64:
		return serialToDate(x)
	case float32:
		return serialToDate(float64(x))
	case int:
		return serialToDate(float64(x))
	case int64:
		return serialToDate(float64(x))
	case string:
		return parseDateString(x)
	default:
		return time.Time{}, false
	}
}

func serialToDate(serial float64) (time.Time, bool) {
	if serial < 1 || serial > maxSerial {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(math.Floor(serial))), true
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(NormalizeText(s))
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return serialToDate(f)
	}

	// 時刻部分は暦日の判定に使わない
	if idx := strings.IndexAny(s, "T "); idx > 0 {
		s = s[:idx]
	}
	s = dateSeparatorReplacer.Replace(s)

	t, err := time.Parse("2006/1/2", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SameCalendarDateは2つのセル値が同じ暦日かどうかを返します。どちらかが日付でなければfalseです。
func SameCalendarDate(a, b any) bool {
	da, ok := ToCalendarDate(a)
	if !ok {
		return false
	}
	db, ok := ToCalendarDate(b)
	if !ok {
		return false
	}
	return da.Equal(db)
}

// WeeksBetweenは掲載週数を返します。日数、週数の順にそれぞれ切り上げます。
//
// 例: 7日間 → 1週, 8日間 → 2週
func WeeksBetween(start, end time.Time) int {
	days := math.Ceil(math.Abs(end.Sub(start).Hours()) / 24)
	return int(math.Ceil(days / 7))
}
