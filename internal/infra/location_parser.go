package infra

import (
	"strings"
	"unicode/utf8"

	"github.com/nrad-K/trend-crawler/internal/constants"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
)

// Locationは住所1行から取り出した都道府県と市区町村です。
type Location struct {
	Prefecture string
	City       string
	Raw        string
}

// ParseLocationは住所文字列から都道府県と市区町村を特定します。
// 都道府県が特定できない場合は、ok=falseを返します。
func ParseLocation(address string) (Location, bool) {
	s := service.NormalizeText(address)
	if s == "" {
		return Location{}, false
	}

	// 先頭一致を優先し、なければ文中の都道府県名を探す
	pref, ok := service.FindPrefecture(s)
	if !ok {
		for _, p := range service.Prefectures() {
			if strings.Contains(s, p.Name) {
				pref, ok = p, true
				break
			}
		}
	}
	if !ok {
		return Location{Raw: s}, false
	}

	var rest string
	if idx := strings.Index(s, pref.Name); idx >= 0 {
		rest = s[idx+len(pref.Name):]
	} else {
		// "大阪市" のように略記の直後が市区町村の接尾辞なら、略記も市区町村名の一部
		short := pref.ShortName()
		idx := strings.Index(s, short)
		rest = s[idx+len(short):]
		if r, _ := utf8.DecodeRuneInString(rest); strings.ContainsRune("市区町村", r) {
			rest = s[idx:]
		}
	}

	loc := Location{Prefecture: pref.Name, Raw: s}
	if match := constants.CityPattern.FindStringSubmatch(rest); len(match) >= 2 {
		loc.City = match[1]
	}
	return loc, true
}
