package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"golang.org/x/text/width"
)

var (
	// プラン記号("A"〜"Z", "O", "PEX", "EL", "PL") の直後に "プラン" が続く箇所
	planTokenPattern = regexp.MustCompile(`(?i)(PEX|EL|PL|O|[A-Z])\s*(プラン|plan)`)

	// 職種ラベル先頭の番号・括弧タグ (例: (1) [2] ① 【急募】 3.)
	labelPrefixPattern = regexp.MustCompile(`^(?:\s*(?:\(\s*\d+\s*\)|[\[【〔<〈《][^\]】〕>〉》]*[\]】〕>〉》]|[①-⑳]|\d+\s*[.、:]))+\s*`)

	amountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(万)?`)
	tildePattern  = regexp.MustCompile(`[〜~]`)

	// 給与の列挙を区切る文字。"," は桁区切りと区別できないため含めない。
	salaryListSeparators = []string{"、", "/", "\n"}

	// 末尾から除去する通貨表記・区切り
	salaryTrailingMarkers = []string{"円", "以上", "〜", "~", "程度", "前後", "可", "・", "/", " "}
)

// NormalizeTextは全角英数記号を半角に寄せ、制御文字を除き、空白を1つにまとめます。
func NormalizeText(s string) string {
	s = width.Fold.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// CleanPlanNameは最初に見つかったプラン記号以降を切り落とします。
// 記号が見つからない場合は前後の空白を除いた入力をそのまま返します。
//
// 例: "Aプラン(4週) 特典付き" → "Aプラン"
func CleanPlanName(text string) string {
	s := NormalizeText(text)
	loc := planTokenPattern.FindStringIndex(s)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(s[:loc[1]])
}

// CleanJobCategoryLabelは職種ラベル先頭の番号や括弧タグを取り除きます。
func CleanJobCategoryLabel(text string) string {
	s := NormalizeText(text)
	cleaned := strings.TrimSpace(labelPrefixPattern.ReplaceAllString(s, ""))
	if cleaned == "" {
		return s
	}
	return cleaned
}

// ExtractSalaryFormは文中で最初に現れる給与形態を返します。見つからなければUnknownFormです。
func ExtractSalaryForm(text string) model.SalaryForm {
	s := NormalizeText(text)
	found := model.UnknownForm
	best := -1
	for _, form := range model.SalaryForms {
		idx := strings.Index(s, string(form))
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			found = form
		}
	}
	return found
}

// NormalizeSalaryAmountは給与文字列から金額を取り出します。
//
// 手順:
//
//	(a) 先頭の給与形態(時給/日給/月給/月収)を除去
//	(b) 列挙されている場合は最初の要素だけ残す
//	(c) "万" を含む範囲表記は数値に還元できないため文字列のまま返す
//	(d) それ以外は末尾の通貨表記と桁区切りを除き整数に変換する(数字がなければ0)
//
// isNightの場合は給与形態が不明なら文中から形態を探し、範囲記号以降を落としてから変換します。
// どちらの経路も同じ入力に対して同じ値を返します。
func NormalizeSalaryAmount(text string, formType string, isNight bool) model.SalaryAmount {
	s := NormalizeText(text)
	if isNight {
		return normalizeNightSalaryAmount(s, formType)
	}

	s = stripLeadingSalaryForm(s, formType)
	s = firstSalarySegment(s)
	if isManRange(s) {
		return model.NewTextAmount(s)
	}
	return model.NewNumberAmount(parseSalaryNumber(trimSalaryTrailing(s)))
}

func normalizeNightSalaryAmount(s string, formType string) model.SalaryAmount {
	if formType == "" {
		if form := ExtractSalaryForm(s); form != model.UnknownForm {
			idx := strings.Index(s, string(form))
			s = strings.TrimSpace(s[idx+len(form):])
		}
	} else {
		s = stripLeadingSalaryForm(s, formType)
	}

	s = firstSalarySegment(s)
	if isManRange(s) {
		return model.NewTextAmount(s)
	}

	// 範囲記号以降は上限なので落とす
	if loc := tildePattern.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return model.NewNumberAmount(parseSalaryNumber(trimSalaryTrailing(s)))
}

func stripLeadingSalaryForm(s string, formType string) string {
	s = strings.TrimSpace(s)
	if formType != "" && strings.HasPrefix(s, formType) {
		return strings.TrimSpace(strings.TrimPrefix(s, formType))
	}
	for _, form := range model.SalaryForms {
		if strings.HasPrefix(s, string(form)) {
			return strings.TrimSpace(strings.TrimPrefix(s, string(form)))
		}
	}
	return s
}

func firstSalarySegment(s string) string {
	for _, sep := range salaryListSeparators {
		if idx := strings.Index(s, sep); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func isManRange(s string) bool {
	return strings.Contains(s, "万") && tildePattern.MatchString(s)
}

func trimSalaryTrailing(s string) string {
	for {
		trimmed := s
		for _, marker := range salaryTrailingMarkers {
			trimmed = strings.TrimSuffix(trimmed, marker)
		}
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// parseSalaryNumberは桁区切りを除いた最初の数値を整数にします。"万" が続く場合は1万倍します。
func parseSalaryNumber(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[2] != "" {
		value *= 1e4
	}
	return int(math.Round(value))
}
