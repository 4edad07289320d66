package service

import (
	"testing"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func TestCleanPlanName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"単一記号", "Aプラン(4週) 特典付き", "Aプラン"},
		{"PEX", "PEXプラン 12週掲載", "PEXプラン"},
		{"EL", "ELプラン+オプション", "ELプラン"},
		{"全角記号", "Ｂプラン　２週", "Bプラン"},
		{"英語表記", "PL plan extra", "PL plan"},
		{"記号なし", "  スタンダード掲載  ", "スタンダード掲載"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanPlanName(tt.in))
		})
	}
}

func TestCleanJobCategoryLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(1)ホールスタッフ", "ホールスタッフ"},
		{"（２）キッチン", "キッチン"},
		{"[2] 調理補助", "調理補助"},
		{"①販売", "販売"},
		{"【急募】(3)清掃", "清掃"},
		{"3. 受付", "受付"},
		{"事務", "事務"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanJobCategoryLabel(tt.in), tt.in)
	}
}

func TestNormalizeSalaryAmount(t *testing.T) {
	t.Run("時給は数値に変換される", func(t *testing.T) {
		got := NormalizeSalaryAmount("時給1,200円", "時給", false)
		assert.False(t, got.IsText())
		assert.Equal(t, 1200, got.Number())
	})

	t.Run("万の範囲表記は文字列のまま", func(t *testing.T) {
		got := NormalizeSalaryAmount("月収21万円〜22万円", "月収", false)
		assert.True(t, got.IsText())
		assert.Equal(t, "21万円〜22万円", got.Text())
	})

	t.Run("列挙は最初の要素だけ使う", func(t *testing.T) {
		got := NormalizeSalaryAmount("時給1,000円、日給8,000円", "時給", false)
		assert.False(t, got.IsText())
		assert.Equal(t, 1000, got.Number())
	})

	t.Run("円の範囲は下限", func(t *testing.T) {
		got := NormalizeSalaryAmount("日給8,000円〜12,000円", "日給", false)
		assert.Equal(t, 8000, got.Number())
	})

	t.Run("万の単一値は円に換算", func(t *testing.T) {
		got := NormalizeSalaryAmount("月給25万円以上", "月給", false)
		assert.Equal(t, 250000, got.Number())
	})

	t.Run("数字がなければ0", func(t *testing.T) {
		got := NormalizeSalaryAmount("時給応相談", "時給", false)
		assert.False(t, got.IsText())
		assert.Equal(t, 0, got.Number())
	})

	t.Run("全角数字", func(t *testing.T) {
		got := NormalizeSalaryAmount("時給１，５００円", "時給", false)
		assert.Equal(t, 1500, got.Number())
	})
}

func TestNormalizeSalaryAmount_NightMatchesNormal(t *testing.T) {
	inputs := []struct {
		text string
		form string
	}{
		{"時給1,200円", "時給"},
		{"月収21万円〜22万円", "月収"},
		{"時給1,000円、日給8,000円", "時給"},
		{"日給8,000円〜12,000円", "日給"},
		{"月給25万円以上", "月給"},
	}
	for _, in := range inputs {
		normal := NormalizeSalaryAmount(in.text, in.form, false)
		night := NormalizeSalaryAmount(in.text, in.form, true)
		assert.Equal(t, normal, night, in.text)
	}
}

func TestNormalizeSalaryAmount_NightExtractsForm(t *testing.T) {
	got := NormalizeSalaryAmount("体入あり 時給3,000円〜5,000円", "", true)
	assert.Equal(t, 3000, got.Number())

	got = NormalizeSalaryAmount("◆日給2万円〜3万円", "", true)
	assert.Equal(t, "2万円〜3万円", got.Text())
}

func TestExtractSalaryForm(t *testing.T) {
	assert.Equal(t, model.Hourly, ExtractSalaryForm("時給1,200円"))
	assert.Equal(t, model.Daily, ExtractSalaryForm("★日給1万円 / 時給もあり"))
	assert.Equal(t, model.Monthly, ExtractSalaryForm("月収30万円"))
	assert.Equal(t, model.UnknownForm, ExtractSalaryForm("応相談"))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "ABC 123 (test)", NormalizeText("ＡＢＣ　１２３　（test）"))
	assert.Equal(t, "a b", NormalizeText(" a\n\tb "))
}
