package model

import "strconv"

// SalaryAmountは正規化後の給与額です。
// 数値に還元できない範囲表記(例: 21万円〜22万円)は文字列のまま保持します。
type SalaryAmount struct {
	number int
	text   string
	isText bool
}

func NewNumberAmount(value int) SalaryAmount {
	return SalaryAmount{number: value}
}

func NewTextAmount(text string) SalaryAmount {
	return SalaryAmount{text: text, isText: true}
}

func (a SalaryAmount) IsText() bool {
	return a.isText
}

func (a SalaryAmount) Number() int {
	return a.number
}

func (a SalaryAmount) Text() string {
	return a.text
}

// CellValueはシートへ書き込む値を返します。数値はintのまま書き込みます。
func (a SalaryAmount) CellValue() any {
	if a.isText {
		return a.text
	}
	return a.number
}

func (a SalaryAmount) String() string {
	if a.isText {
		return a.text
	}
	return strconv.Itoa(a.number)
}

// JobCategoryは職種の大・中・小分類です。
type JobCategory struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
}

// Labelは分類を "大/中/小" 形式で返します。AIマッチャーの候補文字列にも使います。
func (j JobCategory) Label() string {
	return j.Large + "/" + j.Medium + "/" + j.Small
}

// PreviewAttributesはプレビュー画面から取得した求人の付帯情報です。
// 取得できなかった項目は空文字になります。
type PreviewAttributes struct {
	Prefecture         string
	City               string
	Station            string
	JobCategoryRawText string
	SalaryType         string
	SalaryRawAmount    string
}

// ClassificationResultは1レコード分の分類結果です。
type ClassificationResult struct {
	Plan         string
	JobCategory  JobCategory
	Region       string
	SalaryType   string
	SalaryAmount SalaryAmount
}
