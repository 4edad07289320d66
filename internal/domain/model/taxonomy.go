package model

import "strings"

// Planは固定プラン一覧の1要素です。
type Plan struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Taxonomyは分類に使う静的な参照データです。起動時に一度だけ読み込み、以後変更しません。
type Taxonomy struct {
	Plans               []Plan            `json:"plans"`
	Regions             []string          `json:"regions"`
	PrefectureRegions   map[string]string `json:"prefecture_regions"`
	NormalJobCategories []JobCategory     `json:"normal_job_categories"`
	NightJobCategories  []JobCategory     `json:"night_job_categories"`
}

// JobCategoriesは掲載区分に応じた職種一覧を返します。
func (t Taxonomy) JobCategories(category Category) []JobCategory {
	if category.IsNight() {
		return t.NightJobCategories
	}
	return t.NormalJobCategories
}

// PlanLabelsはAIマッチャーに渡すプラン名の一覧を返します。
func (t Taxonomy) PlanLabels() []string {
	labels := make([]string, 0, len(t.Plans))
	for _, p := range t.Plans {
		labels = append(labels, p.Label)
	}
	return labels
}

// JobCategoryByLabelは "大/中/小" 形式のラベルから分類を引きます。
func JobCategoryByLabel(categories []JobCategory, label string) (JobCategory, bool) {
	label = strings.TrimSpace(label)
	for _, c := range categories {
		if c.Label() == label {
			return c, true
		}
	}
	return JobCategory{}, false
}
