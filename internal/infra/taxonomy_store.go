package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// ErrNoTaxonomyは分類マスタに職種が1件もないことを表します。
var ErrNoTaxonomy = errors.New("分類マスタに職種がありません")

// 分類マスタのブックのシート名
const (
	taxonomyNormalSheet = "normal"
	taxonomyNightSheet  = "night"
	taxonomyPlanSheet   = "plans"
	taxonomyRegionSheet = "regions"
)

// LoadTaxonomyはJSON形式の分類マスタを読み込みます。
func LoadTaxonomy(path string) (model.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Taxonomy{}, fmt.Errorf("分類マスタを読み込めませんでした: %w", err)
	}
	var t model.Taxonomy
	if err := json.Unmarshal(data, &t); err != nil {
		return model.Taxonomy{}, fmt.Errorf("分類マスタの解析に失敗しました: %w", err)
	}
	if len(t.NormalJobCategories) == 0 && len(t.NightJobCategories) == 0 {
		return model.Taxonomy{}, fmt.Errorf("%s: %w", path, ErrNoTaxonomy)
	}
	return t, nil
}

// SaveTaxonomyは分類マスタをJSONで保存します。
func SaveTaxonomy(path string, t model.Taxonomy) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("分類マスタのJSON変換に失敗しました: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("分類マスタの書き込みに失敗しました: %w", err)
	}
	return nil
}

// ConvertTaxonomyWorkbookは分類マスタのExcelブックを読み込みます。
//
// シート構成:
//
//	normal, night: 大分類 / 中分類 / 小分類 の3列
//	plans: 記号 / プラン名 の2列 (任意)
//	regions: 地方 / 都道府県 の2列 (任意。都道府県が空の行は地方の候補だけを追加)
//
// いずれのシートも1行目は見出しとして読み飛ばします。
func ConvertTaxonomyWorkbook(path string) (model.Taxonomy, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return model.Taxonomy{}, fmt.Errorf("分類マスタのブックを開けませんでした: %w", err)
	}
	defer f.Close()

	read := func(sheet string) ([][]string, error) {
		idx, err := f.GetSheetIndex(sheet)
		if err != nil || idx < 0 {
			return nil, nil
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("シート %s の読み込みに失敗しました: %w", sheet, err)
		}
		if len(rows) > 0 {
			rows = rows[1:]
		}
		return rows, nil
	}

	var t model.Taxonomy

	for _, s := range []struct {
		sheet string
		dst   *[]model.JobCategory
	}{
		{taxonomyNormalSheet, &t.NormalJobCategories},
		{taxonomyNightSheet, &t.NightJobCategories},
	} {
		rows, err := read(s.sheet)
		if err != nil {
			return model.Taxonomy{}, err
		}
		for _, r := range rows {
			jc := model.JobCategory{Large: cellAt(r, 0), Medium: cellAt(r, 1), Small: cellAt(r, 2)}
			if jc.Large == "" && jc.Medium == "" && jc.Small == "" {
				continue
			}
			*s.dst = append(*s.dst, jc)
		}
	}
	if len(t.NormalJobCategories) == 0 && len(t.NightJobCategories) == 0 {
		return model.Taxonomy{}, fmt.Errorf("%s: %w", path, ErrNoTaxonomy)
	}

	plans, err := read(taxonomyPlanSheet)
	if err != nil {
		return model.Taxonomy{}, err
	}
	for _, r := range plans {
		if p := (model.Plan{Code: cellAt(r, 0), Label: cellAt(r, 1)}); p.Code != "" || p.Label != "" {
			t.Plans = append(t.Plans, p)
		}
	}

	regions, err := read(taxonomyRegionSheet)
	if err != nil {
		return model.Taxonomy{}, err
	}
	seen := map[string]bool{}
	for _, r := range regions {
		region, pref := cellAt(r, 0), cellAt(r, 1)
		if region == "" {
			continue
		}
		if !seen[region] {
			seen[region] = true
			t.Regions = append(t.Regions, region)
		}
		if pref != "" {
			if t.PrefectureRegions == nil {
				t.PrefectureRegions = map[string]string{}
			}
			t.PrefectureRegions[pref] = region
		}
	}

	return t, nil
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
