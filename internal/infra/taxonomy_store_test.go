package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestConvertTaxonomyWorkbook_RoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheets := map[string][][]any{
		"normal":  {{"大分類", "中分類", "小分類"}, {"飲食・フード", "ホール", "ホールスタッフ"}, {}, {"販売", "アパレル", "販売スタッフ"}},
		"night":   {{"大分類", "中分類", "小分類"}, {"ナイトワーク", "キャバクラ", "キャスト"}},
		"plans":   {{"記号", "プラン名"}, {"A", "Aプラン"}, {"PEX", "PEXプラン"}},
		"regions": {{"地方", "都道府県"}, {"関東", "東京都"}, {"関東", "神奈川県"}, {"その他", ""}},
	}
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, r := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	in := filepath.Join(t.TempDir(), "taxonomy.xlsx")
	require.NoError(t, f.SaveAs(in))
	require.NoError(t, f.Close())

	tax, err := ConvertTaxonomyWorkbook(in)
	require.NoError(t, err)
	assert.Len(t, tax.NormalJobCategories, 2)
	assert.Equal(t, model.JobCategory{Large: "ナイトワーク", Medium: "キャバクラ", Small: "キャスト"}, tax.NightJobCategories[0])
	assert.Equal(t, []model.Plan{{Code: "A", Label: "Aプラン"}, {Code: "PEX", Label: "PEXプラン"}}, tax.Plans)
	assert.Equal(t, []string{"関東", "その他"}, tax.Regions)
	assert.Equal(t, "関東", tax.PrefectureRegions["神奈川県"])

	out := filepath.Join(t.TempDir(), "json", "taxonomy.json")
	require.NoError(t, SaveTaxonomy(out, tax))
	loaded, err := LoadTaxonomy(out)
	require.NoError(t, err)
	assert.Equal(t, tax, loaded)
}

func TestLoadTaxonomy_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTaxonomy(filepath.Join(dir, "none.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"regions":["関東"]}`), 0644))
	_, err = LoadTaxonomy(empty)
	assert.ErrorIs(t, err, ErrNoTaxonomy)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0644))
	_, err = LoadTaxonomy(broken)
	assert.Error(t, err)
}
