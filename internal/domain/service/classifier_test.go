package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatcher struct {
	answers map[string]string
	err     error
	calls   int
}

func (m *stubMatcher) BestMatch(_ context.Context, text string, _ []string, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.answers[text], nil
}

func testTaxonomy() model.Taxonomy {
	return model.Taxonomy{
		Regions: []string{"北海道", "東北", "関東", "中部", "近畿", "中国", "四国", "九州・沖縄", "その他"},
		NormalJobCategories: []model.JobCategory{
			{Large: "飲食・フード", Medium: "ホール", Small: "ホールスタッフ"},
			{Large: "飲食・フード", Medium: "キッチン", Small: "調理補助"},
			{Large: "販売", Medium: "アパレル", Small: "販売スタッフ"},
			{Large: "事務", Medium: "一般事務", Small: "データ入力"},
		},
		NightJobCategories: []model.JobCategory{
			{Large: "ナイトワーク", Medium: "キャバクラ", Small: "ホールスタッフ"},
			{Large: "ナイトワーク", Medium: "キャバクラ", Small: "キャスト"},
		},
	}
}

func TestClassifyJobCategory_Keyword(t *testing.T) {
	taxonomy := testTaxonomy().NormalJobCategories

	got := ClassifyJobCategory("(1)ホールスタッフ募集", taxonomy, false)
	require.NotNil(t, got)
	assert.Equal(t, "ホールスタッフ", got.Small)

	// 入力のトークンが分類名に含まれる方向
	got = ClassifyJobCategory("データ", taxonomy, false)
	require.NotNil(t, got)
	assert.Equal(t, "データ入力", got.Small)
}

func TestClassifyJobCategory_Similarity(t *testing.T) {
	taxonomy := testTaxonomy().NormalJobCategories

	got := ClassifyJobCategory("ホール、調理補助", taxonomy, false)
	require.NotNil(t, got)
	assert.Equal(t, "調理補助", got.Small)

	// 同点圏内では短い部分を優先
	got = ClassifyJobCategory("キッチン、ホール", taxonomy, false)
	require.NotNil(t, got)
	assert.Equal(t, "ホールスタッフ", got.Small)
}

func TestClassifyJobCategory_NightSkipsKeyword(t *testing.T) {
	taxonomy := testTaxonomy().NightJobCategories

	got := ClassifyJobCategory("キャスト", taxonomy, true)
	require.NotNil(t, got)
	assert.Equal(t, "キャスト", got.Small)

	got = ClassifyJobCategory("キャバクラのホール担当", taxonomy, true)
	require.NotNil(t, got)
	assert.Equal(t, model.JobCategory{Large: "キャバクラのホール担当", Medium: "キャバクラのホール担当", Small: "キャバクラのホール担当"}, *got)
}

func TestClassifyJobCategory_FallbackSplit(t *testing.T) {
	got := ClassifyJobCategory("営業/法人営業/ルート営業", testTaxonomy().NormalJobCategories, false)
	require.NotNil(t, got)
	assert.Equal(t, model.JobCategory{Large: "営業", Medium: "法人営業", Small: "ルート営業"}, *got)

	got = ClassifyJobCategory("[3]警備>施設警備", testTaxonomy().NormalJobCategories, false)
	require.NotNil(t, got)
	assert.Equal(t, model.JobCategory{Large: "警備", Medium: "施設警備", Small: "施設警備"}, *got)
}

func TestClassifyJobCategory_Nil(t *testing.T) {
	assert.Nil(t, ClassifyJobCategory("", testTaxonomy().NormalJobCategories, false))
	assert.Nil(t, ClassifyJobCategory("   ", testTaxonomy().NormalJobCategories, false))
	assert.Nil(t, ClassifyJobCategory("ホール", nil, false))
}

func TestClassifyJobCategory_NeverNilForInput(t *testing.T) {
	taxonomy := testTaxonomy().NormalJobCategories
	for _, in := range []string{"x", "①", "、、", "【】", "(1)", "???", "ホール、", "a/b/c/d"} {
		assert.NotNil(t, ClassifyJobCategory(in, taxonomy, false), in)
		assert.NotNil(t, ClassifyJobCategory(in, taxonomy, true), in)
	}
}

func TestClassifier_ClassifyJobCategoryUsesMatcher(t *testing.T) {
	matcher := &stubMatcher{answers: map[string]string{"オフィスワーク": "事務/一般事務/データ入力"}}
	c := NewClassifier(testTaxonomy(), matcher)

	got := c.ClassifyJobCategory(context.Background(), "オフィスワーク", model.CategoryNormal)
	require.NotNil(t, got)
	assert.Equal(t, "データ入力", got.Small)
	assert.Equal(t, 1, matcher.calls)
}

func TestClassifier_MatcherErrorDegrades(t *testing.T) {
	matcher := &stubMatcher{err: errors.New("unavailable")}
	c := NewClassifier(testTaxonomy(), matcher)

	got := c.ClassifyJobCategory(context.Background(), "オフィスワーク", model.CategoryNormal)
	require.NotNil(t, got)
	assert.Equal(t, "オフィスワーク", got.Large)
	assert.Equal(t, "", c.ClassifyRegion(context.Background(), "海外"))
}

func TestClassifier_ClassifyRegion(t *testing.T) {
	ctx := context.Background()
	c := NewClassifier(testTaxonomy(), nil)

	assert.Equal(t, "関東", c.ClassifyRegion(ctx, "東京都"))
	assert.Equal(t, "近畿", c.ClassifyRegion(ctx, "大阪"))
	assert.Equal(t, "近畿", c.ClassifyRegion(ctx, "京都府"))
	assert.Equal(t, "近畿", c.ClassifyRegion(ctx, "京都"))
	assert.Equal(t, "北海道", c.ClassifyRegion(ctx, "北海道"))
	assert.Equal(t, "九州・沖縄", c.ClassifyRegion(ctx, "沖縄県那覇市"))
	assert.Equal(t, "", c.ClassifyRegion(ctx, "海外"))
	assert.Equal(t, "", c.ClassifyRegion(ctx, ""))

	matcher := &stubMatcher{answers: map[string]string{"海外": "その他"}}
	c = NewClassifier(testTaxonomy(), matcher)
	assert.Equal(t, "その他", c.ClassifyRegion(ctx, "海外"))
	assert.Equal(t, "関東", c.ClassifyRegion(ctx, "神奈川県"))
	assert.Equal(t, 1, matcher.calls)
}

func TestClassifier_ClassifyPlan(t *testing.T) {
	ctx := context.Background()
	c := NewClassifier(testTaxonomy(), nil)

	assert.Equal(t, "Aプラン", c.ClassifyPlan(ctx, "Aプラン(4週) 特典付き"))
	assert.Equal(t, "PEXプラン", c.ClassifyPlan(ctx, "pexプラン"))
	assert.Equal(t, "PEXプラン", c.ClassifyPlan(ctx, "PEX PLAN 4W"))
	assert.Equal(t, "ELプラン", c.ClassifyPlan(ctx, "ＥＬプラン"))
	assert.Equal(t, "PLプラン", c.ClassifyPlan(ctx, "PLプラン(2週)"))
	assert.Equal(t, "Oプラン", c.ClassifyPlan(ctx, "oプラン"))
	assert.Equal(t, "", c.ClassifyPlan(ctx, "スタンダード"))
	assert.Equal(t, "", c.ClassifyPlan(ctx, ""))

	matcher := &stubMatcher{answers: map[string]string{"スタンダード": "Bプラン"}}
	c = NewClassifier(testTaxonomy(), matcher)
	assert.Equal(t, "Bプラン", c.ClassifyPlan(ctx, "スタンダード"))
}

func TestDefaultPlans_CoverPlanTokens(t *testing.T) {
	require.Len(t, DefaultPlans, 6)
	for _, p := range DefaultPlans {
		assert.Equal(t, p.Label, CleanPlanName(p.Label+"(4週) 特典付き"))
		got, ok := MatchPlan(CleanPlanName(p.Label), DefaultPlans)
		require.True(t, ok, p.Label)
		assert.Equal(t, p, got)
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(testTaxonomy(), nil)
	rec := model.RawRecord{Plan: "Bプラン 2週", JobCategoryRawText: "販売", SalaryRawText: "時給1,100円"}

	got := c.Classify(context.Background(), model.CategoryNormal, rec, model.PreviewAttributes{
		Prefecture:         "福岡県",
		JobCategoryRawText: "(1)ホールスタッフ",
		SalaryType:         "時給",
		SalaryRawAmount:    "時給1,300円〜",
	})

	assert.Equal(t, "Bプラン", got.Plan)
	assert.Equal(t, "ホールスタッフ", got.JobCategory.Small)
	assert.Equal(t, "九州・沖縄", got.Region)
	assert.Equal(t, "時給", got.SalaryType)
	assert.Equal(t, 1300, got.SalaryAmount.Number())

	// プレビューが空なら行の値を使い、ナイトは給与形態を文中から補う
	got = c.Classify(context.Background(), model.CategoryNight, rec, model.PreviewAttributes{})
	assert.Equal(t, "時給", got.SalaryType)
	assert.Equal(t, 1100, got.SalaryAmount.Number())
	assert.Equal(t, "", got.Region)
}

func TestMatchBySimilarity_TieWindow(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		taxonomy []model.JobCategory
		want     model.JobCategory
	}{
		{
			name:  "同じ部分なら類似度が高い方",
			parts: []string{"a b c d e f g h i j k l m n o p q r s t"},
			taxonomy: []model.JobCategory{
				{Large: "a b c d e f g h i j", Medium: "k l m n o p q r s t", Small: "y z"},
				{Large: "a b c d e f g h i j", Medium: "k l m n o p q r s t", Small: "x"},
			},
			want: model.JobCategory{Large: "a b c d e f g h i j", Medium: "k l m n o p q r s t", Small: "x"},
		},
		{
			name:  "0.05以内なら短い部分",
			parts: []string{"a b c d e f g h i j", "a b c d e f g h i"},
			taxonomy: []model.JobCategory{
				{Large: "a b c d e", Medium: "f g h i j", Small: "k"},
				{Large: "a b c d e", Medium: "f g h i", Small: "z"},
			},
			want: model.JobCategory{Large: "a b c d e", Medium: "f g h i", Small: "z"},
		},
		{
			name:  "0.05を超える差なら長い部分でも最高値",
			parts: []string{"a b c d", "a b"},
			taxonomy: []model.JobCategory{
				{Large: "a", Medium: "b", Small: "c d"},
				{Large: "a", Medium: "b", Small: "z"},
			},
			want: model.JobCategory{Large: "a", Medium: "b", Small: "c d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := matchBySimilarity(tt.parts, tt.taxonomy)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, TokenSimilarity("ホール", "飲食 ホール ホールスタッフ"), 1e-9)
	assert.InDelta(t, 1.0, TokenSimilarity("a b", "B A"), 1e-9)
	assert.Equal(t, 0.0, TokenSimilarity("", ""))
}
