package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

const (
	similarityThreshold = 0.3
	exactSmallBonus     = 0.1
	tieWindow           = 0.05
)

// Matcherは候補の中から最も近いものを選ぶ外部の照合器です(AI)。
// 該当なしの場合は空文字を返します。
type Matcher interface {
	BestMatch(ctx context.Context, text string, options []string, hint string) (string, error)
}

// DefaultPlansはタクソノミーにプラン一覧がない場合に使う固定のプラン一覧です。
// 記号はCleanPlanNameが認識するプラン記号と揃えています。
var DefaultPlans = []model.Plan{
	{Code: "A", Label: "Aプラン"},
	{Code: "B", Label: "Bプラン"},
	{Code: "O", Label: "Oプラン"},
	{Code: "PEX", Label: "PEXプラン"},
	{Code: "EL", Label: "ELプラン"},
	{Code: "PL", Label: "PLプラン"},
}

var (
	keywordSplitPattern  = regexp.MustCompile(`[\s、,・/()「」【】\[\]]+`)
	rawCategorySeparator = regexp.MustCompile(`\s*[/>＞→]\s*`)
)

// Classifierは職種・地方・プラン・給与を分類します。
type Classifier struct {
	taxonomy model.Taxonomy
	matcher  Matcher
}

// NewClassifierはClassifierを生成します。matcherがnilの場合はAIを使わずに分類します。
func NewClassifier(taxonomy model.Taxonomy, matcher Matcher) *Classifier {
	if len(taxonomy.Plans) == 0 {
		taxonomy.Plans = DefaultPlans
	}
	return &Classifier{taxonomy: taxonomy, matcher: matcher}
}

// Classifyはレポート行とプレビュー情報から分類結果を作ります。
func (c *Classifier) Classify(ctx context.Context, category model.Category, record model.RawRecord, preview model.PreviewAttributes) model.ClassificationResult {
	result := model.ClassificationResult{
		Plan: c.ClassifyPlan(ctx, record.Plan),
	}

	jobText := preview.JobCategoryRawText
	if jobText == "" {
		jobText = record.JobCategoryRawText
	}
	if jc := c.ClassifyJobCategory(ctx, jobText, category); jc != nil {
		result.JobCategory = *jc
	}

	result.Region = c.ClassifyRegion(ctx, preview.Prefecture)

	salaryText := preview.SalaryRawAmount
	if salaryText == "" {
		salaryText = record.SalaryRawText
	}
	salaryType := preview.SalaryType
	if salaryType == "" && category.IsNight() {
		salaryType = string(ExtractSalaryForm(salaryText))
	}
	result.SalaryType = salaryType
	result.SalaryAmount = NormalizeSalaryAmount(salaryText, salaryType, category.IsNight())

	return result
}

// ClassifyJobCategoryはキーワード一致、類似度、AI、原文分割の順に職種を決めます。
// 入力が空、または職種一覧が空の場合だけnilを返します。
func (c *Classifier) ClassifyJobCategory(ctx context.Context, rawText string, category model.Category) *model.JobCategory {
	taxonomy := c.taxonomy.JobCategories(category)
	return classifyJobCategory(rawText, taxonomy, category.IsNight(), func(text string) (model.JobCategory, bool) {
		if c.matcher == nil {
			return model.JobCategory{}, false
		}
		options := make([]string, 0, len(taxonomy))
		for _, t := range taxonomy {
			options = append(options, t.Label())
		}
		label, err := c.matcher.BestMatch(ctx, text, options, "求人の職種に最も近い分類を選択")
		if err != nil || label == "" {
			return model.JobCategory{}, false
		}
		return model.JobCategoryByLabel(taxonomy, label)
	})
}

// ClassifyJobCategoryはAIを使わずに職種を分類します。
func ClassifyJobCategory(rawText string, taxonomy []model.JobCategory, isNight bool) *model.JobCategory {
	return classifyJobCategory(rawText, taxonomy, isNight, nil)
}

func classifyJobCategory(rawText string, taxonomy []model.JobCategory, isNight bool, ai func(string) (model.JobCategory, bool)) *model.JobCategory {
	text := NormalizeText(rawText)
	if text == "" || len(taxonomy) == 0 {
		return nil
	}

	parts := splitCategoryParts(text)
	cleaned := CleanJobCategoryLabel(text)

	// ナイトの自由記述と複数列挙はキーワード一致を使わない
	if len(parts) <= 1 && !isNight {
		if entry, ok := matchByKeyword(cleaned, taxonomy); ok {
			return &entry
		}
	}

	if entry, _, ok := matchBySimilarity(parts, taxonomy); ok {
		return &entry
	}

	if ai != nil {
		if entry, ok := ai(cleaned); ok {
			return &entry
		}
	}

	fallback := SplitRawJobCategory(cleaned)
	return &fallback
}

func splitCategoryParts(text string) []string {
	var parts []string
	for _, p := range strings.Split(text, "、") {
		p = CleanJobCategoryLabel(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func matchByKeyword(text string, taxonomy []model.JobCategory) (model.JobCategory, bool) {
	lower := strings.ToLower(text)
	var tokens []string
	for _, tok := range keywordSplitPattern.Split(lower, -1) {
		if utf8.RuneCountInString(tok) >= 2 {
			tokens = append(tokens, tok)
		}
	}

	for _, entry := range taxonomy {
		fields := entryFields(entry)
		for _, f := range fields {
			if strings.Contains(lower, f) {
				return entry, true
			}
		}
		for _, tok := range tokens {
			for _, f := range fields {
				if strings.Contains(f, tok) {
					return entry, true
				}
			}
		}
	}
	return model.JobCategory{}, false
}

func entryFields(entry model.JobCategory) []string {
	fields := make([]string, 0, 3)
	for _, f := range []string{entry.Large, entry.Medium, entry.Small} {
		f = strings.ToLower(NormalizeText(f))
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

type similarityCandidate struct {
	entry model.JobCategory
	part  string
	score float64
}

// matchBySimilarityは各部分と各職種の組み合わせで類似度を求め、最も高いものを返します。
// 最高値から0.05以内の組み合わせは、より短い(具体的な)部分を優先します。
func matchBySimilarity(parts []string, taxonomy []model.JobCategory) (model.JobCategory, float64, bool) {
	var candidates []similarityCandidate
	best := 0.0
	for _, part := range parts {
		for _, entry := range taxonomy {
			score := TokenSimilarity(part, entry.Large+" "+entry.Medium+" "+entry.Small)
			if strings.EqualFold(part, NormalizeText(entry.Small)) {
				score += exactSmallBonus
			}
			candidates = append(candidates, similarityCandidate{entry: entry, part: part, score: score})
			if score > best {
				best = score
			}
		}
	}
	if best < similarityThreshold {
		return model.JobCategory{}, 0, false
	}

	var near []similarityCandidate
	for _, c := range candidates {
		if c.score >= best-tieWindow && c.score >= similarityThreshold {
			near = append(near, c)
		}
	}
	// 部分が短い順、同じ長さなら類似度が高い順
	sort.SliceStable(near, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(near[i].part), utf8.RuneCountInString(near[j].part)
		if li != lj {
			return li < lj
		}
		return near[i].score > near[j].score
	})
	return near[0].entry, near[0].score, true
}

// TokenSimilarityは空白区切りのトークン集合の重なり(共通部分/和集合)を返します。
// 閾値0.3と加点0.1はこの指標に合わせて調整されています。
func TokenSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	union := make(map[string]struct{}, len(setA)+len(setB))
	intersection := 0
	for t := range setA {
		union[t] = struct{}{}
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	for t := range setB {
		union[t] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(NormalizeText(s))) {
		set[f] = struct{}{}
	}
	return set
}

// SplitRawJobCategoryは原文を "/" や ">" で区切って大・中・小分類に当てはめます。
// 足りない階層は一つ上の階層の値で埋めます。
func SplitRawJobCategory(text string) model.JobCategory {
	first := text
	if idx := strings.Index(first, "、"); idx >= 0 {
		first = first[:idx]
	}
	first = CleanJobCategoryLabel(first)

	var levels []string
	for _, l := range rawCategorySeparator.Split(first, -1) {
		if l = strings.TrimSpace(l); l != "" {
			levels = append(levels, l)
		}
	}
	if len(levels) == 0 {
		levels = []string{first}
	}
	for len(levels) < 3 {
		levels = append(levels, levels[len(levels)-1])
	}
	return model.JobCategory{Large: levels[0], Medium: levels[1], Small: levels[2]}
}

// ClassifyRegionは都道府県から地方区分を返します。
// 固定の対応表にない場合はAIに地方区分の候補から選ばせます。該当なしは空文字です。
func (c *Classifier) ClassifyRegion(ctx context.Context, prefecture string) string {
	pref := NormalizeText(prefecture)
	if pref == "" {
		return ""
	}
	if region, ok := c.taxonomy.PrefectureRegions[pref]; ok {
		return region
	}
	if p, ok := FindPrefecture(pref); ok {
		return p.Region
	}
	if c.matcher == nil || len(c.taxonomy.Regions) == 0 {
		return ""
	}
	region, err := c.matcher.BestMatch(ctx, pref, c.taxonomy.Regions, "都道府県名から地方区分を選択")
	if err != nil {
		return ""
	}
	return region
}

// ClassifyPlanはプラン名を固定のプラン一覧に当てはめます。
// ラベルの部分一致、プラン記号の一致、AIの順に試し、該当なしは空文字です。
func (c *Classifier) ClassifyPlan(ctx context.Context, rawPlan string) string {
	text := strings.ToUpper(NormalizeText(CleanPlanName(rawPlan)))
	if text == "" {
		return ""
	}
	if plan, ok := MatchPlan(text, c.taxonomy.Plans); ok {
		return plan.Label
	}
	if c.matcher == nil {
		return ""
	}
	label, err := c.matcher.BestMatch(ctx, rawPlan, c.taxonomy.PlanLabels(), "掲載プラン名を選択")
	if err != nil {
		return ""
	}
	return label
}

// MatchPlanはラベルの部分一致、次にプラン記号の一致でプランを探します(大文字小文字は区別しない)。
func MatchPlan(text string, plans []model.Plan) (model.Plan, bool) {
	upper := strings.ToUpper(NormalizeText(text))
	for _, p := range plans {
		if p.Label != "" && strings.Contains(upper, strings.ToUpper(NormalizeText(p.Label))) {
			return p, true
		}
	}

	// 長い記号から照合しないと "PEX" が "P" などに先取りされる
	byCode := append([]model.Plan(nil), plans...)
	sort.SliceStable(byCode, func(i, j int) bool {
		return len(byCode[i].Code) > len(byCode[j].Code)
	})
	for _, p := range byCode {
		if p.Code == "" {
			continue
		}
		code := strings.ToUpper(p.Code)
		if upper == code || planCodePattern(code).MatchString(upper) {
			return p, true
		}
	}
	return model.Plan{}, false
}

func planCodePattern(code string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^A-Z])` + regexp.QuoteMeta(code) + `\s*(プラン|PLAN)`)
}
