package infra

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLDocumentは取得済みのページHTMLから値を取り出すためのインターフェースです。
type HTMLDocument interface {
	ExtractText(selector string) []string
	FirstText(selector string) string
	ExtractTextByRegex(selector, pattern string) ([]string, error)
}

type htmlDocument struct {
	doc *goquery.Document
}

func NewHTMLDocument(html string) (HTMLDocument, error) {
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &htmlDocument{doc: document}, nil
}

// ExtractText は特定のセレクタにマッチする要素のテキストを抽出します。
// 前後の空白は取り除き、空の要素は含めません。
//
// 使用例:
//
//   - リスト項目の抽出: ExtractText("li")
//     入力: <ul><li>項目1</li><li> 項目2 </li></ul>
//     出力: ["項目1", "項目2"]
func (h *htmlDocument) ExtractText(selector string) []string {
	var texts []string
	h.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// FirstText は最初にマッチした要素のテキストを返します。見つからなければ空文字です。
func (h *htmlDocument) FirstText(selector string) string {
	if selector == "" {
		return ""
	}
	texts := h.ExtractText(selector)
	if len(texts) == 0 {
		return ""
	}
	return texts[0]
}

// ExtractTextByRegex は特定のセレクタにマッチする要素を抽出し、
// その要素のテキストに対して正規表現パターンを適用してマッチした文字列を返します。
//
// 使用例:
//
//   - 給与の抽出: ExtractTextByRegex(".salary", `時給[\d,]+円`)
//     入力: <div class="salary">時給1,200円〜 交通費支給</div>
//     出力: ["時給1,200円"]
func (h *htmlDocument) ExtractTextByRegex(selector, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var matches []string
	h.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		found := re.FindAllString(s.Text(), -1)
		if found != nil {
			matches = append(matches, found...)
		}
	})

	return matches, nil
}
