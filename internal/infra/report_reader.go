package infra

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nrad-K/trend-crawler/internal/constants"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// ErrMissingColumnはレポートに必須の列がないことを表します。
var ErrMissingColumn = errors.New("レポートに必須の列がありません")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReportReaderはダウンロードしたレポートを読み込みます。
type ReportReader interface {
	Read(path string) ([]model.RawRecord, error)
}

type reportReader struct{}

func NewReportReader() ReportReader {
	return &reportReader{}
}

// Readはレポートファイルを読み込み、RawRecordの一覧を返します。
// xlsxは1枚目のシート、それ以外は区切り文字付きテキストとして読みます。見出しのみの場合は空の一覧です。
func (r *reportReader) Read(path string) ([]model.RawRecord, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbookRows(path)
	default:
		rows, err = readDelimitedRows(path)
	}
	if err != nil {
		return nil, err
	}
	return parseReportRows(rows)
}

func readWorkbookRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("レポートのブックを開けませんでした: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("レポートのブックにシートがありません: %s", path)
	}
	// 日付セルはシリアル値のまま受け取る
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("レポートのシートの読み込みに失敗しました: %w", err)
	}
	return rows, nil
}

func readDelimitedRows(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("レポートを読み込めませんでした: %w", err)
	}
	text, _, err := DecodeReport(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("レポートの解析に失敗しました: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// DecodeReportはレポートの文字コードを判定してUTF-8の文字列に変換します。
// 判定対象はUTF-8、ISO-2022-JP、Shift_JIS、EUC-JPです。判定した文字コード名も返します。
func DecodeReport(data []byte) (string, string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):]), "UTF-8", nil
	}
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("UTF-16のレポートの変換に失敗しました: %w", err)
		}
		return string(decoded), "UTF-16", nil
	}
	// ISO-2022-JPは7bitなのでUTF-8としても正しく見える
	if bytes.Contains(data, []byte("\x1b$B")) || bytes.Contains(data, []byte("\x1b$@")) {
		decoded, err := japanese.ISO2022JP.NewDecoder().Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("ISO-2022-JPのレポートの変換に失敗しました: %w", err)
		}
		return string(decoded), "ISO-2022-JP", nil
	}
	if utf8.Valid(data) {
		return string(data), "UTF-8", nil
	}

	// Shift_JISとEUC-JPは両方で変換し、不正な文字と半角カナが少ない方を採用する
	candidates := []struct {
		name string
		enc  encoding.Encoding
	}{
		{"Shift_JIS", japanese.ShiftJIS},
		{"EUC-JP", japanese.EUCJP},
	}
	best, bestName, bestScore := "", "", -1
	for _, c := range candidates {
		decoded, err := c.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(decoded)
		score := decodeScore(text)
		if bestScore < 0 || score < bestScore {
			best, bestName, bestScore = text, c.name, score
		}
	}
	if bestScore < 0 {
		return "", "", fmt.Errorf("レポートの文字コードを判定できませんでした")
	}
	return best, bestName, nil
}

func decodeScore(text string) int {
	score := 0
	for _, r := range text {
		switch {
		case r == utf8.RuneError:
			score += 10
		case r >= 0xFF61 && r <= 0xFF9F:
			score++
		}
	}
	return score
}

// detectDelimiterは先頭行のタブとカンマの数で区切り文字を決めます。
func detectDelimiter(text string) rune {
	first := text
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		first = text[:idx]
	}
	if strings.Count(first, "\t") > strings.Count(first, ",") {
		return '\t'
	}
	return ','
}

func parseReportRows(rows [][]string) ([]model.RawRecord, error) {
	headerIdx := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return []model.RawRecord{}, nil
	}

	columns := mapReportHeader(rows[headerIdx])
	var missing []string
	for _, f := range constants.RequiredReportFields {
		if _, ok := columns[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	records := make([]model.RawRecord, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		if isBlankRow(row) {
			continue
		}
		cell := func(f constants.ReportField) string {
			i, ok := columns[f]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		records = append(records, model.RawRecord{
			Plan:               cell(constants.FieldPlan),
			ListPV:             parseCount(cell(constants.FieldListPV)),
			DetailPV:           parseCount(cell(constants.FieldDetailPV)),
			WebApplications:    parseCount(cell(constants.FieldWebApplications)),
			TelApplications:    parseCount(cell(constants.FieldTelApplications)),
			PerfStart:          model.NewDateCell(cell(constants.FieldPerfStart)),
			PerfEnd:            model.NewDateCell(cell(constants.FieldPerfEnd)),
			AppStart:           model.NewDateCell(cell(constants.FieldAppStart)),
			AppEnd:             model.NewDateCell(cell(constants.FieldAppEnd)),
			Weeks:              parseCount(cell(constants.FieldWeeks)),
			JobNumber:          cell(constants.FieldJobNumber),
			JobCategoryRawText: cell(constants.FieldJobCategory),
			SalaryRawText:      cell(constants.FieldSalary),
		})
	}
	return records, nil
}

func mapReportHeader(header []string) map[constants.ReportField]int {
	columns := make(map[constants.ReportField]int)
	for i, h := range header {
		key := headerKey(h)
		if key == "" {
			continue
		}
		for field, aliases := range constants.ReportHeaderAliases {
			if _, done := columns[field]; done {
				continue
			}
			for _, alias := range aliases {
				if key == headerKey(alias) {
					columns[field] = i
					break
				}
			}
		}
	}
	return columns
}

func headerKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToUpper(strings.ReplaceAll(service.NormalizeText(s), " ", ""))
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCountは "1,234" のような件数を数値に変換します。変換できない場合は0です。
func parseCount(s string) int {
	s = strings.ReplaceAll(service.NormalizeText(s), ",", "")
	if s == "" || s == "-" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
