package infra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// CellStoreはシートのセル単位の読み書きを表します。行番号は1始まりです。
type CellStore interface {
	ReadRows(sheet string) ([][]string, error)
	FindInColumn(sheet, column, value string) (int, bool, error)
	FirstEmptyRow(sheet string, fromRow int) (int, error)
	WriteCell(sheet, column string, row int, value any) error
	Close() error
}

// Workbookはexcelizeで1つのブックを読み書きします。書き込みのたびに保存します。
type Workbook struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// OpenWorkbookはブックを開きます。ファイルがない場合は新しいブックを作ります。
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
		}
		f = excelize.NewFile()
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("ブック %s を開けませんでした: %w", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

// ReadRowsはシートの全行を返します。日付セルはシリアル値の文字列のまま返します。
func (w *Workbook) ReadRows(sheet string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows(sheet)
}

func (w *Workbook) rows(sheet string) ([][]string, error) {
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("シート名が不正です: %s: %w", sheet, err)
	}
	if idx < 0 {
		return nil, nil
	}
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("シート %s の読み込みに失敗しました: %w", sheet, err)
	}
	return rows, nil
}

// FindInColumnは列の中からvalueと一致するセルを探し、その行番号を返します。
func (w *Workbook) FindInColumn(sheet, column, value string) (int, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	col, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0, false, fmt.Errorf("列名が不正です: %s: %w", column, err)
	}
	rows, err := w.rows(sheet)
	if err != nil {
		return 0, false, err
	}
	want := strings.TrimSpace(value)
	for i, row := range rows {
		if col-1 < len(row) && strings.TrimSpace(row[col-1]) == want {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// FirstEmptyRowはfromRow以降で全セルが空の最初の行番号を返します。
func (w *Workbook) FirstEmptyRow(sheet string, fromRow int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if fromRow < 1 {
		fromRow = 1
	}
	rows, err := w.rows(sheet)
	if err != nil {
		return 0, err
	}
	for i := fromRow - 1; i < len(rows); i++ {
		if isBlankRow(rows[i]) {
			return i + 1, nil
		}
	}
	if len(rows)+1 > fromRow {
		return len(rows) + 1, nil
	}
	return fromRow, nil
}

// WriteCellは1セルを書き込み、ブックを保存します。シートがなければ作成します。
func (w *Workbook) WriteCell(sheet, column string, row int, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("シート名が不正です: %s: %w", sheet, err)
	}
	if idx < 0 {
		if _, err := w.file.NewSheet(sheet); err != nil {
			return fmt.Errorf("シート %s の作成に失敗しました: %w", sheet, err)
		}
	}

	cell, err := excelize.CoordinatesToCellName(columnNumber(column), row)
	if err != nil {
		return fmt.Errorf("セル位置が不正です: %s%d: %w", column, row, err)
	}
	if err := w.file.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("セル %s!%s の書き込みに失敗しました: %w", sheet, cell, err)
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("ブック %s の保存に失敗しました: %w", w.path, err)
	}
	return nil
}

func columnNumber(column string) int {
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0
	}
	return n
}

func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
