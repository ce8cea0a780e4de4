package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"twcompany/normalization"
	"twcompany/reconcile"
)

// NoColumn колонка не выбрана
const NoColumn = -1

// ErrUnsupportedFormat расширение входного файла не поддерживается
var ErrUnsupportedFormat = errors.New("unsupported input file type")

// Table входная таблица: заголовки и строки данных
type Table struct {
	Headers []string
	Rows    [][]string
}

// ColumnSelection выбранные колонки 統一編號 и названия
type ColumnSelection struct {
	IDColumn   int `json:"id_column"`
	NameColumn int `json:"name_column"`
}

// ReadFile читает таблицу из файла .xlsx или .csv
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return Read(filepath.Base(path), file)
}

// Read выбирает формат по расширению имени файла
func Read(name string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ReadWorkbook читает первый лист книги Excel
func ReadWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	return newTable(rows)
}

// ReadCSV читает CSV в UTF-8 (с BOM или без) или Big5
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode Big5 CSV: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	return newTable(rows)
}

func newTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("input has no header row")
	}

	table := &Table{Headers: make([]string, len(rows[0]))}
	for i, header := range rows[0] {
		table.Headers[i] = normalization.TrimSpace(header)
	}

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// DetectColumns выбирает колонки по заголовкам: 統一編號 - первая колонка,
// содержащая "編" или "ID", название - первая, содержащая "名" или "NAME"
func DetectColumns(headers []string) ColumnSelection {
	selection := ColumnSelection{IDColumn: NoColumn, NameColumn: NoColumn}

	for i, header := range headers {
		upper := strings.ToUpper(header)
		if selection.IDColumn == NoColumn && (strings.Contains(header, "編") || strings.Contains(upper, "ID")) {
			selection.IDColumn = i
		}
		if selection.NameColumn == NoColumn && (strings.Contains(header, "名") || strings.Contains(upper, "NAME")) {
			selection.NameColumn = i
		}
	}
	return selection
}

// ColumnIndex возвращает индекс колонки по заголовку или NoColumn
func (t *Table) ColumnIndex(header string) int {
	header = normalization.TrimSpace(header)
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return NoColumn
}

// Select выбирает колонки по тексту заголовков. Если оба заголовка пустые,
// колонки определяются автоматически через DetectColumns.
func (t *Table) Select(idHeader, nameHeader string) (ColumnSelection, error) {
	if idHeader == "" && nameHeader == "" {
		return DetectColumns(t.Headers), nil
	}

	selection := ColumnSelection{IDColumn: NoColumn, NameColumn: NoColumn}
	if idHeader != "" {
		if selection.IDColumn = t.ColumnIndex(idHeader); selection.IDColumn == NoColumn {
			return selection, fmt.Errorf("id column %q not found", idHeader)
		}
	}
	if nameHeader != "" {
		if selection.NameColumn = t.ColumnIndex(nameHeader); selection.NameColumn == NoColumn {
			return selection, fmt.Errorf("name column %q not found", nameHeader)
		}
	}
	return selection, nil
}

// Queries превращает строки таблицы в запросы пакетной обработки
func (t *Table) Queries(selection ColumnSelection) ([]reconcile.RawQuery, error) {
	if selection.IDColumn == NoColumn && selection.NameColumn == NoColumn {
		return nil, fmt.Errorf("at least one of id or name column must be selected")
	}
	for _, column := range []int{selection.IDColumn, selection.NameColumn} {
		if column != NoColumn && (column < 0 || column >= len(t.Headers)) {
			return nil, fmt.Errorf("column index %d out of range", column)
		}
	}

	queries := make([]reconcile.RawQuery, 0, len(t.Rows))
	for _, row := range t.Rows {
		queries = append(queries, reconcile.RawQuery{
			ID:   cell(row, selection.IDColumn),
			Name: cell(row, selection.NameColumn),
		})
	}
	return queries, nil
}

func cell(row []string, column int) string {
	if column == NoColumn || column >= len(row) {
		return ""
	}
	return normalization.CleanCell(row[column])
}

func isEmptyRow(row []string) bool {
	for _, value := range row {
		if normalization.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
