package exporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"twcompany/enrichment"
	"twcompany/reconcile"
)

// Имена листов и файлов
const (
	BasicSheet     = "基本資料"
	DirectorsSheet = "董監事名單"
	TemplateSheet  = "查詢清單"

	ResultFileName   = "批量查詢結果.xlsx"
	TemplateFileName = "批量查詢範例.xlsx"

	fontFamily = "Microsoft JhengHei"
)

// headColumns колонки, которые выводятся первыми на листе 基本資料
var headColumns = []string{reconcile.ColumnIndex, reconcile.ColumnRawName, string(enrichment.FieldBusinessNo)}

// directorColumnOrder известные колонки состава совета в порядке вывода.
// Остальные колонки идут следом по алфавиту.
var directorColumnOrder = []string{
	enrichment.DirectorOwnerName,
	"序號",
	"職稱",
	"姓名",
	"所代表法人",
	"出資額",
}

// ResultColumns порядок колонок листа 基本資料
func ResultColumns() []string {
	columns := append([]string{}, headColumns...)
	for _, column := range reconcile.Columns {
		if !contains(headColumns, column) {
			columns = append(columns, column)
		}
	}
	return columns
}

// DirectorColumns порядок колонок листа 董監事名單
func DirectorColumns(directors []enrichment.DirectorRecord) []string {
	seen := make(map[string]bool)
	for _, director := range directors {
		for key := range director {
			seen[key] = true
		}
	}

	var columns []string
	for _, column := range directorColumnOrder {
		if seen[column] {
			columns = append(columns, column)
			delete(seen, column)
		}
	}

	ownerID := seen[enrichment.DirectorOwnerID]
	delete(seen, enrichment.DirectorOwnerID)

	rest := make([]string, 0, len(seen))
	for column := range seen {
		rest = append(rest, column)
	}
	sort.Strings(rest)
	columns = append(columns, rest...)

	if ownerID {
		columns = append(columns, enrichment.DirectorOwnerID)
	}
	return columns
}

// BuildResults строит книгу результата: лист 基本資料 и, если есть
// директора, лист 董監事名單
func BuildResults(rows []reconcile.ReconciledRow, directors []enrichment.DirectorRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", BasicSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	columns := ResultColumns()
	data := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values := make([]interface{}, len(columns))
		for i, column := range columns {
			if column == reconcile.ColumnIndex {
				values[i] = row.Index
				continue
			}
			values[i] = row.Value(column)
		}
		data = append(data, values)
	}
	if err := writeSheet(f, BasicSheet, columns, data, styles); err != nil {
		f.Close()
		return nil, err
	}

	if len(directors) > 0 {
		if _, err := f.NewSheet(DirectorsSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}

		directorColumns := DirectorColumns(directors)
		directorData := make([][]interface{}, 0, len(directors))
		for _, director := range directors {
			values := make([]interface{}, len(directorColumns))
			for i, column := range directorColumns {
				values[i] = director[column]
			}
			directorData = append(directorData, values)
		}
		if err := writeSheet(f, DirectorsSheet, directorColumns, directorData, styles); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteResults записывает книгу результата в w
func WriteResults(w io.Writer, rows []reconcile.ReconciledRow, directors []enrichment.DirectorRecord) error {
	f, err := BuildResults(rows, directors)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// WriteTemplate записывает пример входного файла с одной строкой
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TemplateSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: fontFamily, Bold: true},
		Border:    borders(),
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	fontStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: fontFamily, Size: 11}})
	if err != nil {
		return fmt.Errorf("failed to create font style: %w", err)
	}
	// 49 - встроенный текстовый формат "@"
	textStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: fontFamily, Size: 11}, NumFmt: 49})
	if err != nil {
		return fmt.Errorf("failed to create text style: %w", err)
	}

	widths := []struct {
		column string
		width  float64
		style  int
	}{
		{"A", 10, fontStyle},
		{"B", 40, fontStyle},
		{"C", 20, textStyle},
	}
	for _, col := range widths {
		if err := f.SetColWidth(TemplateSheet, col.column, col.column, col.width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
		if err := f.SetColStyle(TemplateSheet, col.column, col.style); err != nil {
			return fmt.Errorf("failed to set column style: %w", err)
		}
	}

	headers := []interface{}{reconcile.ColumnIndex, "公司全名", string(enrichment.FieldBusinessNo)}
	if err := f.SetSheetRow(TemplateSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := f.SetCellStyle(TemplateSheet, "A1", "C1", headerStyle); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}

	example := []interface{}{1, "台灣積體電路製造股份有限公司", "22099131"}
	if err := f.SetSheetRow(TemplateSheet, "A2", &example); err != nil {
		return fmt.Errorf("failed to write example row: %w", err)
	}
	if err := f.SetCellStyle(TemplateSheet, "C2", "C2", textStyle); err != nil {
		return fmt.Errorf("failed to style example row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header  int
	content int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: fontFamily, Bold: true},
		Border:    borders(),
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("failed to create header style: %w", err)
	}

	content, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: fontFamily}})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("failed to create content style: %w", err)
	}

	return sheetStyles{header: header, content: content}, nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, data [][]interface{}, styles sheetStyles) error {
	lastColumn, err := excelize.ColumnNumberToName(max(len(columns), 26))
	if err != nil {
		return fmt.Errorf("failed to resolve column name: %w", err)
	}
	if err := f.SetColStyle(sheet, "A:"+lastColumn, styles.content); err != nil {
		return fmt.Errorf("failed to set column style: %w", err)
	}

	for i, column := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, column); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}

		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, 18); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, values := range data {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowIdx+1, err)
		}
	}
	return nil
}

func borders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
