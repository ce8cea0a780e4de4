package reconcile

import (
	"strconv"

	"twcompany/enrichment"
	"twcompany/resolution"
)

// Колонки результата пакетной обработки
const (
	ColumnIndex    = "項目"
	ColumnStrategy = "查詢來源"
	ColumnRawID    = "原始輸入統編"
	ColumnRawName  = "原始輸入名稱"
)

// Пометки в поле 公司名稱 для строк без карточки
const (
	SentinelNoResponse   = "API無回應"
	SentinelUnrecognized = "無法識別"
)

// StrategyDirect пометка строки, у которой 統一編號 указан во входных данных
const StrategyDirect = "統編直查"

// Columns полный набор колонок результата в порядке выгрузки
var Columns = buildColumns()

func buildColumns() []string {
	columns := []string{ColumnIndex}
	for _, field := range enrichment.DetailFields {
		columns = append(columns, string(field))
	}
	return append(columns, ColumnStrategy, ColumnRawID, ColumnRawName)
}

// RawQuery строка входного файла
type RawQuery struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RowStatus итог обработки строки
type RowStatus string

const (
	StatusFound        RowStatus = "found"
	StatusNoResponse   RowStatus = "no_response"
	StatusUnrecognized RowStatus = "unrecognized"
)

// ReconciledRow строка результата
type ReconciledRow struct {
	Index    int                     `json:"index"`
	ID       string                  `json:"id"`
	Record   enrichment.DetailRecord `json:"record,omitempty"`
	Name     string                  `json:"name"`
	Strategy string                  `json:"strategy,omitempty"`
	Stage    resolution.Stage        `json:"stage,omitempty"`
	Status   RowStatus               `json:"status"`
	RawID    string                  `json:"raw_id"`
	RawName  string                  `json:"raw_name"`
}

// Value возвращает значение колонки. Отсутствующие значения выводятся как "".
func (r ReconciledRow) Value(column string) string {
	switch column {
	case ColumnIndex:
		return strconv.Itoa(r.Index)
	case string(enrichment.FieldBusinessNo):
		return r.ID
	case string(enrichment.FieldName):
		return r.Name
	case ColumnStrategy:
		return r.Strategy
	case ColumnRawID:
		return r.RawID
	case ColumnRawName:
		return r.RawName
	default:
		return r.Record.Get(enrichment.Field(column))
	}
}

// Values возвращает строку как отображение колонка -> значение
func (r ReconciledRow) Values() map[string]string {
	values := make(map[string]string, len(Columns))
	for _, column := range Columns {
		values[column] = r.Value(column)
	}
	return values
}
