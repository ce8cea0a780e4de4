package normalization

import (
	"strings"

	"golang.org/x/text/width"
)

// BusinessIDLength длина 統一編號
const BusinessIDLength = 8

// IsBusinessID проверяет, что строка состоит ровно из 8 ASCII-цифр
func IsBusinessID(s string) bool {
	if len(s) != BusinessIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CleanCell очищает значение ячейки входного файла.
// Пустые значения и "nan" (остаток выгрузки из pandas) превращаются в "".
func CleanCell(value string) string {
	value = TrimSpace(value)
	if strings.EqualFold(value, "nan") {
		return ""
	}
	return value
}

// CleanBusinessID очищает 統一編號 из ячейки: полноширинные цифры приводятся
// к ASCII, а числовые ячейки Excel вида "22099131.0" теряют дробную часть.
func CleanBusinessID(value string) string {
	value = CleanCell(value)
	if value == "" {
		return ""
	}
	value = width.Narrow.String(value)
	if head, tail, ok := strings.Cut(value, "."); ok && strings.Trim(tail, "0") == "" {
		value = head
	}
	return value
}
