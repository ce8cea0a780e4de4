package normalization

import (
	"strings"
	"unicode"
)

// legalSuffixes суффиксы организационно-правовых форм.
// Порядок важен: удаляется только первый совпавший суффикс.
var legalSuffixes = []string{
	"股份有限公司",
	"有限公司",
	"分公司",
	"社團法人",
	"財團法人",
	"有限合夥",
}

var parenReplacer = strings.NewReplacer("（", "(", "）", ")")

// CoreName приводит название компании к "ядру": обрезает пробелы, заменяет
// полноширинные скобки и удаляет не более одного суффикса правовой формы.
// Если суффикс не найден, возвращается очищенное исходное название.
func CoreName(name string) string {
	name = TrimSpace(name)
	name = parenReplacer.Replace(name)

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = TrimSpace(strings.TrimSuffix(name, suffix))
			break
		}
	}

	return name
}

// TrimSpace обрезает пробелы, включая полноширинный пробел U+3000
func TrimSpace(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}
