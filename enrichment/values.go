package enrichment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rocEpoch смещение летоисчисления Миньго относительно григорианского
const rocEpoch = 1911

// FormatROCDate приводит дату реестра к виду "ГГГ年ММ月ДД日" по летоисчислению Миньго.
// Объект {year, month, day} с годом больше 1911 переводится в летоисчисление Миньго,
// строка возвращается как есть, объект с нечисловыми частями дает "".
func FormatROCDate(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}:
		year, okY := toInt(v["year"])
		month, okM := toInt(v["month"])
		day, okD := toInt(v["day"])
		if !okY || !okM || !okD {
			return ""
		}
		if year > rocEpoch {
			year -= rocEpoch
		}
		return fmt.Sprintf("%03d年%02d月%02d日", year, month, day)
	default:
		return stringify(value, true)
	}
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil || f != float64(int(f)) {
				return 0, false
			}
			return int(f), true
		}
		return n, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// stringify приводит значение JSON к строке.
// collapse: список сворачивается до первого элемента, иначе элементы склеиваются через ", ".
func stringify(value interface{}, collapse bool) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		if collapse {
			return stringify(v[0], true)
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item, false))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// flexString строковое поле ответа реестра, допускающее число, список или null
type flexString string

// UnmarshalJSON реализует json.Unmarshaler
func (f *flexString) UnmarshalJSON(data []byte) error {
	var value interface{}
	if err := decodeJSON(data, &value); err != nil {
		return err
	}
	*f = flexString(stringify(value, true))
	return nil
}

// decodeJSON декодирует JSON с сохранением чисел как json.Number
func decodeJSON(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
