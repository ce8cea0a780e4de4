package enrichment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
)

const (
	// G0VName название зеркала реестра
	G0VName = "g0v"

	// DefaultG0VBaseURL адрес зеркала company.g0v.ronny.tw
	DefaultG0VBaseURL = "https://company.g0v.ronny.tw"
)

// Выражения для ответов зеркала. Схема ответа динамическая,
// поэтому поля извлекаются через JMESPath, а не через структуры.
var (
	g0vCandidatesExpr = jmespath.MustCompile(`data[].{id: id || "統一編號", name: name || "公司名稱" || "商業名稱"}`)
	g0vDetailExpr     = jmespath.MustCompile(`data`)
	g0vDirectorsExpr  = jmespath.MustCompile(`data."董監事名單"[]`)
)

// g0vFieldKeys ключи ответа зеркала для каждого поля карточки, по приоритету.
// Компании, коммерческие регистрации и филиалы используют разные ключи.
var g0vFieldKeys = map[Field][]string{
	FieldBusinessNo:        {"統一編號"},
	FieldStatus:            {"登記現況", "公司狀況", "現況"},
	FieldName:              {"公司名稱", "商業名稱", "分公司名稱"},
	FieldForeignName:       {"章程所訂外文公司名稱"},
	FieldAuthorizedCapital: {"資本總額(元)", "資本額(元)"},
	FieldPaidInCapital:     {"實收資本額(元)"},
	FieldParValue:          {"每股金額(元)"},
	FieldIssuedShares:      {"已發行股份總數(股)"},
	FieldRepresentative:    {"代表人姓名", "負責人姓名", "分公司經理姓名"},
	FieldAddress:           {"公司所在地", "地址", "分公司所在地"},
	FieldAuthority:         {"登記機關"},
	FieldSetupDate:         {"核准設立日期"},
	FieldLastAmendmentDate: {"最後核准變更日期"},
	FieldSuspendDate:       {"停業日期"},
	FieldResumeDate:        {"復業日期"},
}

// g0vFields поля карточки зеркала: колонки выгрузки и даты приостановки
var g0vFields = append(append([]Field{}, DetailFields...), FieldSuspendDate, FieldResumeDate)

// G0VClient клиент зеркала реестра company.g0v.ronny.tw
type G0VClient struct {
	*upstream
}

// NewG0VClient создает клиент зеркала. SearchURL и DetailURL по умолчанию
// строятся от DefaultG0VBaseURL.
func NewG0VClient(config SourceConfig) *G0VClient {
	if config.Name == "" {
		config.Name = G0VName
	}
	if config.SearchURL == "" {
		config.SearchURL = DefaultG0VBaseURL + "/api/search/"
	}
	if config.DetailURL == "" {
		config.DetailURL = DefaultG0VBaseURL + "/api/show/"
	}
	if config.SearchTimeout == 0 {
		config.SearchTimeout = 5 * time.Second
	}
	if config.DetailTimeout == 0 {
		config.DetailTimeout = 10 * time.Second
	}

	return &G0VClient{upstream: newUpstream(&config)}
}

// G0VSourceConfig строит конфигурацию зеркала от базового адреса
func G0VSourceConfig(baseURL string) SourceConfig {
	baseURL = strings.TrimRight(baseURL, "/")
	return SourceConfig{
		Name:      G0VName,
		SearchURL: baseURL + "/api/search/",
		DetailURL: baseURL + "/api/show/",
		Enabled:   true,
	}
}

// Search выполняет нечеткий поиск по названию
func (c *G0VClient) Search(ctx context.Context, name string) ([]Candidate, error) {
	const op = "search"

	rawURL := fmt.Sprintf("%s?%s", c.config.SearchURL, url.Values{"q": {name}}.Encode())
	body, err := c.get(ctx, op, rawURL, c.config.SearchTimeout)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := c.decode(op, body, &payload); err != nil {
		return nil, err
	}

	found, err := g0vCandidatesExpr.Search(payload)
	if err != nil {
		return nil, newFetchError(c.config.Name, op, KindDecode, err)
	}

	items, _ := found.([]interface{})
	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:   strings.TrimSpace(stringify(fields["id"], true)),
			Name: strings.TrimSpace(stringify(fields["name"], true)),
		})
	}
	return candidates, nil
}

// FetchDetail получает карточку компании вместе с составом совета
func (c *G0VClient) FetchDetail(ctx context.Context, id string) (*Detail, error) {
	const op = "detail"

	rawURL := c.config.DetailURL + url.PathEscape(id)
	body, err := c.get(ctx, op, rawURL, c.config.DetailTimeout)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := c.decode(op, body, &payload); err != nil {
		return nil, err
	}

	found, err := g0vDetailExpr.Search(payload)
	if err != nil {
		return nil, newFetchError(c.config.Name, op, KindDecode, err)
	}
	data, ok := found.(map[string]interface{})
	if !ok || len(data) == 0 {
		return nil, newFetchError(c.config.Name, op, KindEmpty, nil)
	}

	record := DetailRecord{}
	for _, field := range g0vFields {
		for _, key := range g0vFieldKeys[field] {
			value, exists := data[key]
			if !exists || value == nil {
				continue
			}
			if DateFields[field] {
				record[field] = FormatROCDate(value)
			} else {
				setField(record, field, stringify(value, true))
			}
			break
		}
	}

	return &Detail{
		Source:    c.config.Name,
		Record:    record,
		Directors: c.directors(payload),
		FetchedAt: time.Now(),
	}, nil
}

// directors извлекает состав совета. Значения-списки склеиваются,
// вложенные объекты сохраняются как JSON.
func (c *G0VClient) directors(payload interface{}) []DirectorRecord {
	directors := []DirectorRecord{}

	found, err := g0vDirectorsExpr.Search(payload)
	if err != nil {
		c.logger.Debug("failed to extract directors", "error", err)
		return directors
	}

	items, _ := found.([]interface{})
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		director := make(DirectorRecord, len(fields))
		for key, value := range fields {
			director[key] = stringify(value, false)
		}
		directors = append(directors, director)
	}
	return directors
}
