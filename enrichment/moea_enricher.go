package enrichment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// MOEAName название официального реестра
	MOEAName = "moea"

	// DefaultMOEASearchURL endpoint поиска по названию
	DefaultMOEASearchURL = "https://data.gcis.nat.gov.tw/od/data/api/6BBA2268-1367-4B42-9CCA-BC17499EBE8C"
	// DefaultMOEADetailURL endpoint карточки по 統一編號
	DefaultMOEADetailURL = "https://data.gcis.nat.gov.tw/od/data/api/6BBA2268-1367-4B42-9A4C-58FB54BA61CC"

	moeaSearchTop = 20
	moeaListTop   = 50

	// Код статуса "核准設立" (действующая компания)
	moeaActiveStatus = "01"
)

// moeaCompany запись официального реестра
type moeaCompany struct {
	BusinessAccountingNO flexString `json:"Business_Accounting_NO"`
	CompanyName          flexString `json:"Company_Name"`
	CompanyStatus        flexString `json:"Company_Status"`
	ResponsibleName      flexString `json:"Responsible_Name"`
	CompanyLocation      flexString `json:"Company_Location"`
	PaidInCapitalAmount  flexString `json:"Paid_In_Capital_Amount"`
	CompanySetupDate     flexString `json:"Company_Setup_Date"`
}

// MOEAClient клиент открытых данных 經濟部商業司 (официальный реестр)
type MOEAClient struct {
	*upstream
}

// NewMOEAClient создает клиент официального реестра
func NewMOEAClient(config SourceConfig) *MOEAClient {
	if config.Name == "" {
		config.Name = MOEAName
	}
	if config.SearchURL == "" {
		config.SearchURL = DefaultMOEASearchURL
	}
	if config.DetailURL == "" {
		config.DetailURL = DefaultMOEADetailURL
	}
	if config.SearchTimeout == 0 {
		config.SearchTimeout = 10 * time.Second
	}
	if config.DetailTimeout == 0 {
		config.DetailTimeout = 10 * time.Second
	}

	return &MOEAClient{upstream: newUpstream(&config)}
}

// Search ищет действующие компании, название которых содержит name
func (c *MOEAClient) Search(ctx context.Context, name string) ([]Candidate, error) {
	filter := fmt.Sprintf("Company_Name like %s and Company_Status eq %s", name, moeaActiveStatus)
	return c.search(ctx, "search", filter, moeaSearchTop)
}

// List ищет компании по подстроке без фильтра статуса
func (c *MOEAClient) List(ctx context.Context, keyword string) ([]Candidate, error) {
	filter := fmt.Sprintf("Company_Name like %s", keyword)
	return c.search(ctx, "list", filter, moeaListTop)
}

func (c *MOEAClient) search(ctx context.Context, op, filter string, top int) ([]Candidate, error) {
	rawURL := fmt.Sprintf("%s?$format=json&$filter=%s&$skip=0&$top=%d",
		c.config.SearchURL, escapeFilter(filter), top)

	body, err := c.get(ctx, op, rawURL, c.config.SearchTimeout)
	if err != nil {
		return nil, err
	}

	var companies []moeaCompany
	if err := c.decode(op, body, &companies); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(companies))
	for _, company := range companies {
		candidates = append(candidates, Candidate{
			ID:   strings.TrimSpace(string(company.BusinessAccountingNO)),
			Name: strings.TrimSpace(string(company.CompanyName)),
		})
	}
	return candidates, nil
}

// FetchDetail получает карточку из официального реестра.
// Официальный реестр не отдает состав совета, список директоров всегда пуст.
func (c *MOEAClient) FetchDetail(ctx context.Context, id string) (*Detail, error) {
	const op = "detail"

	filter := fmt.Sprintf("Business_Accounting_NO eq %s", id)
	rawURL := fmt.Sprintf("%s?$format=json&$filter=%s", c.config.DetailURL, escapeFilter(filter))

	body, err := c.get(ctx, op, rawURL, c.config.DetailTimeout)
	if err != nil {
		return nil, err
	}

	var companies []moeaCompany
	if err := c.decode(op, body, &companies); err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, newFetchError(c.config.Name, op, KindEmpty, nil)
	}

	company := companies[0]
	for _, candidate := range companies {
		if strings.TrimSpace(string(candidate.BusinessAccountingNO)) == id {
			company = candidate
			break
		}
	}

	record := DetailRecord{}
	setField(record, FieldBusinessNo, string(company.BusinessAccountingNO))
	setField(record, FieldName, string(company.CompanyName))
	setField(record, FieldRepresentative, string(company.ResponsibleName))
	setField(record, FieldAddress, string(company.CompanyLocation))
	setField(record, FieldPaidInCapital, string(company.PaidInCapitalAmount))
	setField(record, FieldSetupDate, string(company.CompanySetupDate))

	return &Detail{
		Source:    c.config.Name,
		Record:    record,
		Directors: []DirectorRecord{},
		FetchedAt: time.Now(),
	}, nil
}

// setField записывает непустое значение поля
func setField(record DetailRecord, field Field, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		record[field] = value
	}
}

// escapeFilter кодирует OData-фильтр для query string, пробелы как %20
func escapeFilter(filter string) string {
	return strings.ReplaceAll(url.QueryEscape(filter), "+", "%20")
}
