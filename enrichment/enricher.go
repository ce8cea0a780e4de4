package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Candidate кандидат из поисковой выдачи реестра
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field семантическое поле карточки компании
type Field string

const (
	FieldBusinessNo        Field = "統一編號"
	FieldStatus            Field = "登記現況"
	FieldName              Field = "公司名稱"
	FieldForeignName       Field = "章程所訂外文公司名稱"
	FieldAuthorizedCapital Field = "資本總額(元)"
	FieldPaidInCapital     Field = "實收資本額(元)"
	FieldParValue          Field = "每股金額(元)"
	FieldIssuedShares      Field = "已發行股份總數(股)"
	FieldRepresentative    Field = "代表人姓名"
	FieldAddress           Field = "公司所在地"
	FieldAuthority         Field = "登記機關"
	FieldSetupDate         Field = "核准設立日期"
	FieldLastAmendmentDate Field = "最後核准變更日期"

	// Есть только у зеркала и не входят в колонки пакетной выгрузки
	FieldSuspendDate Field = "停業日期"
	FieldResumeDate  Field = "復業日期"
)

// DetailFields фиксированный набор полей карточки в порядке выгрузки
var DetailFields = []Field{
	FieldBusinessNo,
	FieldStatus,
	FieldName,
	FieldForeignName,
	FieldAuthorizedCapital,
	FieldPaidInCapital,
	FieldParValue,
	FieldIssuedShares,
	FieldRepresentative,
	FieldAddress,
	FieldAuthority,
	FieldSetupDate,
	FieldLastAmendmentDate,
}

// DateFields поля-даты, которые приводятся к виду 民國 年月日
var DateFields = map[Field]bool{
	FieldSetupDate:         true,
	FieldLastAmendmentDate: true,
	FieldSuspendDate:       true,
	FieldResumeDate:        true,
}

// DetailRecord карточка компании. Отсутствующие в источнике поля не заполняются.
type DetailRecord map[Field]string

// Get возвращает значение поля или пустую строку
func (r DetailRecord) Get(f Field) string {
	if r == nil {
		return ""
	}
	return r[f]
}

// Ключи, которые добавляются к записи о члене совета при сведении пакета
const (
	DirectorOwnerID   = "所屬公司統編"
	DirectorOwnerName = "所屬公司名稱"
)

// DirectorRecord запись о директоре/члене наблюдательного совета.
// Ключи задает источник и не нормализуются.
type DirectorRecord map[string]string

// Detail результат получения карточки
type Detail struct {
	Source    string           `json:"source"`
	Record    DetailRecord     `json:"record"`
	Directors []DirectorRecord `json:"directors"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// DetailSource источник карточек компаний по 統一編號
type DetailSource interface {
	// Name возвращает название источника
	Name() string

	// IsAvailable проверяет, включен ли источник
	IsAvailable() bool

	// FetchDetail получает карточку компании
	FetchDetail(ctx context.Context, id string) (*Detail, error)
}

// ErrorKind категория ошибки обращения к реестру
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindStatus      ErrorKind = "status"
	KindDecode      ErrorKind = "decode"
	KindEmpty       ErrorKind = "empty"
	KindCircuitOpen ErrorKind = "circuit_open"
	KindRateLimited ErrorKind = "rate_limited"
)

// FetchError типизированная ошибка обращения к реестру.
// Конвейер трактует любую такую ошибку как "нет кандидатов", но она логируется.
type FetchError struct {
	Source     string
	Op         string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

// Error реализует интерфейс error
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Source, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap возвращает вложенную ошибку для errors.Is и errors.As
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsKind проверяет категорию ошибки
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

func newFetchError(source, op string, kind ErrorKind, err error) *FetchError {
	return &FetchError{Source: source, Op: op, Kind: kind, Err: err}
}

// SourceConfig неизменяемая конфигурация одного реестра
type SourceConfig struct {
	Name          string        `json:"name"`
	SearchURL     string        `json:"search_url"`
	DetailURL     string        `json:"detail_url"`
	SearchTimeout time.Duration `json:"search_timeout"`
	DetailTimeout time.Duration `json:"detail_timeout"`
	RateLimit     float64       `json:"rate_limit"` // Запросов в секунду, 0 - без ограничения
	UserAgent     string        `json:"user_agent"`
	Enabled       bool          `json:"enabled"`
}

// DefaultUserAgent заголовок User-Agent по умолчанию
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
