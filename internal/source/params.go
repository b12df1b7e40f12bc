package source

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shaiso/Tenders/internal/domain"
)

// DefaultPageSize — размер страницы, если в настройках он не задан.
const DefaultPageSize = 50

// Имена query-параметров внешнего API.
const (
	ParamPageSize            = "PageSize"
	ParamPageNumber          = "PageNumber"
	ParamTenderCategory      = "TenderCategory"
	ParamTenderActivityID    = "TenderActivityId"
	ParamTenderAreasIDString = "TenderAreasIdString"
	ParamFields              = "fields"
)

// Param — один query-параметр.
type Param struct {
	Key   string
	Value string
}

// Params — упорядоченный набор query-параметров запроса к внешнему API.
type Params []Param

// Get возвращает значение параметра.
func (p Params) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// With возвращает копию набора с добавленным параметром.
func (p Params) With(key, value string) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	return append(out, Param{Key: key, Value: value})
}

// Encode кодирует параметры в query-строку с сохранением порядка.
func (p Params) Encode() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.Value))
	}
	return b.String()
}

// BuildParams превращает настройки синхронизации в параметры запроса.
//
// Правила:
//   - PageSize передаётся всегда (50, если не задан или <= 0)
//   - TenderCategory, TenderActivityId, TenderAreasIdString — только если заданы
//   - fields — через запятую, если заданы
//
// Ошибок не бывает: пустые настройки дают запрос без фильтров.
func BuildParams(settings domain.SyncSettings) Params {
	params := make(Params, 0, 5)

	params = append(params, Param{ParamPageSize, strconv.Itoa(PageSize(settings))})

	params = appendInt(params, ParamTenderCategory, settings.TenderCategory)
	params = appendInt(params, ParamTenderActivityID, settings.TenderActivityID)
	params = appendInt(params, ParamTenderAreasIDString, settings.TenderAreasID)

	if !settings.Fields.IsEmpty() {
		params = append(params, Param{ParamFields, settings.Fields.Joined()})
	}

	return params
}

// PageSize возвращает действующий размер страницы.
func PageSize(settings domain.SyncSettings) int {
	if settings.PageSize != nil && *settings.PageSize > 0 {
		return *settings.PageSize
	}
	return DefaultPageSize
}

// ForPage возвращает параметры для страницы page (нумерация с 1).
// Первая страница запрашивается без PageNumber.
func ForPage(params Params, page int) Params {
	if page <= 1 {
		return params
	}
	return params.With(ParamPageNumber, strconv.Itoa(page))
}

// appendInt добавляет параметр, если значение задано и не равно нулю.
func appendInt(params Params, key string, v *int) Params {
	if v == nil || *v == 0 {
		return params
	}
	return append(params, Param{key, strconv.Itoa(*v)})
}
