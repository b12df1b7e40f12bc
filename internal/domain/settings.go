package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SyncSettings — параметры одного запуска синхронизации.
//
// Все поля необязательны: отсутствие поля означает "не ограничивать
// это измерение". Настройки не меняются в течение запуска.
type SyncSettings struct {
	// PageSize — размер страницы внешнего API.
	// Если не задан или <= 0, используется 50.
	PageSize *int `json:"pageSize,omitempty" toml:"page_size"`

	// TenderCategory — категория тендеров.
	TenderCategory *int `json:"tenderCategory,omitempty" toml:"tender_category"`

	// TenderActivityID — вид деятельности.
	TenderActivityID *int `json:"tenderActivityId,omitempty" toml:"tender_activity_id"`

	// TenderAreasID — регион. Передаётся во внешний API как TenderAreasIdString.
	TenderAreasID *int `json:"tenderAreasId,omitempty" toml:"tender_areas_id"`

	// Fields — запрашиваемые поля (проекция). Пусто — набор полей по умолчанию у API.
	Fields FieldList `json:"fields,omitempty" toml:"fields"`

	// Pages — сколько страниц внешнего API обойти за запуск.
	// 0 и 1 — одна страница.
	Pages int `json:"pages,omitempty" toml:"pages"`
}

// UnmarshalJSON принимает также устаревший ключ tenderAreasIdString.
func (s *SyncSettings) UnmarshalJSON(data []byte) error {
	type plain SyncSettings
	aux := struct {
		*plain
		TenderAreasIDString *int `json:"tenderAreasIdString"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.TenderAreasID == nil && aux.TenderAreasIDString != nil {
		s.TenderAreasID = aux.TenderAreasIDString
	}
	return nil
}

// PageCount возвращает количество страниц для обхода (минимум 1).
func (s SyncSettings) PageCount() int {
	if s.Pages < 1 {
		return 1
	}
	return s.Pages
}

// Int возвращает указатель на v. Удобно для заполнения SyncSettings.
func Int(v int) *int {
	return &v
}

// FieldList — список запрашиваемых полей.
//
// В JSON и TOML принимается как массив строк или как одна строка.
// Строка хранится как единственный элемент и передаётся без изменений.
type FieldList []string

// Joined возвращает поля через запятую.
func (l FieldList) Joined() string {
	return strings.Join(l, ",")
}

// IsEmpty возвращает true, если поля не заданы.
func (l FieldList) IsEmpty() bool {
	return l.Joined() == ""
}

// UnmarshalJSON принимает строку, массив строк или null.
func (l *FieldList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return l.set(v)
}

// UnmarshalTOML реализует toml.Unmarshaler.
func (l *FieldList) UnmarshalTOML(v any) error {
	return l.set(v)
}

func (l *FieldList) set(v any) error {
	switch val := v.(type) {
	case nil:
		*l = nil
	case string:
		if val == "" {
			*l = nil
			return nil
		}
		*l = FieldList{val}
	case []any:
		list := make(FieldList, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("fields: expected string, got %T", item)
			}
			list = append(list, s)
		}
		*l = list
	default:
		return fmt.Errorf("fields: expected string or list, got %T", v)
	}
	return nil
}
