package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNotObject — значение JSON не является объектом.
var ErrNotObject = errors.New("json value is not an object")

// Fields — упорядоченный набор полей JSON-объекта.
//
// Схема записей внешнего API не зафиксирована контрактом, поэтому поля
// хранятся как есть (json.RawMessage) в порядке, в котором пришли.
// Известные поля извлекаются явно через String/Number.
type Fields struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewFields создаёт пустой набор полей.
func NewFields() Fields {
	return Fields{values: make(map[string]json.RawMessage)}
}

// Len возвращает количество полей.
func (f Fields) Len() int {
	return len(f.keys)
}

// Keys возвращает имена полей в исходном порядке.
func (f Fields) Keys() []string {
	keys := make([]string, len(f.keys))
	copy(keys, f.keys)
	return keys
}

// Get возвращает сырое значение поля.
func (f Fields) Get(key string) (json.RawMessage, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set устанавливает значение поля.
// Существующее поле сохраняет свою позицию, новое добавляется в конец.
func (f *Fields) Set(key string, value json.RawMessage) {
	if f.values == nil {
		f.values = make(map[string]json.RawMessage)
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// SetString устанавливает строковое значение поля.
func (f *Fields) SetString(key, value string) {
	raw, _ := json.Marshal(value)
	f.Set(key, raw)
}

// String возвращает значение поля, если это JSON-строка.
func (f Fields) String(key string) (string, bool) {
	raw, ok := f.values[key]
	if !ok || len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Number возвращает значение поля, если это JSON-число.
func (f Fields) Number(key string) (json.Number, bool) {
	raw, ok := f.values[key]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return "", false
	}
	n := json.Number(raw)
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return "", false
	}
	return n, true
}

// Clone возвращает независимую копию набора полей.
func (f Fields) Clone() Fields {
	c := Fields{
		keys:   make([]string, len(f.keys)),
		values: make(map[string]json.RawMessage, len(f.values)),
	}
	copy(c.keys, f.keys)
	for k, v := range f.values {
		c.values[k] = v
	}
	return c
}

// UnmarshalJSON декодирует JSON-объект с сохранением порядка полей.
// Повторяющийся ключ перезаписывает значение, позиция остаётся первой.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: got %s", ErrNotObject, describeToken(tok))
	}

	*f = NewFields()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode field %q: %w", key, err)
		}
		f.Set(key, value)
	}

	// закрывающая '}'
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON кодирует поля в исходном порядке.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		value := f.values[key]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		return string(v)
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
