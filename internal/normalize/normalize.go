package normalize

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/shaiso/Tenders/internal/domain"
)

// tenderNamePrefix — сколько символов tenderName входит в составной ID.
const tenderNamePrefix = 20

// Batch — результат нормализации одной порции записей.
type Batch struct {
	// Documents — документы для индексации (без повторов), в порядке получения.
	Documents []domain.Document

	// Rejected — записи без идентификатора (в индекс не отправляются).
	Rejected int

	// Duplicates — записи, чей ID уже встречался в этом запуске.
	Duplicates int
}

// Normalizer превращает сырые записи API в документы индекса.
//
// Один Normalizer обслуживает один запуск синхронизации: он помнит
// уже встреченные ID, чтобы при обходе нескольких страниц повтор
// не ушёл в индекс дважды. Между запусками его не переиспользуют.
type Normalizer struct {
	now    func() time.Time
	logger *slog.Logger
	seen   map[string]struct{}
}

// Config — конфигурация Normalizer.
type Config struct {
	// Now — источник времени для added_date (default: time.Now).
	Now func() time.Time

	Logger *slog.Logger
}

// New создаёт Normalizer для одного запуска.
func New(cfg Config) *Normalizer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Normalizer{
		now:    now,
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// Normalize нормализует порцию записей.
//
// Для каждой записи:
//  1. Вычисляет documentId (см. DocumentID); без ID запись отклоняется.
//  2. Отбрасывает повтор: выигрывает первое вхождение ID.
//  3. Копирует все поля и проставляет documentId, added_date и source.
//
// Никогда не завершается ошибкой, только фильтрует.
func (n *Normalizer) Normalize(records []domain.RawTender) Batch {
	batch := Batch{Documents: make([]domain.Document, 0, len(records))}
	addedAt := n.now()

	for i, rec := range records {
		id, ok := DocumentID(rec)
		if !ok {
			n.logger.Warn("skipping tender without id", "index", i, "sample", sample(rec))
			batch.Rejected++
			continue
		}

		if _, dup := n.seen[id]; dup {
			n.logger.Debug("dropping duplicate tender", "document_id", id, "index", i)
			batch.Duplicates++
			continue
		}
		n.seen[id] = struct{}{}

		batch.Documents = append(batch.Documents, domain.NewDocument(id, rec, addedAt))
	}

	return batch
}

// DocumentID вычисляет стабильный идентификатор документа.
//
// Порядок источников:
//  1. tenderId — число (не ноль) в десятичной записи, либо непустая строка
//  2. tenderIdString — непустая строка
//  3. referenceNumber + "_" + первые 20 символов tenderName
//
// Если ни один источник не задан, возвращает false.
func DocumentID(rec domain.RawTender) (string, bool) {
	if id, ok := numericID(rec.Fields, domain.FieldTenderID); ok {
		return id, true
	}
	if s, ok := rec.String(domain.FieldTenderID); ok && s != "" {
		return s, true
	}

	if s, ok := rec.String(domain.FieldTenderIDString); ok && s != "" {
		return s, true
	}

	ref, ok := rec.String(domain.FieldReferenceNumber)
	if !ok || ref == "" {
		ref, ok = numericID(rec.Fields, domain.FieldReferenceNumber)
	}
	if ok && ref != "" {
		name, _ := rec.String(domain.FieldTenderName)
		return ref + "_" + prefix(name, tenderNamePrefix), true
	}

	return "", false
}

// numericID возвращает ненулевое число поля в десятичной записи.
func numericID(fields domain.Fields, key string) (string, bool) {
	n, ok := fields.Number(key)
	if !ok {
		return "", false
	}

	if i, err := n.Int64(); err == nil {
		if i == 0 {
			return "", false
		}
		return strconv.FormatInt(i, 10), true
	}

	f, err := n.Float64()
	if err != nil || f == 0 {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// prefix возвращает первые n символов строки.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// sample — начало записи для логов.
func sample(rec domain.RawTender) string {
	data, err := json.Marshal(rec.Fields)
	if err != nil {
		return ""
	}
	return prefix(string(data), 200)
}
