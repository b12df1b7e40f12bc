package domain

import "time"

// Имена полей записи тендера, которые читает или проставляет pipeline.
const (
	FieldTenderID        = "tenderId"
	FieldTenderIDString  = "tenderIdString"
	FieldReferenceNumber = "referenceNumber"
	FieldTenderName      = "tenderName"

	// FieldDocumentID — вычисленный идентификатор документа в индексе.
	FieldDocumentID = "documentId"

	// FieldAddedDate — время индексации (проставляет pipeline, не источник).
	// Имя совпадает с маппингом индекса и запросами дашборда.
	FieldAddedDate = "added_date"

	// FieldSource — метка документов, записанных синхронизацией.
	FieldSource = "source"
)

// SourceAPISync — значение FieldSource для документов из синхронизации.
const SourceAPISync = "api_sync"

// RawTender — запись тендера в том виде, в каком её вернул внешний API.
//
// Разные endpoints отдают разные наборы полей (tenderId числом или
// tenderIdString, referenceNumber и т.д.), поэтому запись хранится
// как упорядоченный набор полей и никогда не изменяется.
type RawTender struct {
	Fields
}

// Document — нормализованный документ тендера для записи в индекс.
//
// Содержит все поля исходной записи плюс documentId, added_date и source.
// Повторная синхронизация с тем же ID перезаписывает документ (upsert).
type Document struct {
	// ID — стабильный идентификатор документа (_id в индексе).
	ID string

	// Fields — тело документа.
	Fields Fields
}

// NewDocument создаёт документ из сырой записи и проставляет служебные поля.
// Исходная запись не изменяется.
func NewDocument(id string, raw RawTender, addedAt time.Time) Document {
	fields := raw.Fields.Clone()
	fields.SetString(FieldDocumentID, id)
	fields.SetString(FieldAddedDate, addedAt.UTC().Format(time.RFC3339Nano))
	fields.SetString(FieldSource, SourceAPISync)

	return Document{ID: id, Fields: fields}
}
