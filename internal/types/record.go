// Package types provides type definitions for structured data used throughout the receipt generator.
package types

import "strings"

// Field names recognized in the source table.
const (
	FieldSerialNo  = "Serial_No"
	FieldDate      = "Date"
	FieldName      = "Name"
	FieldAddress   = "Address"
	FieldAmount    = "Amount"
	FieldPAN       = "PAN"
	FieldProcessed = "Processed"
)

// StatusProcessed is the processed-status value that marks a row as done.
const StatusProcessed = "YES"

// Row is one row of the source table as field name -> raw text value.
// Numbers keep their literal JSON text, so 12 stays "12".
type Row map[string]string

// Table is the row-oriented result of a data source fetch.
type Table struct {
	// Columns lists field names in first-seen order.
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether any row carries the given field.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Record is one donation row with the recognized fields extracted.
type Record struct {
	Index    int // position in the fetched table, 0-based
	SerialNo string
	Date     string
	Name     string
	Address  string
	Amount   string // raw, untrimmed
	PAN      string

	// Processed is the raw processed-status value; HasProcessed is false
	// when the row has no such field at all.
	Processed    string
	HasProcessed bool
}

// NewRecord extracts a Record from a table row. Text fields are trimmed;
// the amount is left raw so the formatter can echo it on fallback.
func NewRecord(index int, row Row) Record {
	status, ok := row[FieldProcessed]
	return Record{
		Index:        index,
		SerialNo:     strings.TrimSpace(row[FieldSerialNo]),
		Date:         strings.TrimSpace(row[FieldDate]),
		Name:         strings.TrimSpace(row[FieldName]),
		Address:      strings.TrimSpace(row[FieldAddress]),
		Amount:       row[FieldAmount],
		PAN:          strings.TrimSpace(row[FieldPAN]),
		Processed:    status,
		HasProcessed: ok,
	}
}

// Key returns the ProcessedKey: serial number, date and name concatenated.
func (r Record) Key() string {
	return r.SerialNo + r.Date + r.Name
}

// IsProcessed reports whether the record's own status is "YES".
func (r Record) IsProcessed() bool {
	return strings.EqualFold(strings.TrimSpace(r.Processed), StatusProcessed)
}

// RenderContext maps template field names to formatted values for one record.
type RenderContext struct {
	SerialNo      string `json:"Serial_No"`
	Date          string `json:"Date"`
	Name          string `json:"Name"`
	Address       string `json:"Address"`
	PAN           string `json:"PAN"`
	AmountInWords string `json:"Amount_in_words"`
}

// Values returns the context keyed by template placeholder name.
func (c RenderContext) Values() map[string]string {
	return map[string]string{
		FieldSerialNo:     c.SerialNo,
		FieldDate:         c.Date,
		FieldName:         c.Name,
		FieldAddress:      c.Address,
		FieldPAN:          c.PAN,
		"Amount_in_words": c.AmountInWords,
	}
}

// Artifacts holds the output paths produced for one record.
type Artifacts struct {
	BaseName     string
	EditablePath string
	PDFPath      string
	PDFURL       string // set in remote mode
}
