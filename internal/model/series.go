package model

import (
	"fmt"
	"strings"
)

// NumberSeries names documents as Name + zero-padded counter.
type NumberSeries struct {
	Name          string // prefix, e.g. "SINV-"
	Start         int
	Current       *int // nil until the series has produced a name
	PadZeros      int
	ReferenceType string
}

// Used reports whether the series has produced at least one name.
func (s NumberSeries) Used() bool {
	return s.Current != nil
}

// Format returns the document name for counter n, e.g. "SINV-1001".
func (s NumberSeries) Format(n int) string {
	return s.Name + fmt.Sprintf("%0*d", s.PadZeros, n)
}

// DefaultSeriesPrefix returns the prefix used for documents of a schema.
func DefaultSeriesPrefix(schema Schema) string {
	switch schema {
	case SchemaSalesInvoice:
		return "SINV-"
	case SchemaPurchaseInvoice:
		return "PINV-"
	case SchemaJournalEntry:
		return "JV-"
	case SchemaPayment:
		return "PAY-"
	}
	return strings.ToUpper(string(schema)) + "-"
}
