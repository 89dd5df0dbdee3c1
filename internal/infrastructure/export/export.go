// Package export renders a ledger snapshot as a downloadable document
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Encoder writes a list of transactions in one format
type Encoder interface {
	ContentType() string
	Extension() string
	Encode(w io.Writer, txs []entity.Transaction) error
}

// Record is the flat row shape shared by every format
type Record struct {
	ID          string `json:"id" yaml:"id"`
	Date        string `json:"date" yaml:"date"`
	Type        string `json:"type" yaml:"type"`
	Amount      string `json:"amount" yaml:"amount"`
	Description string `json:"description" yaml:"description"`
}

// csvHeader matches the field order of Record
var csvHeader = []string{"id", "date", "type", "amount", "description"}

// ToRecord flattens a transaction. Amounts are fixed to two decimal places.
func ToRecord(tx entity.Transaction) Record {
	return Record{
		ID:          tx.ID,
		Date:        tx.Date.String(),
		Type:        string(tx.Type),
		Amount:      tx.Amount.StringFixed(2),
		Description: tx.Description,
	}
}

func toRecords(txs []entity.Transaction) []Record {
	records := make([]Record, 0, len(txs))
	for _, tx := range txs {
		records = append(records, ToRecord(tx))
	}
	return records
}

// ForFormat returns the encoder for a format name; empty means JSON
func ForFormat(name string) (Encoder, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatJSON:
		return JSONEncoder{}, nil
	case FormatYAML, "yml":
		return YAMLEncoder{}, nil
	case FormatCSV:
		return CSVEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", name)
	}
}

// JSONEncoder writes an indented JSON array
type JSONEncoder struct{}

func (JSONEncoder) ContentType() string { return "application/json" }
func (JSONEncoder) Extension() string   { return "json" }

func (JSONEncoder) Encode(w io.Writer, txs []entity.Transaction) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toRecords(txs)); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

// YAMLEncoder writes a YAML sequence
type YAMLEncoder struct{}

func (YAMLEncoder) ContentType() string { return "application/yaml" }
func (YAMLEncoder) Extension() string   { return "yaml" }

func (YAMLEncoder) Encode(w io.Writer, txs []entity.Transaction) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toRecords(txs)); err != nil {
		return fmt.Errorf("failed to encode yaml export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush yaml export: %w", err)
	}
	return nil
}

// CSVEncoder writes a header row followed by one row per transaction
type CSVEncoder struct{}

func (CSVEncoder) ContentType() string { return "text/csv" }
func (CSVEncoder) Extension() string   { return "csv" }

func (CSVEncoder) Encode(w io.Writer, txs []entity.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range toRecords(txs) {
		if err := cw.Write([]string{r.ID, r.Date, r.Type, r.Amount, r.Description}); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
