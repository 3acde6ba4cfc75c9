// Package export writes transactions and reports to CSV, JSON and printable HTML.
package export

import (
	"embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"financeflow/internal/apperrors"
	"financeflow/internal/core"
	"financeflow/internal/report"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	HTML Format = "html"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var printable = template.Must(template.New("report.html.tmpl").
	Funcs(template.FuncMap{"money": func(m core.Money) string { return m.Format() }}).
	ParseFS(templatesFS, "templates/report.html.tmpl"))

var csvHeader = []string{"Date", "Type", "Category", "Description", "Amount", "Notes"}

// ParseFormat accepts csv, json or html.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON, HTML:
		return f, nil
	default:
		return "", apperrors.InvalidArgument("unknown export format %q", s)
	}
}

// FileName builds a dated file name such as financeflow-data-2025-06-01.csv.
func FileName(prefix string, f Format, today core.Date) string {
	return fmt.Sprintf("%s-%s.%s", prefix, today, f)
}

// WriteCSV writes one row per record under a fixed header.
func WriteCSV(w io.Writer, records []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.String(),
			r.Kind.Title(),
			r.Category,
			r.Description,
			r.Amount.String(),
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records in the persisted layout, indented by two spaces.
func WriteJSON(w io.Writer, records []core.Transaction) error {
	if records == nil {
		records = []core.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

type printableView struct {
	report.Report
	Generated string
}

// WritePrintable renders r as a self-contained HTML page suitable for printing.
func WritePrintable(w io.Writer, r report.Report) error {
	view := printableView{Report: r, Generated: r.Today.Format("January 2, 2006")}
	if err := printable.Execute(w, view); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// Write dispatches on f. CSV and JSON export the report's records.
func Write(w io.Writer, f Format, r report.Report) error {
	switch f {
	case CSV:
		return WriteCSV(w, r.Records)
	case JSON:
		return WriteJSON(w, r.Records)
	case HTML:
		return WritePrintable(w, r)
	default:
		return apperrors.InvalidArgument("unknown export format %q", f)
	}
}
