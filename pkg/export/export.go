// Package export writes list exports as CSV or XLSX attachments and reads
// CSV uploads back.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"watersync/pkg/apperr"
	"watersync/pkg/htmx"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var ErrUnknownFormat = errors.New("export: unknown format")

// Rows yields export lines as they are read.
type Rows = iter.Seq2[[]string, error]

// WriteCSV writes header then rows, flushing as it goes.
func WriteCSV(w io.Writer, header []string, rows Rows) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for r, err := range rows {
		if err != nil {
			return err
		}
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes one sheet named after the export.
func WriteXLSX(w io.Writer, sheet string, header []string, rows Rows) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", cells(header)); err != nil {
		return err
	}
	n := 2
	for r, err := range rows {
		if err != nil {
			return err
		}
		axis, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, cells(r)); err != nil {
			return err
		}
		n++
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func cells(r []string) []any {
	out := make([]any, len(r))
	for i, v := range r {
		out[i] = v
	}
	return out
}

// Send writes an attachment named <name>.<format> and fires csvDownloaded
// so the page can close its spinner. CSV is streamed straight to the client;
// a workbook is assembled first, so a failure there is still reported.
func Send(c echo.Context, format, name string, header []string, rows Rows) error {
	res := c.Response()
	var book bytes.Buffer
	switch format {
	case FormatCSV:
		res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	case FormatXLSX:
		if err := WriteXLSX(&book, name, header, rows); err != nil {
			return err
		}
		res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		return apperr.Wrap(apperr.KindValidation, ErrUnknownFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	htmx.Trigger(c, htmx.EventCSVDownloaded)
	res.WriteHeader(http.StatusOK)
	if format == FormatXLSX {
		_, err := book.WriteTo(res)
		return err
	}
	if err := WriteCSV(res, header, rows); err != nil {
		// headers are gone; all that is left is the log
		log.Printf("[export] %s.csv cut short: %v", name, err)
		return err
	}
	return nil
}

// ReadCSV parses an upload with a header row into one map per line, keyed by
// lower-cased header.
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Invalid(map[string]string{"file": "The file is empty."})
	}
	if err != nil {
		return nil, apperr.Invalid(map[string]string{"file": "Could not read CSV: " + err.Error()})
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}
	var out []map[string]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Invalid(map[string]string{"file": fmt.Sprintf("line %d: %v", line, err)})
		}
		m := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				m[h] = strings.TrimSpace(rec[i])
			}
		}
		out = append(out, m)
	}
	return out, nil
}
