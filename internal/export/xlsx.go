// Package export renders registrations into a spreadsheet document.
package export

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"ekaa/internal/registration/models"
)

const (
	// Filename is the attachment name offered to the browser.
	Filename = "Ekaa_Registrations.xlsx"
	// ContentType identifies an Office Open XML workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// SheetName is the single worksheet holding the export.
	SheetName = "Registrations"
)

// ErrCellTooLong reports a value longer than a spreadsheet cell can hold.
// The writer would otherwise truncate it without telling anyone.
var ErrCellTooLong = errors.New("value exceeds spreadsheet cell limit")

// Headers is the fixed column order of the export.
var Headers = []string{"Name", "Email", "Phone", "Connected With", "Selected Trainings"}

// Row returns the cells for one registration in Headers order. Unset fields
// render as empty strings.
func Row(reg *models.Registration) []string {
	return []string{
		reg.Name,
		reg.Email,
		reg.Phone,
		models.Deref(reg.ConnectedWith),
		reg.SelectedTrainings,
	}
}

// Build materializes the whole workbook in memory: one header row followed by
// one row per registration in the given order. A value that does not fit in a
// cell fails the whole export.
func Build(regs []*models.Registration) (*excelize.File, error) {
	for _, reg := range regs {
		for i, v := range Row(reg) {
			if utf8.RuneCountInString(v) > excelize.TotalCellChars {
				return nil, fmt.Errorf("registration %d %s: %w", reg.ID, Headers[i], ErrCellTooLong)
			}
		}
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"7030A0"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	widths := make([]int, len(Headers))
	for i, h := range Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, reg := range regs {
		for i, v := range Row(reg) {
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
	}
	for i, w := range widths {
		// Column widths must be set before any row is streamed.
		if err := sw.SetColWidth(i+1, i+1, float64(min(w+2, 255))); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for n, reg := range regs {
		cells := Row(reg)
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		axis, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := sw.SetRow(axis, values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", n+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flush sheet: %w", err)
	}
	return f, nil
}

// WriteRegistrations builds the workbook and writes it to w.
func WriteRegistrations(w io.Writer, regs []*models.Registration) error {
	f, err := Build(regs)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
