// Package export writes data frames as CSV or XLSX downloads.
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"painel/internal/models"
)

// ErrUnknownFormat is returned for formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

const maxSheetName = 31

// ParseFormat validates a format query value. Empty means csv.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", models.FormatCSV:
		return models.FormatCSV, nil
	case models.FormatXLSX:
		return models.FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if format == models.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename appends the format extension to base.
func Filename(base, format string) string {
	return base + "." + format
}

// Write encodes df in the given format. sheet names the XLSX worksheet.
func Write(w io.Writer, df dataframe.DataFrame, format, sheet string) error {
	if df.Err != nil {
		return fmt.Errorf("failed to build export: %w", df.Err)
	}
	switch format {
	case models.FormatCSV:
		return df.WriteCSV(w)
	case models.FormatXLSX:
		return writeXLSX(w, df, sheet)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeXLSX(w io.Writer, df dataframe.DataFrame, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = sheetName(sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#0D6EFD"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	records := df.Records()
	for r, row := range records {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if r == 0 {
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return err
				}
				continue
			}
			if err := f.SetCellValue(sheet, cell, cellValue(value)); err != nil {
				return err
			}
		}
	}

	if len(records) > 0 && len(records[0]) > 0 {
		last, err := excelize.CoordinatesToCellName(len(records[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
		lastCol, err := excelize.ColumnNumberToName(len(records[0]))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// cellValue stores numeric text as a number so spreadsheets can sum it.
func cellValue(s string) any {
	if s == "" || (len(s) > 1 && s[0] == '0' && s[1] != '.') {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "Dados"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
