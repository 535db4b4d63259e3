package httpapi

import (
	"bytes"
	"fmt"

	"caserma-alloggi/internal/domain"

	"github.com/xuri/excelize/v2"
)

// storicoExportHeader column order of the history export.
var storicoExportHeader = []string{
	"Matricola",
	"Grado",
	"Cognome",
	"Nome",
	"Camera",
	"Edificio",
	"Piano",
	"Data Entrata",
	"Data Uscita",
	"Giorni",
	"Note",
	"Inserito Da",
}

var storicoExportWidths = []float64{14, 20, 20, 20, 12, 14, 8, 14, 14, 10, 30, 16}

// GenerateStoricoExport writes the history records to an xlsx workbook
// and returns its bytes.
func GenerateStoricoExport(records []*domain.StoricoAssegnazione) ([]byte, error) {
	f := excelize.NewFile()
	// Note: don't defer Close() here, WriteTo needs the file open

	sheetName := "Storico Assegnazioni"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range storicoExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i := range storicoExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, storicoExportWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2

		piano := ""
		if rec.Piano != nil {
			piano = fmt.Sprintf("%d", *rec.Piano)
		}
		giorni := int(rec.DataUscita.Sub(rec.DataEntrata).Hours() / 24)

		values := []any{
			rec.MatricolaAlloggiato,
			rec.Grado,
			rec.Cognome,
			rec.Nome,
			rec.NumeroCamera,
			rec.Edificio,
			piano,
			rec.DataEntrata.Format("2006-01-02"),
			rec.DataUscita.Format("2006-01-02"),
			giorni,
			rec.Note,
			rec.InseritoDa,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
