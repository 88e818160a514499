package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/tourism/internal/domain/model"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "Receipts"

// WriteXLSX writes rows as a single-sheet workbook with numeric cells.
func WriteXLSX(w io.Writer, rows []model.CountryRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	billions, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("number style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{r.Country, r.Code, r.Region, r.Year, r.ReceiptsUSD, r.ReceiptsUSDBillions}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	last, _ := excelize.CoordinatesToCellName(6, len(rows)+1)
	if err := f.SetCellStyle(SheetName, "F2", last, billions); err != nil {
		return fmt.Errorf("style billions: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "C", 28); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "D", "F", 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}
