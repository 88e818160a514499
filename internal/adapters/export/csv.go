// Package export writes the receipts table as CSV and XLSX downloads.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/tourism/internal/domain/model"
)

// BaseFilename is the download name without extension.
const BaseFilename = "tourism_receipts"

// Header is the column header shared by every export format.
var Header = []string{"Country", "Code", "Region", "Year", "Receipts USD", "Receipts USD Billions"}

// WriteCSV writes rows in the download layout: an unquoted header, text
// cells always quoted, billions with two decimals, lines joined by "\n" with
// no trailing newline.
func WriteCSV(w io.Writer, rows []model.CountryRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	var b strings.Builder
	b.WriteString(strings.Join(Header, ","))
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(quote(r.Country))
		b.WriteByte(',')
		b.WriteString(quote(r.Code))
		b.WriteByte(',')
		b.WriteString(quote(r.Region))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(r.Year))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(r.ReceiptsUSD, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(r.ReceiptsUSDBillions, 'f', 2, 64))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ParseCSV reads a file produced by WriteCSV.
func ParseCSV(r io.Reader) ([]model.CountryRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformed, head)
	}

	var rows []model.CountryRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		rows = append(rows, row)
	}
}

func parseRecord(rec []string) (model.CountryRow, error) {
	year, err := strconv.Atoi(rec[3])
	if err != nil {
		return model.CountryRow{}, fmt.Errorf("year: %w", err)
	}
	usd, err := strconv.ParseFloat(rec[4], 64)
	if err != nil {
		return model.CountryRow{}, fmt.Errorf("receipts: %w", err)
	}
	billions, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return model.CountryRow{}, fmt.Errorf("billions: %w", err)
	}
	return model.CountryRow{
		Country:             rec[0],
		Code:                rec[1],
		Region:              rec[2],
		Year:                year,
		ReceiptsUSD:         usd,
		ReceiptsUSDBillions: billions,
	}, nil
}
