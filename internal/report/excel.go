// Package report renders reservation exports for the front desk.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"yoyaku/internal/model"
)

// ReservationLister reads reservations for reporting.
type ReservationLister interface {
	ListReservationsByDateRange(ctx context.Context, from, to string) ([]model.Reservation, error)
}

var headerColumns = []string{
	"Code", "Studio", "Date", "Start", "End",
	"Customer", "Phone", "Category", "Price", "Status",
}

// WriteReservationsExcel writes all reservations in [from, to] to an Excel
// workbook, one sheet per area.
func WriteReservationsExcel(ctx context.Context, store ReservationLister, from, to string, w io.Writer) error {
	reservations, err := store.ListReservationsByDateRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}

	byArea := make(map[string][]model.Reservation)
	for _, r := range reservations {
		byArea[r.Area] = append(byArea[r.Area], r)
	}
	areas := make([]string, 0, len(byArea))
	for area := range byArea {
		areas = append(areas, area)
	}
	sort.Strings(areas)
	if len(areas) == 0 {
		areas = []string{"reservations"}
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, area := range areas {
		sheet := area
		if len(sheet) > 31 {
			sheet = sheet[:31]
		}
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		if err := writeHeader(f, sheet); err != nil {
			return err
		}
		for rowIdx, r := range byArea[area] {
			row := []any{
				r.Code, r.StudioID, r.Date, r.StartTime, r.EndTime,
				r.CustomerName, r.CustomerPhone, string(r.Category), r.Price, r.Status,
			}
			if err := writeRow(f, sheet, rowIdx+2, row); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string) error {
	for i, col := range headerColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(headerColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, row []any) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}
