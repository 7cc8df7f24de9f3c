// Package report exports booking history to XLSX for salon management.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"zapislon/internal/db"
	"zapislon/internal/model"

	"github.com/xuri/excelize/v2"
)

// BookingLister provides the rows for a report.
type BookingLister interface {
	ListBookings(ctx context.Context, filter db.BookingFilter) ([]model.Booking, error)
}

// Exporter writes booking reports.
type Exporter struct {
	bookings BookingLister
}

// NewExporter creates a report exporter.
func NewExporter(bookings BookingLister) *Exporter {
	return &Exporter{bookings: bookings}
}

var reportColumns = []string{
	"ID", "Master", "Salon", "Service", "Client",
	"Start", "End", "Status", "Price", "Client notes", "Salon notes",
}

// WriteBookings writes all bookings matching the filter to w as a single
// XLSX sheet, paging through the ledger.
func (e *Exporter) WriteBookings(ctx context.Context, w io.Writer, filter db.BookingFilter) (int, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Bookings"
	file.SetSheetName("Sheet1", sheet)

	for i, col := range reportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return 0, err
		}
		if err := file.SetCellValue(sheet, cell, col); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
	}
	if style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(reportColumns), 1)
		_ = file.SetCellStyle(sheet, startCell, endCell, style)
	}

	const pageSize = 500
	filter.Limit = pageSize
	filter.Offset = 0

	row := 2
	total := 0
	for {
		page, err := e.bookings.ListBookings(ctx, filter)
		if err != nil {
			return 0, fmt.Errorf("list bookings for report: %w", err)
		}
		for i := range page {
			if err := writeBookingRow(file, sheet, row, &page[i]); err != nil {
				return 0, err
			}
			row++
			total++
		}
		if len(page) < pageSize {
			break
		}
		filter.Offset += pageSize
	}

	if err := file.Write(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return total, nil
}

func writeBookingRow(file *excelize.File, sheet string, row int, b *model.Booking) error {
	values := []interface{}{
		b.ID, b.MasterID, b.SalonID, b.ServiceID, b.ClientID,
		b.StartAt.Format(time.RFC3339), b.EndAt.Format(time.RFC3339),
		string(b.Status), b.Price, b.ClientNotes, b.SalonNotes,
	}
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	return nil
}
