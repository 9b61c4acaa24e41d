package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rentline/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

// Exporter writes booking lists as Excel workbooks for back-office use.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// BookingsToExcel writes the bookings to a timestamped workbook and returns
// the file path.
func (e *Exporter) BookingsToExcel(bookings []models.Booking) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Booking #", "Status", "Equipment", "Start", "End",
		"Customer", "Email", "Delivery City", "Total", "Created",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 2
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("A%d", row), booking.BookingNumber)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("B%d", row), booking.Status)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("C%d", row), booking.EquipmentID)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("D%d", row), booking.StartDate)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("E%d", row), booking.EndDate)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("F%d", row), booking.CustomerName)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("G%d", row), booking.CustomerEmail)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("H%d", row), booking.DeliveryCity)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("I%d", row), booking.Total)
		created := ""
		if !booking.CreatedAt.IsZero() {
			created = booking.CreatedAt.Format("2006-01-02 15:04")
		}
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("J%d", row), created)
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 14)
	_ = f.SetColWidth(bookingsSheet, "B", "C", 15)
	_ = f.SetColWidth(bookingsSheet, "D", "E", 12)
	_ = f.SetColWidth(bookingsSheet, "F", "G", 24)
	_ = f.SetColWidth(bookingsSheet, "H", "J", 16)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}
