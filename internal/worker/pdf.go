package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phpdave11/gofpdf"
)

// AgreementRenderer writes rental agreements as PDF files into outputDir.
type AgreementRenderer struct {
	outputDir   string
	companyName string
	footerURL   string
}

func NewAgreementRenderer(outputDir, companyName, footerURL string) *AgreementRenderer {
	return &AgreementRenderer{
		outputDir:   outputDir,
		companyName: companyName,
		footerURL:   footerURL,
	}
}

func (r *AgreementRenderer) RenderAgreement(ctx context.Context, agreement Agreement) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Rental Agreement")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Company: %s", r.companyName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Booking: %s", agreement.BookingNumber))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Customer: %s", agreement.CustomerName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Rental period: %s to %s", agreement.StartDate, agreement.EndDate))
	pdf.Ln(8)
	if agreement.DeliveryCity != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Delivery: %s", agreement.DeliveryCity))
		pdf.Ln(8)
	}
	pdf.Cell(0, 10, fmt.Sprintf("Total: $%.2f", agreement.Total))
	pdf.Ln(12)

	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 10, fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04")))
	if r.footerURL != "" {
		pdf.Ln(6)
		pdf.Cell(0, 10, r.footerURL)
	}

	path := filepath.Join(r.outputDir, fmt.Sprintf("agreement-%s.pdf", agreement.BookingNumber))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}
