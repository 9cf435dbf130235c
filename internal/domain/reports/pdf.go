package reports

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"

	"commissions/internal/domain/commission"
)

var pdfColumnWidths = []float64{48, 34, 20, 16, 18, 20, 18, 22, 28}

// PDF renders a printable landscape statement of the commission list.
func (s *Service) PDF(list commission.CommissionList) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Commission statement "+list.Period))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range columnTitles {
		pdf.CellFormat(pdfColumnWidths[i], 7, tr(title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range list.Lines {
		for i, value := range s.row(line) {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			pdf.CellFormat(pdfColumnWidths[i], 6, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(s.printer.Sprintf("Employees: %d", list.Summary.Employees)))
	pdf.Ln(6)
	pdf.Cell(0, 7, tr(s.printer.Sprintf("Approved: %d", list.Summary.ApprovedCount)))
	pdf.Ln(6)
	pdf.Cell(0, 7, tr("Average percentage: "+s.Percent(list.Summary.AveragePercentage)))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, tr("Total to pay: "+s.Money(list.Summary.TotalToPay)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
