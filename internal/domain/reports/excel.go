package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"commissions/internal/domain/commission"
)

const sheetName = "Commissions"

// Excel writes one row per line followed by a summary block.
func (s *Service) Excel(list commission.CommissionList) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	for i, title := range columnTitles {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, err
		}
	}

	for r, line := range list.Lines {
		values := []any{
			line.EmployeeName,
			line.GroupName,
			line.Shift,
			line.Volume,
			line.WeightedScore,
			line.Percentage,
			line.Baseline,
			line.Status,
			line.Bonus.InexactFloat64(),
		}
		for c, value := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if err := s.applyFormatting(f, len(list.Lines)); err != nil {
		return nil, err
	}

	summaryRow := len(list.Lines) + 3
	summary := [][]any{
		{"Period", list.Period},
		{"Employees", list.Summary.Employees},
		{"Approved", list.Summary.ApprovedCount},
		{"Average percentage", list.Summary.AveragePercentage},
		{"Total to pay", s.Money(list.Summary.TotalToPay)},
	}
	for i, pair := range summary {
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", summaryRow+i), &pair); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) applyFormatting(f *excelize.File, rows int) error {
	lastCol, _ := excelize.ColumnNumberToName(len(columnTitles))
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", style)
	}
	_ = f.AutoFilter(sheetName, fmt.Sprintf("A1:%s1", lastCol), nil)
	_ = f.SetColWidth(sheetName, "A", "B", 28)
	_ = f.SetColWidth(sheetName, "C", lastCol, 14)

	if rows == 0 {
		return nil
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr(`"R$" #,##0.00`)})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, lastCol+"2", fmt.Sprintf("%s%d", lastCol, rows+1), money)
}

func stringPtr(s string) *string {
	return &s
}
