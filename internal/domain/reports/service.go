package reports

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"commissions/internal/domain/commission"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Service renders commission lists into downloadable documents.
type Service struct {
	printer *message.Printer
}

func NewService(locale string) *Service {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	return &Service{printer: message.NewPrinter(tag)}
}

// Money formats an amount with two decimals and locale grouping, e.g. "R$ 1.234,50".
func (s *Service) Money(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return s.printer.Sprintf("R$ %.2f", value)
}

func (s *Service) Percent(value int) string {
	return s.printer.Sprintf("%d%%", value)
}

// Filename builds the download name for a period, e.g. "commissions-2024-03.xlsx".
func Filename(list commission.CommissionList, ext string) string {
	return fmt.Sprintf("commissions-%s.%s", list.Period, strings.TrimPrefix(ext, "."))
}

var columnTitles = []string{
	"Employee", "Group", "Shift", "Volume", "Score", "Percentage", "Baseline", "Status", "Bonus",
}

func (s *Service) row(line commission.CommissionLine) []string {
	return []string{
		line.EmployeeName,
		line.GroupName,
		line.Shift,
		s.printer.Sprintf("%d", line.Volume),
		s.printer.Sprintf("%d/%d", line.WeightedScore, line.MaxPossibleScore),
		s.Percent(line.Percentage),
		s.printer.Sprintf("%d", line.Baseline),
		line.Status,
		s.Money(line.Bonus),
	}
}
