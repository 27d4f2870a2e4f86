package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/revenue-engine/internal/model"
	"github.com/nurpe/revenue-engine/internal/service"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a commission summary as an XLSX statement: header block
// with the partition totals, then one row per commission.
func (g *Generator) Generate(summary *service.CommissionSummary, title string) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Statement"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", title)
	set("A3", "Pending total")
	set("B3", formatMinorUnits(summary.TotalPending))
	set("A4", "Paid total")
	set("B4", formatMinorUnits(summary.TotalPaid))
	set("A5", "Pending count")
	set("B5", summary.CountPending)
	set("A6", "Paid count")
	set("B6", summary.CountPaid)

	tableRow := 8
	headers := []string{
		"Period",
		"Role",
		"Base value",
		"Percentage",
		"Commission",
		"Status",
		"Paid at",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, commission := range summary.Commissions {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), commission.Period)
		set(fmt.Sprintf("B%d", row), string(commission.Role))
		set(fmt.Sprintf("C%d", row), formatMinorUnits(commission.BaseValue))
		set(fmt.Sprintf("D%d", row), fmt.Sprintf("%d%%", commission.Percentage))
		set(fmt.Sprintf("E%d", row), formatMinorUnits(commission.CommissionValue))
		set(fmt.Sprintf("F%d", row), string(commission.Status))
		set(fmt.Sprintf("G%d", row), formatPaidAt(&commission))
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "B", 12)
	_ = file.SetColWidth(sheet, "C", "E", 16)
	_ = file.SetColWidth(sheet, "F", "F", 10)
	_ = file.SetColWidth(sheet, "G", "G", 20)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatMinorUnits renders an integer minor-currency amount with two decimal
// places.
func formatMinorUnits(value int64) string {
	whole := value / 100
	cents := value % 100
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("%d.%02d", whole, cents)
}

func formatPaidAt(commission *model.Commission) string {
	if commission.PaidAt == nil {
		return ""
	}
	return commission.PaidAt.Format("2006-01-02 15:04")
}
