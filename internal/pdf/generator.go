package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/revenue-engine/internal/service"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders a commission summary as a PDF statement: the partition
// totals followed by a table of the individual commissions.
func (g *Generator) Generate(summary *service.CommissionSummary, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Pending: %s (%d items)", formatMinorUnits(summary.TotalPending), summary.CountPending), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Paid: %s (%d items)", formatMinorUnits(summary.TotalPaid), summary.CountPaid), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Period", "Role", "Base value", "Pct", "Commission", "Status"}
	colWidths := []float64{25, 25, 35, 15, 40, 25}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for i := range summary.Commissions {
		commission := &summary.Commissions[i]
		row := []string{
			commission.Period,
			string(commission.Role),
			formatMinorUnits(commission.BaseValue),
			fmt.Sprintf("%d%%", commission.Percentage),
			formatMinorUnits(commission.CommissionValue),
			string(commission.Status),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func formatMinorUnits(value int64) string {
	whole := value / 100
	cents := value % 100
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("%d.%02d", whole, cents)
}
