// Package pdf renders the history report as a paginated A4 table. It is a
// pure function of its input: no storage access, no clock reads.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"cantina-ledger/internal/core"
)

const (
	marginMM   = 14.0
	rowHeight  = 6.0
	pageBreakY = 272.0
)

// column widths in mm; sum fits the 182mm usable width of A4 portrait.
var colWidths = [6]float64{22, 20, 62, 24, 30, 24}

var colHeaders = [6]string{"Data", "Tipo", "Descrição", "Valor", "Status", "Pagamento"}

func typeLabel(t core.HistoryType) string {
	switch t {
	case core.HistorySale:
		return "Venda"
	case core.HistoryDebt:
		return "Dívida"
	case core.HistoryReservation:
		return "Reserva"
	}
	return string(t)
}

// Render produces the PDF bytes for a history report.
func Render(report *core.HistoryReport) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(marginMM, marginMM, marginMM)
	doc.SetAutoPageBreak(false, marginMM)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	// Title and period line.
	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 10, tr("Histórico da Cantina"), "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	period := fmt.Sprintf("Período: %s até %s",
		report.From.Format("02/01/2006"), report.To.Format("02/01/2006"))
	doc.CellFormat(0, 8, tr(period), "", 1, "C", false, 0, "")
	doc.Ln(4)

	writeTableHeader(doc, tr)

	doc.SetFont("Helvetica", "", 8)
	fill := false
	for _, row := range report.Rows {
		if doc.GetY() > pageBreakY {
			doc.AddPage()
			writeTableHeader(doc, tr)
			doc.SetFont("Helvetica", "", 8)
		}

		if fill {
			doc.SetFillColor(249, 250, 251)
		} else {
			doc.SetFillColor(255, 255, 255)
		}
		payment := row.Payment
		if payment == "" {
			payment = "-"
		}
		cells := [6]string{
			row.Date.Format("02/01/2006"),
			typeLabel(row.Type),
			row.Description,
			"R$ " + row.Amount.StringFixed(2),
			row.Status,
			payment,
		}
		for i, text := range cells {
			align := "L"
			if i == 3 {
				align = "R"
			}
			doc.CellFormat(colWidths[i], rowHeight, tr(clip(text, i)), "1", 0, align, true, 0, "")
		}
		doc.Ln(-1)
		fill = !fill
	}

	// Totals block.
	doc.Ln(6)
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 7, tr(fmt.Sprintf("Total Recebido: R$ %s", report.TotalReceived.StringFixed(2))), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 7, tr(fmt.Sprintf("Total em Dívidas: R$ %s", report.TotalOutstanding.StringFixed(2))), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 7, tr(fmt.Sprintf("Total Reservas: R$ %s", report.TotalReservations.StringFixed(2))), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render history pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTableHeader(doc *fpdf.Fpdf, tr func(string) string) {
	doc.SetFont("Helvetica", "B", 8)
	doc.SetFillColor(51, 65, 85)
	doc.SetTextColor(255, 255, 255)
	for i, h := range colHeaders {
		doc.CellFormat(colWidths[i], rowHeight+1, tr(h), "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)
	doc.SetTextColor(0, 0, 0)
}

// clip truncates cell text that would overflow its column. Description gets
// the widest column; the rest rarely clip.
func clip(s string, col int) string {
	limits := [6]int{12, 10, 44, 14, 20, 14}
	max := limits[col]
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
